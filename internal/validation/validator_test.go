package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canlabel/labeler-station/internal/domain"
	domainerrors "github.com/canlabel/labeler-station/internal/errors"
	"github.com/canlabel/labeler-station/internal/validation"
)

func validOrder() domain.LabelOrder {
	return domain.LabelOrder{
		ProductID:   "prod-1",
		BrandID:     "brand-1",
		Lot:         "00235",
		WeightGrams: 500,
	}
}

func TestValidator_ValidOrder(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(validOrder()))
}

func TestValidator_ZeroWeightIsValid(t *testing.T) {
	v := validation.New()
	order := validOrder()
	order.WeightGrams = 0
	assert.NoError(t, v.Validate(order))
}

func TestValidator_Errors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		mutate    func(o *domain.LabelOrder)
		wantField string
	}{
		{"missing product", func(o *domain.LabelOrder) { o.ProductID = "" }, "product_id"},
		{"missing brand", func(o *domain.LabelOrder) { o.BrandID = "" }, "brand_id"},
		{"short lot", func(o *domain.LabelOrder) { o.Lot = "0023" }, "lot"},
		{"long lot", func(o *domain.LabelOrder) { o.Lot = "002351" }, "lot"},
		{"alpha lot", func(o *domain.LabelOrder) { o.Lot = "00A35" }, "lot"},
		{"negative weight", func(o *domain.LabelOrder) { o.WeightGrams = -1 }, "weight_grams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := validOrder()
			tt.mutate(&order)

			err := v.Validate(order)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.Contains(t, domainErr.Message, tt.wantField)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_LotMessage(t *testing.T) {
	v := validation.New()
	order := validOrder()
	order.Lot = "12"

	err := v.Validate(order)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "lot must be exactly 5 digits", domainErr.Message)
}

func TestValidator_CatalogEntries(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(domain.Product{Name: "Dulce de leche", ProductCode: "14"}))
	assert.NoError(t, v.Validate(domain.Brand{Name: "La Serenisima", Indicator: 9}))

	err := v.Validate(domain.Product{Name: "Dulce de leche", ProductCode: "1400"})
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "product_code must be 1 to 3 digits")

	err = v.Validate(domain.Brand{Name: "X", Indicator: 10})
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Contains(t, err.Error(), "indicator")
}
