package label

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canlabel/labeler-station/internal/domain"
)

func sampleRecord() *domain.PrintRecord {
	return &domain.PrintRecord{
		CanID:           4821,
		Lot:             "00235",
		RNE:             "02-033527",
		RNPA:            "02-123456",
		Code21:          "701400482100235005006",
		ManufactureDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		ExpiryDate:      time.Date(2028, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestRender(t *testing.T) {
	zpl := string(Render(FromRecord(sampleRecord(), "Dulce de leche")))

	require.True(t, strings.HasPrefix(zpl, "^XA^CI28\n"))
	require.True(t, strings.HasSuffix(zpl, "^XZ\n"))
	assert.Equal(t, 1, strings.Count(zpl, "^XA"), "one label per job")

	assert.Contains(t, zpl, "^FDDulce de leche^FS")
	assert.Contains(t, zpl, "^FDF. Fab: 2026-03-14^FS")
	assert.Contains(t, zpl, "^FDF. Vto: 2028-03-14^FS")
	assert.Contains(t, zpl, "^FDRNE: 02-033527^FS")
	assert.Contains(t, zpl, "^FDRNPA: 02-123456^FS")
	assert.Contains(t, zpl, "^FDLOT 00235^FS")
	assert.Contains(t, zpl, "^BY2^BCN,80,Y,N,N^FD701400482100235005006^FS")
}

func TestField(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Dulce de leche", "Dulce de leche"},
		{"caret", "A^B", "A_5EB"},
		{"tilde", "~JA", "_7EJA"},
		{"underscore", "snake_case", "snake_5Fcase"},
		{"control chars", "line\r\nbreak\t", "linebreak"},
		{"composes accents", "Cre\u0300me", "Cr\u00e8me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Field(tt.in))
		})
	}
}

func TestRender_EscapesInjectedCommands(t *testing.T) {
	zpl := string(Render(Label{ProductName: "Mix^XZ^XA", Code21: "701400482100235005006"}))

	assert.Equal(t, 1, strings.Count(zpl, "^XZ"))
	assert.Contains(t, zpl, "Mix_5EXZ_5EXA")
}
