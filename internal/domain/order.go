package domain

import "time"

// DateLayout is the calendar format used on labels and in the API.
const DateLayout = "2006-01-02"

// DefaultShelfLifeYears is the expiry offset applied when the operator does not set one.
const DefaultShelfLifeYears = 2

// LabelOrder is the operator-entered input for one print attempt.
// It lives only for the duration of the attempt.
type LabelOrder struct {
	ManufactureDate time.Time `json:"manufacture_date"`
	ExpiryDate      time.Time `json:"expiry_date"`
	ProductID       string    `json:"product_id" validate:"required"`
	BrandID         string    `json:"brand_id" validate:"required"`
	Lot             string    `json:"lot" validate:"required,lot"`
	WeightGrams     int64     `json:"weight_grams" validate:"gte=0"`
}

// DefaultDates returns today's date and the default expiry for it.
func DefaultDates(now time.Time, shelfLifeYears int) (manufacture, expiry time.Time) {
	if shelfLifeYears <= 0 {
		shelfLifeYears = DefaultShelfLifeYears
	}
	y, m, d := now.Date()
	manufacture = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	expiry = manufacture.AddDate(shelfLifeYears, 0, 0)
	return manufacture, expiry
}
