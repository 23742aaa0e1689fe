package domain

import "time"

// PrintRecord is the append-only log entry written once per consumed can id.
type PrintRecord struct {
	ManufactureDate time.Time `json:"manufacture_date"`
	ExpiryDate      time.Time `json:"expiry_date"`
	PrintedAt       time.Time `json:"printed_at"`
	ID              string    `json:"id"`
	Lot             string    `json:"lot"`
	ProductID       string    `json:"product_id"`
	BrandID         string    `json:"brand_id"`
	RNE             string    `json:"rne"`
	RNPA            string    `json:"rnpa"`
	Code21          string    `json:"code21"`
	CanID           int64     `json:"can_id"`
	WeightGrams     int64     `json:"weight_grams"`
}
