package domain

// Product is a catalog entry that can be labeled.
// The catalog owns products; the print workflow only reads them.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	ProductCode string `json:"product_code" validate:"required,numeric3"` // zero-padded, 3 digits
	RNE         string `json:"rne"`
	RNPA        string `json:"rnpa"`
}

// Brand classifies products with a single indicator digit that leads every printed code.
type Brand struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required"`
	Indicator int    `json:"indicator" validate:"gte=0,lte=9"`
}
