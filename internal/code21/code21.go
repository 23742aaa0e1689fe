// Package code21 encodes can identifiers and label metadata into the fixed-width
// 21-digit code printed as the label barcode.
//
// Layout (positions are 1-based and fixed; historical labels depend on them):
//
//	1      brand indicator
//	2-4    product code
//	5-10   sequence (can) id
//	11-15  lot
//	16-20  weight in grams
//	21     check digit
package code21

import (
	"strconv"
	"strings"

	domainerrors "github.com/canlabel/labeler-station/internal/errors"
)

// Field widths.
const (
	IndicatorWidth = 1
	ProductWidth   = 3
	SequenceWidth  = 6
	LotWidth       = 5
	WeightWidth    = 5

	// DataLength is the number of digits covered by the check digit.
	DataLength = IndicatorWidth + ProductWidth + SequenceWidth + LotWidth + WeightWidth
	// Length is the total code length including the check digit.
	Length = DataLength + 1
)

// Largest values each numeric field can hold.
const (
	MaxSequence = 999999
	MaxWeight   = 99999
)

// Fields are the inputs of a code.
type Fields struct {
	ProductCode string
	Lot         string
	Indicator   int
	SequenceID  int64
	WeightGrams int64
}

// Encode builds the 21-digit code for the given fields.
// It returns an ENCODING domain error when a field does not fit its width.
func Encode(f Fields) (string, error) {
	if f.Indicator < 0 || f.Indicator > 9 {
		return "", domainerrors.Encodingf("brand indicator %d is not a single digit", f.Indicator)
	}
	if f.ProductCode == "" || len(f.ProductCode) > ProductWidth || !isDigits(f.ProductCode) {
		return "", domainerrors.Encodingf("product code %q must be 1 to %d digits", f.ProductCode, ProductWidth)
	}
	if f.SequenceID < 0 || f.SequenceID > MaxSequence {
		return "", domainerrors.Encodingf("can id %d does not fit in %d digits", f.SequenceID, SequenceWidth)
	}
	if len(f.Lot) != LotWidth || !isDigits(f.Lot) {
		return "", domainerrors.Encodingf("lot %q must be exactly %d digits", f.Lot, LotWidth)
	}
	if f.WeightGrams < 0 || f.WeightGrams > MaxWeight {
		return "", domainerrors.Encodingf("weight %dg does not fit in %d digits", f.WeightGrams, WeightWidth)
	}

	var b strings.Builder
	b.Grow(Length)
	b.WriteString(strconv.Itoa(f.Indicator))
	b.WriteString(pad(f.ProductCode, ProductWidth))
	b.WriteString(pad(strconv.FormatInt(f.SequenceID, 10), SequenceWidth))
	b.WriteString(f.Lot)
	b.WriteString(pad(strconv.FormatInt(f.WeightGrams, 10), WeightWidth))

	data := b.String()
	b.WriteByte('0' + CheckDigit(data))
	return b.String(), nil
}

// Decode splits a code back into its fields after verifying length, digits and check digit.
func Decode(code string) (Fields, error) {
	if len(code) != Length || !isDigits(code) {
		return Fields{}, domainerrors.Encodingf("code %q must be %d digits", code, Length)
	}
	if want := CheckDigit(code[:DataLength]); code[DataLength]-'0' != want {
		return Fields{}, domainerrors.Encodingf("code %q has check digit %c, want %d", code, code[DataLength], want)
	}

	pos := 0
	next := func(width int) string {
		s := code[pos : pos+width]
		pos += width
		return s
	}

	indicator := next(IndicatorWidth)
	product := next(ProductWidth)
	seq := next(SequenceWidth)
	lot := next(LotWidth)
	weight := next(WeightWidth)

	// Digits were checked above, so the conversions cannot fail.
	seqID, _ := strconv.ParseInt(seq, 10, 64)
	grams, _ := strconv.ParseInt(weight, 10, 64)

	return Fields{
		Indicator:   int(indicator[0] - '0'),
		ProductCode: product,
		SequenceID:  seqID,
		Lot:         lot,
		WeightGrams: grams,
	}, nil
}

// CheckDigit computes the GTIN-style modulo-10 check digit of a digit string.
// Weights alternate 3,1,3,... starting from the rightmost digit.
func CheckDigit(data string) byte {
	sum := 0
	weight := 3
	for i := len(data) - 1; i >= 0; i-- {
		sum += int(data[i]-'0') * weight
		weight = 4 - weight
	}
	return byte((10 - sum%10) % 10)
}

// PadProductCode left-pads a catalog product code to its field width.
func PadProductCode(code string) string {
	return pad(strings.TrimSpace(code), ProductWidth)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsLot reports whether s is a well-formed lot number.
func IsLot(s string) bool {
	return len(s) == LotWidth && isDigits(s)
}
