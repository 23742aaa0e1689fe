// Package label renders print records as ZPL II for thermal label printers.
package label

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/canlabel/labeler-station/internal/domain"
)

// Label is the printable content of one can label.
type Label struct {
	ManufactureDate time.Time
	ExpiryDate      time.Time
	ProductName     string
	RNE             string
	RNPA            string
	Lot             string
	Code21          string
}

// FromRecord builds a label for a stored print record.
func FromRecord(rec *domain.PrintRecord, productName string) Label {
	return Label{
		ManufactureDate: rec.ManufactureDate,
		ExpiryDate:      rec.ExpiryDate,
		ProductName:     productName,
		RNE:             rec.RNE,
		RNPA:            rec.RNPA,
		Lot:             rec.Lot,
		Code21:          rec.Code21,
	}
}

// Render returns the ZPL program for l. ^CI28 selects UTF-8 so accented
// product names print as entered.
func Render(l Label) []byte {
	var b strings.Builder
	b.WriteString("^XA^CI28\n")
	text(&b, 20, 20, 24, l.ProductName)
	text(&b, 20, 50, 18, "F. Fab: "+l.ManufactureDate.Format(domain.DateLayout))
	text(&b, 20, 75, 18, "F. Vto: "+l.ExpiryDate.Format(domain.DateLayout))
	text(&b, 20, 100, 20, "RNE: "+l.RNE)
	text(&b, 150, 100, 20, "RNPA: "+l.RNPA)
	text(&b, 20, 130, 20, "LOT "+l.Lot)
	// Code 128, 80 dots tall, interpretation line below, no check digit of its own.
	fmt.Fprintf(&b, "^FO20,160^BY2^BCN,80,Y,N,N^FD%s^FS\n", Field(l.Code21))
	b.WriteString("^XZ\n")
	return []byte(b.String())
}

func text(b *strings.Builder, x, y, size int, s string) {
	fmt.Fprintf(b, "^FO%d,%d^A0N,%d,%d^FH^FD%s^FS\n", x, y, size, size, Field(s))
}

// Field prepares operator data for a ^FD block: NFC normalized, control
// characters dropped and the ZPL command prefixes escaped as ^FH hex.
func Field(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '^':
			b.WriteString("_5E")
		case r == '~':
			b.WriteString("_7E")
		case r == '_':
			b.WriteString("_5F")
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
