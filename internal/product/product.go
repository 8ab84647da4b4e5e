package product

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MaxPrice is the largest accepted unit price. It keeps cents well inside the
// range where float64 represents integers exactly.
const MaxPrice = 1e12

// Product is one validated catalog record.
//
// Fields are unexported so a Product can only be built through New or Parse
// and changed through SetQuantity and SetPrice. Copies are independent values.
type Product struct {
	id       int64
	name     string
	quantity int64
	cents    int64
}

// New validates its arguments and returns a Product.
// The price is rounded half away from zero to two fractional digits.
func New(id int64, name string, quantity int64, price float64) (Product, error) {
	if err := validateID(id); err != nil {
		return Product{}, err
	}
	n, err := normalizeName(name)
	if err != nil {
		return Product{}, err
	}
	if err := validateQuantity(quantity); err != nil {
		return Product{}, err
	}
	cents, err := toCents(price)
	if err != nil {
		return Product{}, err
	}
	return Product{id: id, name: n, quantity: quantity, cents: cents}, nil
}

// Parse builds a Product from text fields, as read from a file or typed by a user.
func Parse(id, name, quantity, price string) (Product, error) {
	pid, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return Product{}, invalid(FieldID, id, "must be an integer")
	}
	q, err := ParseQuantity(quantity)
	if err != nil {
		return Product{}, err
	}
	p, err := ParsePrice(price)
	if err != nil {
		return Product{}, err
	}
	return New(pid, name, q, p)
}

// ParseQuantity parses and validates a quantity.
func ParseQuantity(s string) (int64, error) {
	q, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, invalid(FieldQuantity, s, "must be an integer")
	}
	if err := ValidateQuantity(q); err != nil {
		return 0, err
	}
	return q, nil
}

// ParsePrice parses and validates a price. Rounding to cents happens when the
// price is applied to a Product.
func ParsePrice(s string) (float64, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, invalid(FieldPrice, s, "must be a number")
	}
	if err := ValidatePrice(p); err != nil {
		return 0, err
	}
	return p, nil
}

// ValidateQuantity reports whether q is an acceptable quantity.
func ValidateQuantity(q int64) error {
	return validateQuantity(q)
}

// ValidatePrice reports whether price is an acceptable unit price.
func ValidatePrice(price float64) error {
	_, err := toCents(price)
	return err
}

func (p Product) ID() int64       { return p.id }
func (p Product) Name() string    { return p.name }
func (p Product) Quantity() int64 { return p.quantity }

// Price returns the unit price as a decimal number.
func (p Product) Price() float64 { return float64(p.cents) / 100 }

// PriceCents returns the unit price in cents.
func (p Product) PriceCents() int64 { return p.cents }

// PriceString returns the unit price with exactly two fractional digits.
func (p Product) PriceString() string { return FormatCents(p.cents) }

// Value returns quantity times unit price in cents, saturating at math.MaxInt64.
func (p Product) Value() int64 {
	hi, lo := bits.Mul64(uint64(p.quantity), uint64(p.cents))
	if hi != 0 || lo > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(lo)
}

// SetQuantity validates q and applies it. On error p is unchanged.
func (p *Product) SetQuantity(q int64) error {
	if err := ValidateQuantity(q); err != nil {
		return err
	}
	p.quantity = q
	return nil
}

// SetPrice validates price, rounds it to cents and applies it. On error p is unchanged.
func (p *Product) SetPrice(price float64) error {
	cents, err := toCents(price)
	if err != nil {
		return err
	}
	p.cents = cents
	return nil
}

func (p Product) String() string {
	return fmt.Sprintf("#%d %s: %d units at $%s", p.id, p.name, p.quantity, p.PriceString())
}

// FormatCents renders a non-negative amount of cents as a plain decimal with
// two fractional digits, e.g. 50 -> "0.50".
func FormatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func validateID(id int64) error {
	if id <= 0 {
		return invalid(FieldID, strconv.FormatInt(id, 10), "must be a positive integer")
	}
	return nil
}

func validateQuantity(q int64) error {
	if q < 0 {
		return invalid(FieldQuantity, strconv.FormatInt(q, 10), "must not be negative")
	}
	return nil
}

func normalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", invalid(FieldName, "", "must not be empty")
	}
	if strings.ContainsAny(n, "\r\n") {
		return "", invalid(FieldName, n, "must not contain line breaks")
	}
	return norm.NFC.String(n), nil
}

func toCents(price float64) (int64, error) {
	switch {
	case math.IsNaN(price) || math.IsInf(price, 0):
		return 0, invalid(FieldPrice, formatFloat(price), "must be a finite number")
	case price < 0:
		return 0, invalid(FieldPrice, formatFloat(price), "must not be negative")
	case price > MaxPrice:
		return 0, invalid(FieldPrice, formatFloat(price), "exceeds maximum price")
	}
	return int64(math.Round(price * 100)), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
