// Package product defines the catalog record held by the store.
//
// A Product is a small value type: id, name, quantity and unit price. Every
// field is validated when the product is constructed and again whenever a
// mutable field changes, so any Product reachable from a store is valid.
//
// # Field Constraints
//
//   - id: integer > 0
//   - name: non-empty after trimming, no line breaks, NFC normalized
//   - quantity: integer >= 0
//   - price: finite, >= 0, rounded to cents at construction
//
// Price is kept as an integer number of cents. Rounding happens once, in
// New or SetPrice, so the stored value and the displayed value always agree.
//
// # Errors
//
// Validation failures are reported as *InvalidFieldError naming the field
// and the constraint. Use IsInvalidField to test for them through wrapping:
//
//	p, err := product.Parse("7", "Pan Integral", "30", "abc")
//	if product.IsInvalidField(err) {
//	    // err.Error() == `invalid price "abc": must be a number`
//	}
package product
