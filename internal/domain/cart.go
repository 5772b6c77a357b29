package domain

// CartLine is one product's selection within a cart. UnitPrice is in minor
// currency units. A cart holds at most one line per ProductID.
type CartLine struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns UnitPrice × Quantity.
func (l CartLine) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// CartTotal sums line subtotals. Totals are always computed from the lines,
// never stored alongside them.
func CartTotal(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}
