package domain

// OrderFinancials is the result of pricing a list of line items.
type OrderFinancials struct {
	Subtotal       float64
	DiscountAmount float64
	TotalAmount    float64
	TotalCost      float64
	Expenses       float64
	TotalProfit    float64
}
