package pricing

// LineItem is a single purchased line as entered by the user.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	UnitCost    float64 `json:"unitCost"`
	Quantity    int     `json:"quantity"`
}

// Adjustments holds the order-wide values shared by every line: the total
// freight cost to apportion and the global percentage adjustments applied to
// the pre-adjustment invoice total. Percentages are taken as-is; they are not
// clamped to [0,100] and negative values flow through the arithmetic.
type Adjustments struct {
	Freight         float64 `json:"freight"`
	DiscountPercent float64 `json:"discountPercent"`
	MarkupPercent   float64 `json:"markupPercent"`
}

// ItemResult is the landed-cost breakdown computed for one line.
type ItemResult struct {
	LineItem
	BaseTotal          float64 `json:"baseTotal"`
	ApportionedFreight float64 `json:"apportionedFreight"`
	AdjustedTotal      float64 `json:"adjustedTotal"`
	FinalUnitCost      float64 `json:"finalUnitCost"`
}

// Summary contains the invoice-level intermediate values of the calculation.
type Summary struct {
	SubtotalItems         float64 `json:"subtotalItems"`
	Freight               float64 `json:"freight"`
	DiscountAmount        float64 `json:"discountAmount"`
	MarkupAmount          float64 `json:"markupAmount"`
	TotalBeforeAdjustment float64 `json:"totalBeforeAdjustment"`
	GrandTotal            float64 `json:"grandTotal"`
}

// Result groups the per-item breakdowns and the summary.
type Result struct {
	Items   []ItemResult `json:"items"`
	Summary Summary      `json:"summary"`
}

// Calculate apportions the shared freight across items in proportion to each
// item's share of the items subtotal, then applies the combined
// discount/markup effect as a single multiplicative ratio to every
// freight-inclusive item total. The uniform ratio keeps the sum of the
// adjusted totals equal to the grand total.
//
// All divide-by-zero cases resolve to 0: an item carries no weight when the
// subtotal is 0, and its final unit cost is 0 when its quantity is 0.
func Calculate(items []LineItem, adj Adjustments) Result {
	var subtotal float64
	for _, it := range items {
		subtotal += it.UnitCost * float64(it.Quantity)
	}

	totalBefore := subtotal + adj.Freight
	discount := totalBefore * (adj.DiscountPercent / 100.0)
	markup := totalBefore * (adj.MarkupPercent / 100.0)
	grandTotal := totalBefore - discount + markup

	ratio := 1.0
	if totalBefore > 0 {
		ratio = grandTotal / totalBefore
	}

	results := make([]ItemResult, 0, len(items))
	for _, it := range items {
		base := it.UnitCost * float64(it.Quantity)

		weight := 0.0
		if subtotal > 0 {
			weight = base / subtotal
		}
		apportioned := adj.Freight * weight
		adjusted := (base + apportioned) * ratio

		finalUnit := 0.0
		if it.Quantity > 0 {
			finalUnit = adjusted / float64(it.Quantity)
		}

		results = append(results, ItemResult{
			LineItem:           it,
			BaseTotal:          base,
			ApportionedFreight: apportioned,
			AdjustedTotal:      adjusted,
			FinalUnitCost:      finalUnit,
		})
	}

	return Result{
		Items: results,
		Summary: Summary{
			SubtotalItems:         subtotal,
			Freight:               adj.Freight,
			DiscountAmount:        discount,
			MarkupAmount:          markup,
			TotalBeforeAdjustment: totalBefore,
			GrandTotal:            grandTotal,
		},
	}
}
