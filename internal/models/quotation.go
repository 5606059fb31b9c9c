package models

import "time"

// LineItem is one priced quotation row, possibly merged from several matches.
type LineItem struct {
	ItemNo          string  `json:"item_no"`
	ProductID       string  `json:"product_id"`
	Product         string  `json:"product"`
	ProductGroup    string  `json:"product_group"`
	Supplier        string  `json:"supplier"`
	Store           string  `json:"store"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unit_price"`
	LineTotal       float64 `json:"line_total"`
	MatchConfidence float64 `json:"match_confidence"`
}

// Pricing is the monetary breakdown of a quotation. Amounts are rounded to 2 decimals.
type Pricing struct {
	Subtotal       float64 `json:"subtotal"`
	TaxRate        float64 `json:"tax_rate"`
	TaxAmount      float64 `json:"tax_amount"`
	DiscountRate   float64 `json:"discount_rate"`
	DiscountAmount float64 `json:"discount_amount"`
	GrandTotal     float64 `json:"grand_total"`
}

// Quotation is the priced document produced for one analysis request.
type Quotation struct {
	QuotationID  string     `json:"quotation_id"`
	Date         string     `json:"date"`
	CustomerName string     `json:"customer_name"`
	Validity     string     `json:"validity"`
	Items        []LineItem `json:"items"`
	Pricing      Pricing    `json:"pricing"`
	Terms        []string   `json:"terms"`
}

// Quotation statuses.
const (
	StatusPending = "pending"
)

// SavedQuotation is a quotation persisted against a customer by a sales executive.
type SavedQuotation struct {
	ID               string    `json:"id"`
	Quotation        Quotation `json:"quotation"`
	CustomerID       string    `json:"customer_id"`
	SalesExecutiveID string    `json:"sales_executive_id"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}
