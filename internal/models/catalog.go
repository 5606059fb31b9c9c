// Package models defines core data structures for catalog entries, detections, and quotations.
package models

import "time"

// CatalogEntry is a sellable product. Embedding is the cached vector for the entry's
// descriptive text; nil until the first matching pass computes it.
type CatalogEntry struct {
	ID            string    `json:"id" yaml:"id"`
	ItemNo        string    `json:"item_no" yaml:"item_no"`
	ProductID     string    `json:"product_id" yaml:"product_id"`
	Name          string    `json:"product" yaml:"product"`
	ShortText     string    `json:"short_text" yaml:"short_text"`
	Description   string    `json:"description" yaml:"description"`
	Group         string    `json:"product_group" yaml:"product_group"`
	Price         float64   `json:"price" yaml:"price"`
	Supplier      string    `json:"supplier" yaml:"supplier"`
	Store         string    `json:"store" yaml:"store"`
	StockQuantity int       `json:"stock_quantity" yaml:"stock_quantity"`
	Tags          []string  `json:"tags" yaml:"tags"`
	Embedding     []float32 `json:"-" yaml:"-"`
	CreatedAt     time.Time `json:"created_at" yaml:"-"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"-"`
}

// HasEmbedding reports whether the entry carries a cached embedding.
func (e *CatalogEntry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// Customer is a buyer a quotation can be linked to.
type Customer struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	Company          string    `json:"company,omitempty"`
	SalesExecutiveID string    `json:"sales_executive_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Role values carried by an Identity.
const (
	RoleSales = "sales"
	RoleAdmin = "admin"
)

// Identity is the opaque caller identity supplied by the fronting auth layer.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
