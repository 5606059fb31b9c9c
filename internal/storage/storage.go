// Package storage persists the product catalog, customers and saved quotations.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/mitsumori/internal/models"
)

var (
	// ErrNotFound is wrapped by lookups that match no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is wrapped when a unique field is already taken.
	ErrConflict = errors.New("already exists")
)

// Storage defines product, customer and quotation persistence.
type Storage interface {
	// Products
	UpsertProduct(ctx context.Context, p *models.CatalogEntry) error
	BatchUpsertProducts(ctx context.Context, ps []*models.CatalogEntry) error
	GetProduct(ctx context.Context, id string) (*models.CatalogEntry, error)
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]*models.CatalogEntry, error)
	SetProductEmbedding(ctx context.Context, id string, vec []float32) error

	// Customers
	CreateCustomer(ctx context.Context, c *models.Customer) error
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	ListCustomers(ctx context.Context, salesExecutiveID string) ([]*models.Customer, error)

	// Quotations
	SaveQuotation(ctx context.Context, q *models.SavedQuotation) error
	GetQuotation(ctx context.Context, id string) (*models.SavedQuotation, error)
	ListQuotationsByCustomer(ctx context.Context, customerID string) ([]*models.SavedQuotation, error)
	ListQuotationsBySales(ctx context.Context, salesExecutiveID string) ([]*models.SavedQuotation, error)

	// Stats
	Counts(ctx context.Context) (Counts, error)

	Close() error
}

// Counts is a snapshot of table sizes.
type Counts struct {
	Products         int64 `json:"products"`
	EmbeddedProducts int64 `json:"embedded_products"`
	Customers        int64 `json:"customers"`
	Quotations       int64 `json:"quotations"`
}
