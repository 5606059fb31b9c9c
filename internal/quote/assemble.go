package quote

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// ErrInvalidLineItem is returned for line items with impossible quantities or prices.
var ErrInvalidLineItem = errors.New("invalid line item")

// Defaults used when Config leaves a field empty.
const (
	DefaultCustomerName = "Walk-in Client"
	DefaultTaxRate      = 0.18
	DefaultDiscountRate = 0.0
	DefaultValidity     = "7 days"
	DefaultIDPrefix     = "QT-"
	DateLayout          = "2006-01-02"
)

// DefaultTerms are printed on every quotation.
var DefaultTerms = []string{
	"Quotation valid for 7 days.",
	"Delivery charges may apply.",
	"All items include standard manufacturer warranty.",
}

// Config holds the assembler's defaults.
type Config struct {
	CustomerName string
	TaxRate      float64
	DiscountRate float64
	Validity     string
	IDPrefix     string
	Terms        []string
}

// DefaultConfig returns the standard quotation settings.
func DefaultConfig() Config {
	return Config{
		CustomerName: DefaultCustomerName,
		TaxRate:      DefaultTaxRate,
		DiscountRate: DefaultDiscountRate,
		Validity:     DefaultValidity,
		IDPrefix:     DefaultIDPrefix,
		Terms:        DefaultTerms,
	}
}

// Options override the defaults for a single quotation. Nil rates use the defaults.
type Options struct {
	CustomerName string
	TaxRate      *float64
	DiscountRate *float64
}

// Assembler builds quotations from merged line items.
type Assembler struct {
	cfg   Config
	now   func() time.Time
	newID func() string
}

// NewAssembler returns an assembler; zero-valued Config fields fall back to the defaults.
func NewAssembler(cfg Config) *Assembler {
	if cfg.CustomerName == "" {
		cfg.CustomerName = DefaultCustomerName
	}
	if cfg.Validity == "" {
		cfg.Validity = DefaultValidity
	}
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = DefaultIDPrefix
	}
	if len(cfg.Terms) == 0 {
		cfg.Terms = DefaultTerms
	}
	a := &Assembler{cfg: cfg, now: time.Now}
	a.newID = func() string {
		hex := strings.ReplaceAll(uuid.New().String(), "-", "")
		return a.cfg.IDPrefix + strings.ToUpper(hex[:8])
	}
	return a
}

// Assemble prices items and wraps them in a quotation document. Items are expected
// to be merged already. Amounts are rounded to 2 decimals only in the output.
func (a *Assembler) Assemble(items []models.LineItem, opts Options) (*models.Quotation, error) {
	taxRate := a.cfg.TaxRate
	if opts.TaxRate != nil {
		taxRate = *opts.TaxRate
	}
	discountRate := a.cfg.DiscountRate
	if opts.DiscountRate != nil {
		discountRate = *opts.DiscountRate
	}
	if !utils.IsFinite(taxRate) || !utils.IsFinite(discountRate) || taxRate < 0 || discountRate < 0 {
		return nil, fmt.Errorf("%w: rates must be finite and non-negative (tax %v, discount %v)", ErrInvalidLineItem, taxRate, discountRate)
	}

	formatted := make([]models.LineItem, 0, len(items))
	var subtotal float64
	for i, item := range items {
		if err := validate(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		formatted = append(formatted, models.LineItem{
			ItemNo:          utils.OrDefault(item.ItemNo, Placeholder),
			ProductID:       utils.OrDefault(item.ProductID, Placeholder),
			Product:         item.Product,
			ProductGroup:    utils.OrDefault(item.ProductGroup, Placeholder),
			Supplier:        utils.OrDefault(item.Supplier, Placeholder),
			Store:           utils.OrDefault(item.Store, Placeholder),
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			LineTotal:       item.LineTotal,
			MatchConfidence: item.MatchConfidence,
		})
		subtotal += item.LineTotal
	}

	tax := subtotal * taxRate
	discount := subtotal * discountRate
	grand := subtotal + tax - discount

	customer := strings.TrimSpace(opts.CustomerName)
	if customer == "" {
		customer = a.cfg.CustomerName
	}
	terms := make([]string, len(a.cfg.Terms))
	copy(terms, a.cfg.Terms)

	return &models.Quotation{
		QuotationID:  a.newID(),
		Date:         a.now().Format(DateLayout),
		CustomerName: customer,
		Validity:     a.cfg.Validity,
		Items:        formatted,
		Pricing: models.Pricing{
			Subtotal:       utils.Round2(subtotal),
			TaxRate:        taxRate,
			TaxAmount:      utils.Round2(tax),
			DiscountRate:   discountRate,
			DiscountAmount: utils.Round2(discount),
			GrandTotal:     utils.Round2(grand),
		},
		Terms: terms,
	}, nil
}

func validate(item models.LineItem) error {
	switch {
	case item.Quantity <= 0:
		return fmt.Errorf("%w: quantity %d for %q", ErrInvalidLineItem, item.Quantity, item.Product)
	case !utils.IsFinite(item.UnitPrice) || item.UnitPrice < 0:
		return fmt.Errorf("%w: unit price %v for %q", ErrInvalidLineItem, item.UnitPrice, item.Product)
	case !utils.IsFinite(item.LineTotal) || item.LineTotal < 0:
		return fmt.Errorf("%w: line total %v for %q", ErrInvalidLineItem, item.LineTotal, item.Product)
	case !utils.IsFinite(item.MatchConfidence):
		return fmt.Errorf("%w: confidence %v for %q", ErrInvalidLineItem, item.MatchConfidence, item.Product)
	}
	return nil
}
