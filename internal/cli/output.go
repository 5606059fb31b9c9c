// Package cli formats quotations and status for the mitsumori command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/pipeline"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// Status is the shape of GET /api/v1/status and of the local status command.
type Status struct {
	Products         int64         `json:"products"`
	EmbeddedProducts int64         `json:"embedded_products"`
	IndexedProducts  *uint64       `json:"indexed_products,omitempty"`
	Customers        int64         `json:"customers"`
	Quotations       int64         `json:"quotations"`
	Config           *StatusConfig `json:"config,omitempty"`
}

// StatusConfig is the matching configuration reported by status.
type StatusConfig struct {
	MatchThreshold    float64 `json:"match_threshold"`
	EmbeddingProvider string  `json:"embedding_provider"`
	EmbeddingModel    string  `json:"embedding_model"`
	VisionProvider    string  `json:"vision_provider"`
	VisionModel       string  `json:"vision_model"`
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteResult writes a pipeline result: the quotation followed by a one-line summary.
func WriteResult(w io.Writer, res *pipeline.Result, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, res)
	}
	writeQuotationText(w, res.Quotation)
	s := res.Stats
	fmt.Fprintf(w, "\n%d detected, %d matched, %d below threshold; %d catalog entries (%d embedded this run) in %dms\n",
		s.Detections, s.Accepted, s.Rejected, s.CatalogSize, s.EmbeddingsComputed, s.Duration.Milliseconds())
	return nil
}

// WriteQuotation writes a quotation in the given format.
func WriteQuotation(w io.Writer, q *models.Quotation, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, q)
	}
	writeQuotationText(w, q)
	return nil
}

func writeQuotationText(w io.Writer, q *models.Quotation) {
	fmt.Fprintf(w, "Quotation %s  (%s)\n", q.QuotationID, q.Date)
	fmt.Fprintf(w, "Customer: %s\n", q.CustomerName)
	fmt.Fprintf(w, "Valid for: %s\n", q.Validity)
	fmt.Fprintln(w, strings.Repeat("─", 72))
	if len(q.Items) == 0 {
		fmt.Fprintln(w, "No catalog items matched.")
	}
	for i, it := range q.Items {
		fmt.Fprintf(w, "%2d. %-32s %4d x %10.2f = %12.2f\n",
			i+1, utils.Truncate(it.Product, 29), it.Quantity, it.UnitPrice, it.LineTotal)
		fmt.Fprintf(w, "    %s / %s  %s  conf %.3f\n", it.ItemNo, it.ProductID, it.ProductGroup, it.MatchConfidence)
	}
	fmt.Fprintln(w, strings.Repeat("─", 72))
	p := q.Pricing
	fmt.Fprintf(w, "%-40s %31.2f\n", "Subtotal", p.Subtotal)
	fmt.Fprintf(w, "%-40s %31.2f\n", fmt.Sprintf("Tax (%g%%)", utils.Round(p.TaxRate*100, 4)), p.TaxAmount)
	if p.DiscountAmount != 0 || p.DiscountRate != 0 {
		fmt.Fprintf(w, "%-40s %31.2f\n", fmt.Sprintf("Discount (%g%%)", utils.Round(p.DiscountRate*100, 4)), -p.DiscountAmount)
	}
	fmt.Fprintf(w, "%-40s %31.2f\n", "Grand total", p.GrandTotal)
	if len(q.Terms) > 0 {
		fmt.Fprintln(w, "\nTerms:")
		for _, t := range q.Terms {
			fmt.Fprintf(w, "  - %s\n", t)
		}
	}
}

// WriteStatus writes catalog and matching status.
func WriteStatus(w io.Writer, s *Status, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, s)
	}
	fmt.Fprintf(w, "Products:    %d (%d embedded)\n", s.Products, s.EmbeddedProducts)
	if s.IndexedProducts != nil {
		fmt.Fprintf(w, "Indexed:     %d\n", *s.IndexedProducts)
	}
	fmt.Fprintf(w, "Customers:   %d\n", s.Customers)
	fmt.Fprintf(w, "Quotations:  %d\n", s.Quotations)
	if c := s.Config; c != nil {
		fmt.Fprintf(w, "Threshold:   %.2f\n", c.MatchThreshold)
		fmt.Fprintf(w, "Embedding:   %s (%s)\n", c.EmbeddingProvider, c.EmbeddingModel)
		fmt.Fprintf(w, "Vision:      %s (%s)\n", c.VisionProvider, c.VisionModel)
	}
	return nil
}
