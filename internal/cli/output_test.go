package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		Quotation: &models.Quotation{
			QuotationID:  "QT-1A2B3C4D",
			Date:         "2025-01-02",
			CustomerName: "Walk-in Client",
			Validity:     "7 days",
			Items: []models.LineItem{{
				ItemNo: "1001", ProductID: "CH-100", Product: "Ergo Chair", ProductGroup: "Chairs",
				Quantity: 4, UnitPrice: 7900, LineTotal: 31600, MatchConfidence: 0.812,
			}},
			Pricing: models.Pricing{Subtotal: 31600, TaxRate: 0.18, TaxAmount: 5688, GrandTotal: 37288},
			Terms:   []string{"Prices include delivery."},
		},
		Stats: pipeline.Stats{Detections: 3, Accepted: 2, Rejected: 1, LineItems: 1, CatalogSize: 10, Duration: 42 * time.Millisecond},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), OutputJSON); err != nil {
		t.Fatalf("WriteResult(json): %v", err)
	}
	var decoded pipeline.Result
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Quotation.QuotationID != "QT-1A2B3C4D" || decoded.Stats.Accepted != 2 {
		t.Errorf("decoded %+v", decoded)
	}
}

func TestWriteResult_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResult(&buf, sampleResult(), OutputText); err != nil {
		t.Fatalf("WriteResult(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"QT-1A2B3C4D", "Walk-in Client", "Ergo Chair", "31600.00", "Tax (18%)", "37288.00",
		"Prices include delivery.", "3 detected, 2 matched, 1 below threshold", "42ms"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Contains(out, "Discount") {
		t.Errorf("zero discount should be omitted:\n%s", out)
	}
}

func TestWriteQuotation_textEmpty(t *testing.T) {
	var buf bytes.Buffer
	q := &models.Quotation{QuotationID: "QT-00000001", Pricing: models.Pricing{DiscountRate: 0.05}}
	if err := WriteQuotation(&buf, q, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "No catalog items matched.") || !strings.Contains(out, "Discount (5%)") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestWriteStatus(t *testing.T) {
	indexed := uint64(7)
	s := &Status{Products: 8, EmbeddedProducts: 5, IndexedProducts: &indexed, Quotations: 2,
		Config: &StatusConfig{MatchThreshold: 0.5, EmbeddingProvider: "gemini", EmbeddingModel: "text-embedding-004"}}

	var buf bytes.Buffer
	if err := WriteStatus(&buf, s, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"8 (5 embedded)", "Indexed:     7", "Threshold:   0.50", "gemini (text-embedding-004)"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("status text missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, s, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded Status
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.IndexedProducts == nil || *decoded.IndexedProducts != 7 || decoded.Config.MatchThreshold != 0.5 {
		t.Errorf("decoded %+v", decoded)
	}
}
