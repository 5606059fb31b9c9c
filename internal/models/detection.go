package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidDetection is returned when an upstream detection record is malformed.
var ErrInvalidDetection = errors.New("invalid detection")

// Detection is a validated candidate item extracted from an image.
type Detection struct {
	ItemName   string `json:"item_name"`
	Quantity   int    `json:"quantity"`
	Attributes string `json:"attributes,omitempty"`
}

// RawDetection is a detection record as produced by the vision adapter, before validation.
// Pointer fields distinguish a missing value from a zero value.
type RawDetection struct {
	ItemName   *string  `json:"item_name"`
	Quantity   *float64 `json:"quantity"`
	Attributes *string  `json:"attributes,omitempty"`
}

// Validate converts r into a Detection. The item name must be non-blank and the
// quantity a positive whole number.
func (r RawDetection) Validate() (Detection, error) {
	if r.ItemName == nil || strings.TrimSpace(*r.ItemName) == "" {
		return Detection{}, fmt.Errorf("%w: item_name is required", ErrInvalidDetection)
	}
	if r.Quantity == nil {
		return Detection{}, fmt.Errorf("%w: quantity is required for %q", ErrInvalidDetection, *r.ItemName)
	}
	q := *r.Quantity
	if math.IsNaN(q) || math.IsInf(q, 0) || q != math.Trunc(q) || q < 1 || q > math.MaxInt32 {
		return Detection{}, fmt.Errorf("%w: quantity must be a positive integer, got %v for %q", ErrInvalidDetection, q, *r.ItemName)
	}
	d := Detection{ItemName: strings.TrimSpace(*r.ItemName), Quantity: int(q)}
	if r.Attributes != nil {
		d.Attributes = strings.TrimSpace(*r.Attributes)
	}
	return d, nil
}

// ValidateDetections validates every record and fails on the first malformed one.
func ValidateDetections(raw []RawDetection) ([]Detection, error) {
	out := make([]Detection, 0, len(raw))
	for i, r := range raw {
		d, err := r.Validate()
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// MatchResult is the outcome of matching one detection against the catalog.
// Entry is nil only when the catalog was empty.
type MatchResult struct {
	Detection Detection
	Entry     *CatalogEntry
	Score     float64
	Accepted  bool
}
