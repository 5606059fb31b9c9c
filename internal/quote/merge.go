// Package quote merges matched line items and assembles priced quotations.
package quote

import (
	"strings"

	"github.com/hyperjump/mitsumori/internal/models"
)

// KeyKind says which line-item field a MergeKey was taken from.
type KeyKind int

const (
	KeyProductID KeyKind = iota
	KeyItemNo
	KeyName
)

func (k KeyKind) String() string {
	switch k {
	case KeyProductID:
		return "product_id"
	case KeyItemNo:
		return "item_no"
	default:
		return "name"
	}
}

// MergeKey identifies line items that refer to the same product. Keys of different
// kinds never collide, so a product ID that happens to equal a name stays distinct.
type MergeKey struct {
	Kind  KeyKind
	Value string
}

// Placeholder marks a missing descriptive field on an output line item.
const Placeholder = "N/A"

func present(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != Placeholder
}

// MergeKeyOf returns the first present of product ID, item number and product name.
func MergeKeyOf(item models.LineItem) MergeKey {
	switch {
	case present(item.ProductID):
		return MergeKey{Kind: KeyProductID, Value: item.ProductID}
	case present(item.ItemNo):
		return MergeKey{Kind: KeyItemNo, Value: item.ItemNo}
	default:
		return MergeKey{Kind: KeyName, Value: item.Product}
	}
}

// Merge combines items sharing a MergeKey. The first occurrence is kept and later
// ones add their quantity and line total to it. Output follows first appearance and
// merging an already merged list returns it unchanged.
func Merge(items []models.LineItem) []models.LineItem {
	index := make(map[MergeKey]int, len(items))
	out := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		key := MergeKeyOf(item)
		if i, ok := index[key]; ok {
			out[i].Quantity += item.Quantity
			out[i].LineTotal += item.LineTotal
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}
