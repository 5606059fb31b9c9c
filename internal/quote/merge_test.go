package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hyperjump/mitsumori/internal/models"
)

func TestMergeKeyOf(t *testing.T) {
	tests := []struct {
		name string
		item models.LineItem
		want MergeKey
	}{
		{"product id wins", models.LineItem{ProductID: "CH-100", ItemNo: "1001", Product: "Chair"}, MergeKey{KeyProductID, "CH-100"}},
		{"item no fallback", models.LineItem{ItemNo: "1001", Product: "Chair"}, MergeKey{KeyItemNo, "1001"}},
		{"placeholder ignored", models.LineItem{ProductID: "N/A", ItemNo: "1001", Product: "Chair"}, MergeKey{KeyItemNo, "1001"}},
		{"name fallback", models.LineItem{Product: "Chair"}, MergeKey{KeyName, "Chair"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeKeyOf(tt.item))
		})
	}
}

func TestMerge_SumsQuantitiesAndTotals(t *testing.T) {
	items := []models.LineItem{
		{ProductID: "CH-100", Product: "Ergo Chair", Quantity: 2, UnitPrice: 7900, LineTotal: 15800, MatchConfidence: 0.81},
		{ProductID: "DK-1", Product: "Oak Desk", Quantity: 1, UnitPrice: 15000, LineTotal: 15000},
		{ProductID: "CH-100", Product: "Ergo Chair", Quantity: 2, UnitPrice: 7900, LineTotal: 15800, MatchConfidence: 0.77},
	}
	merged := Merge(items)

	assert.Len(t, merged, 2)
	assert.Equal(t, "CH-100", merged[0].ProductID)
	assert.Equal(t, 4, merged[0].Quantity)
	assert.Equal(t, 31600.0, merged[0].LineTotal)
	assert.Equal(t, 0.81, merged[0].MatchConfidence, "first occurrence is the representative")
	assert.Equal(t, "DK-1", merged[1].ProductID)
	assert.Equal(t, 15800.0, items[0].LineTotal, "input must not be mutated")
}

func TestMerge_KindsDoNotCollide(t *testing.T) {
	items := []models.LineItem{
		{ProductID: "Chair", Quantity: 1, LineTotal: 1},
		{Product: "Chair", Quantity: 1, LineTotal: 1},
	}
	assert.Len(t, Merge(items), 2)
}

func TestMerge_Idempotent(t *testing.T) {
	items := []models.LineItem{
		{ItemNo: "1", Product: "A", Quantity: 1, LineTotal: 10},
		{ItemNo: "2", Product: "B", Quantity: 3, LineTotal: 30},
		{ItemNo: "1", Product: "A", Quantity: 2, LineTotal: 20},
		{Product: "C", Quantity: 1, LineTotal: 5},
	}
	once := Merge(items)
	assert.Equal(t, once, Merge(once))
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil))
}
