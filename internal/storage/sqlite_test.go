package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/mitsumori/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStorage_ProductCRUD(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStorage(filepath.Join(dir, "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	p := &models.CatalogEntry{
		ItemNo:    "1001",
		ProductID: "CH-100",
		Name:      "Ergo Chair",
		Group:     "Chairs",
		Price:     7900,
		Tags:      []string{"black", "mesh"},
	}
	if err := store.UpsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatal("ID and CreatedAt should be set")
	}

	got, err := store.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Ergo Chair" || got.Price != 7900 || len(got.Tags) != 2 || got.HasEmbedding() {
		t.Errorf("got %+v", got)
	}

	if err := store.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteStorage_UpsertValidation(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	if err := store.UpsertProduct(ctx, &models.CatalogEntry{Price: 1}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := store.UpsertProduct(ctx, &models.CatalogEntry{Name: "Chair", Price: -5}); err == nil {
		t.Error("expected error for negative price")
	}
}

func TestSQLiteStorage_EmbeddingLifecycle(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	p := &models.CatalogEntry{ID: "p1", Name: "Oak Desk", Description: "solid oak", Price: 15000}
	if err := store.UpsertProduct(ctx, p); err != nil {
		t.Fatal(err)
	}
	vec := []float32{0.25, -0.5, 1}
	if err := store.SetProductEmbedding(ctx, "p1", vec); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetProduct(ctx, "p1")
	if len(got.Embedding) != 3 || got.Embedding[1] != -0.5 {
		t.Fatalf("embedding not round-tripped: %v", got.Embedding)
	}

	// price change keeps the embedding
	got.Price = 14000
	got.Embedding = nil
	if err := store.UpsertProduct(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetProduct(ctx, "p1")
	if !got.HasEmbedding() {
		t.Error("embedding should survive a price-only update")
	}

	// description change invalidates it
	got.Description = "solid walnut"
	got.Embedding = nil
	if err := store.UpsertProduct(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetProduct(ctx, "p1")
	if got.HasEmbedding() {
		t.Error("embedding should be cleared when descriptive text changes")
	}

	if err := store.SetProductEmbedding(ctx, "missing", vec); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_ListProductsOrder(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	batch := []*models.CatalogEntry{
		{ID: "b", Name: "Desk", Price: 2},
		{ID: "a", Name: "Chair", Price: 1},
		{ID: "c", Name: "Plant", Price: 3},
	}
	if err := store.BatchUpsertProducts(ctx, batch); err != nil {
		t.Fatal(err)
	}
	// re-upserting keeps the original position
	if err := store.UpsertProduct(ctx, &models.CatalogEntry{ID: "b", Name: "Desk", Price: 5}); err != nil {
		t.Fatal(err)
	}
	list, err := store.ListProducts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d products", len(list))
	}
	for i, id := range []string{"b", "a", "c"} {
		if list[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, list[i].ID, id)
		}
	}
	if list[0].Price != 5 {
		t.Errorf("price not updated: %v", list[0].Price)
	}
}

func TestSQLiteStorage_BatchRollsBack(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	err := store.BatchUpsertProducts(ctx, []*models.CatalogEntry{
		{ID: "ok", Name: "Chair", Price: 1},
		{ID: "bad", Name: "", Price: 1},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	list, _ := store.ListProducts(ctx)
	if len(list) != 0 {
		t.Errorf("batch should roll back, found %d products", len(list))
	}
}

func TestSQLiteStorage_Customers(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	a := &models.Customer{Name: "Initech", Email: "Ops@Initech.example", SalesExecutiveID: "s1"}
	b := &models.Customer{Name: "Acme", Email: "buy@acme.example", SalesExecutiveID: "s2"}
	for _, c := range []*models.Customer{a, b} {
		if err := store.CreateCustomer(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.CreateCustomer(ctx, &models.Customer{Name: "Dup", Email: "ops@initech.example", SalesExecutiveID: "s1"}); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate email should be rejected with ErrConflict, got %v", err)
	}

	got, err := store.GetCustomer(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "ops@initech.example" {
		t.Errorf("email should be normalized, got %s", got.Email)
	}

	all, _ := store.ListCustomers(ctx, "")
	if len(all) != 2 || all[0].Name != "Acme" {
		t.Errorf("ListCustomers all = %+v", all)
	}
	mine, _ := store.ListCustomers(ctx, "s1")
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Errorf("ListCustomers s1 = %+v", mine)
	}

	if _, err := store.GetCustomer(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_Quotations(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	cust := &models.Customer{Name: "Initech", Email: "ops@initech.example", SalesExecutiveID: "s1"}
	if err := store.CreateCustomer(ctx, cust); err != nil {
		t.Fatal(err)
	}
	saved := &models.SavedQuotation{
		Quotation: models.Quotation{
			QuotationID:  "QT-ABCDEF12",
			CustomerName: "Initech",
			Items:        []models.LineItem{{Product: "Ergo Chair", Quantity: 4, UnitPrice: 7900, LineTotal: 31600}},
			Pricing:      models.Pricing{Subtotal: 31600, GrandTotal: 37288},
		},
		CustomerID:       cust.ID,
		SalesExecutiveID: "s1",
	}
	if err := store.SaveQuotation(ctx, saved); err != nil {
		t.Fatal(err)
	}
	if saved.ID == "" || saved.Status != models.StatusPending {
		t.Errorf("defaults not applied: %+v", saved)
	}

	byID, err := store.GetQuotation(ctx, saved.ID)
	if err != nil {
		t.Fatal(err)
	}
	byNumber, err := store.GetQuotation(ctx, "QT-ABCDEF12")
	if err != nil {
		t.Fatal(err)
	}
	if byID.ID != byNumber.ID || byID.Quotation.Items[0].Quantity != 4 || byID.Quotation.Pricing.GrandTotal != 37288 {
		t.Errorf("got %+v", byID)
	}

	forCustomer, _ := store.ListQuotationsByCustomer(ctx, cust.ID)
	forSales, _ := store.ListQuotationsBySales(ctx, "s1")
	forOther, _ := store.ListQuotationsBySales(ctx, "s2")
	if len(forCustomer) != 1 || len(forSales) != 1 || len(forOther) != 0 {
		t.Errorf("lists: customer=%d sales=%d other=%d", len(forCustomer), len(forSales), len(forOther))
	}

	if _, err := store.GetQuotation(ctx, "QT-00000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	orphan := &models.SavedQuotation{CustomerID: "ghost", SalesExecutiveID: "s1"}
	if err := store.SaveQuotation(ctx, orphan); !errors.Is(err, ErrNotFound) {
		t.Errorf("saving against an unknown customer should fail with ErrNotFound, got %v", err)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	_ = store.UpsertProduct(ctx, &models.CatalogEntry{ID: "p1", Name: "Chair", Price: 1})
	_ = store.UpsertProduct(ctx, &models.CatalogEntry{ID: "p2", Name: "Desk", Price: 2})
	_ = store.SetProductEmbedding(ctx, "p1", []float32{1})

	c, err := store.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if c.Products != 2 || c.EmbeddedProducts != 1 || c.Customers != 0 || c.Quotations != 0 {
		t.Errorf("got %+v", c)
	}
}

func TestEmbeddingCodec(t *testing.T) {
	vec := []float32{1.5, -2, 0}
	got, err := decodeEmbedding(encodeEmbedding(vec))
	if err != nil {
		t.Fatal(err)
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Fatalf("got %v", got)
		}
	}
	if _, err := decodeEmbedding([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
	if v, _ := decodeEmbedding(nil); v != nil {
		t.Error("nil blob should decode to nil")
	}
}
