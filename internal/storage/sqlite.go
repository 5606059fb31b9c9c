package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/mitsumori/internal/catalog"
	"github.com/hyperjump/mitsumori/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist. ":memory:" opens a private in-memory database.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func constraint(err error, code sqlite3.ErrNoExtended) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == code
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		item_no TEXT,
		product_id TEXT,
		name TEXT NOT NULL,
		short_text TEXT,
		description TEXT,
		product_group TEXT,
		price REAL NOT NULL DEFAULT 0,
		supplier TEXT,
		store TEXT,
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		tags TEXT,
		text_hash TEXT NOT NULL,
		embedding BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_products_product_id ON products(product_id);

	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		company TEXT,
		sales_executive_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_email ON customers(email);
	CREATE INDEX IF NOT EXISTS idx_customers_sales ON customers(sales_executive_id);

	CREATE TABLE IF NOT EXISTS quotations (
		id TEXT PRIMARY KEY,
		quotation_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		sales_executive_id TEXT NOT NULL,
		status TEXT NOT NULL,
		document TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (customer_id) REFERENCES customers(id)
	);

	CREATE INDEX IF NOT EXISTS idx_quotations_quotation_id ON quotations(quotation_id);
	CREATE INDEX IF NOT EXISTS idx_quotations_customer ON quotations(customer_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_quotations_sales ON quotations(sales_executive_id, created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// textHash fingerprints the text an embedding was computed from.
func textHash(p *models.CatalogEntry) string {
	sum := sha256.Sum256([]byte(catalog.DescriptiveText(p)))
	return hex.EncodeToString(sum[:])
}

func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// blobArg binds an empty embedding as NULL.
func blobArg(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return b
}

func decodeEmbedding(buf []byte) ([]float32, error) {
	if len(buf) == 0 {
		return nil, nil
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("corrupt embedding blob of %d bytes", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec, nil
}

const upsertProductSQL = `
	INSERT INTO products (id, item_no, product_id, name, short_text, description, product_group,
		price, supplier, store, stock_quantity, tags, text_hash, embedding, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		item_no = excluded.item_no,
		product_id = excluded.product_id,
		name = excluded.name,
		short_text = excluded.short_text,
		description = excluded.description,
		product_group = excluded.product_group,
		price = excluded.price,
		supplier = excluded.supplier,
		store = excluded.store,
		stock_quantity = excluded.stock_quantity,
		tags = excluded.tags,
		embedding = CASE
			WHEN excluded.embedding IS NOT NULL THEN excluded.embedding
			WHEN products.text_hash = excluded.text_hash THEN products.embedding
			ELSE NULL
		END,
		text_hash = excluded.text_hash,
		updated_at = excluded.updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsertProduct(ctx context.Context, db execer, p *models.CatalogEntry) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Price < 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return fmt.Errorf("invalid price %v for product %q", p.Price, p.Name)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	tagsJSON, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	_, err = db.ExecContext(ctx, upsertProductSQL,
		p.ID, p.ItemNo, p.ProductID, p.Name, p.ShortText, p.Description, p.Group,
		p.Price, p.Supplier, p.Store, p.StockQuantity, string(tagsJSON), textHash(p),
		blobArg(encodeEmbedding(p.Embedding)), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// UpsertProduct inserts or updates a product. A stored embedding survives the update
// only when the descriptive text is unchanged. An empty ID is assigned a new UUID.
func (s *SQLiteStorage) UpsertProduct(ctx context.Context, p *models.CatalogEntry) error {
	return upsertProduct(ctx, s.db, p)
}

// BatchUpsertProducts upserts products in one transaction.
func (s *SQLiteStorage) BatchUpsertProducts(ctx context.Context, ps []*models.CatalogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range ps {
		if err := upsertProduct(ctx, tx, p); err != nil {
			return fmt.Errorf("upsert %q: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

const productColumns = `id, item_no, product_id, name, short_text, description, product_group,
	price, supplier, store, stock_quantity, tags, embedding, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.CatalogEntry, error) {
	var (
		p        models.CatalogEntry
		itemNo   sql.NullString
		prodID   sql.NullString
		short    sql.NullString
		desc     sql.NullString
		group    sql.NullString
		supplier sql.NullString
		store    sql.NullString
		tags     sql.NullString
		emb      []byte
	)
	if err := row.Scan(&p.ID, &itemNo, &prodID, &p.Name, &short, &desc, &group,
		&p.Price, &supplier, &store, &p.StockQuantity, &tags, &emb, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ItemNo, p.ProductID = itemNo.String, prodID.String
	p.ShortText, p.Description, p.Group = short.String, desc.String, group.String
	p.Supplier, p.Store = supplier.String, store.String
	if tags.String != "" && tags.String != "null" {
		if err := json.Unmarshal([]byte(tags.String), &p.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	vec, err := decodeEmbedding(emb)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", p.ID, err)
	}
	p.Embedding = vec
	return &p, nil
}

// GetProduct returns a product by ID.
func (s *SQLiteStorage) GetProduct(ctx context.Context, id string) (*models.CatalogEntry, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

// DeleteProduct removes a product by ID.
func (s *SQLiteStorage) DeleteProduct(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListProducts returns every product in insertion order, with cached embeddings when present.
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]*models.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CatalogEntry
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetProductEmbedding stores the embedding computed for a product.
func (s *SQLiteStorage) SetProductEmbedding(ctx context.Context, id string, vec []float32) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE products SET embedding = ? WHERE id = ?`, blobArg(encodeEmbedding(vec)), id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateCustomer inserts a customer. Email addresses are unique.
func (s *SQLiteStorage) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, phone, company, sales_executive_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, strings.ToLower(strings.TrimSpace(c.Email)), c.Phone, c.Company, c.SalesExecutiveID, c.CreatedAt,
	)
	if constraint(err, sqlite3.ErrConstraintUnique) {
		return fmt.Errorf("customer email %s: %w", c.Email, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var c models.Customer
	var phone, company sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &phone, &company, &c.SalesExecutiveID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Phone, c.Company = phone.String, company.String
	return &c, nil
}

// GetCustomer returns a customer by ID.
func (s *SQLiteStorage) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	c, err := scanCustomer(s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, company, sales_executive_id, created_at
		 FROM customers WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	return c, err
}

// ListCustomers returns customers ordered by name, limited to one sales executive when
// salesExecutiveID is non-empty.
func (s *SQLiteStorage) ListCustomers(ctx context.Context, salesExecutiveID string) ([]*models.Customer, error) {
	query := `SELECT id, name, email, phone, company, sales_executive_id, created_at FROM customers`
	var args []interface{}
	if salesExecutiveID != "" {
		query += ` WHERE sales_executive_id = ?`
		args = append(args, salesExecutiveID)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveQuotation persists a quotation document. Missing ID and status are filled in.
func (s *SQLiteStorage) SaveQuotation(ctx context.Context, q *models.SavedQuotation) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Status == "" {
		q.Status = models.StatusPending
	}
	q.CreatedAt = time.Now()
	doc, err := json.Marshal(q.Quotation)
	if err != nil {
		return fmt.Errorf("failed to marshal quotation: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quotations (id, quotation_id, customer_id, sales_executive_id, status, document, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Quotation.QuotationID, q.CustomerID, q.SalesExecutiveID, q.Status, string(doc), q.CreatedAt,
	)
	if constraint(err, sqlite3.ErrConstraintForeignKey) {
		return fmt.Errorf("customer %s: %w", q.CustomerID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to save quotation: %w", err)
	}
	return nil
}

const quotationColumns = `id, customer_id, sales_executive_id, status, document, created_at`

func scanQuotation(row rowScanner) (*models.SavedQuotation, error) {
	var q models.SavedQuotation
	var doc string
	if err := row.Scan(&q.ID, &q.CustomerID, &q.SalesExecutiveID, &q.Status, &doc, &q.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(doc), &q.Quotation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quotation %s: %w", q.ID, err)
	}
	return &q, nil
}

// GetQuotation returns a saved quotation by storage ID or by quotation number (QT-...).
func (s *SQLiteStorage) GetQuotation(ctx context.Context, id string) (*models.SavedQuotation, error) {
	q, err := scanQuotation(s.db.QueryRowContext(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE id = ? OR quotation_id = ?
		 ORDER BY created_at DESC LIMIT 1`, id, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quotation %s: %w", id, ErrNotFound)
	}
	return q, err
}

func (s *SQLiteStorage) listQuotations(ctx context.Context, column, value string) ([]*models.SavedQuotation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quotationColumns+` FROM quotations WHERE `+column+` = ? ORDER BY created_at DESC`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.SavedQuotation
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ListQuotationsByCustomer returns a customer's quotations, newest first.
func (s *SQLiteStorage) ListQuotationsByCustomer(ctx context.Context, customerID string) ([]*models.SavedQuotation, error) {
	return s.listQuotations(ctx, "customer_id", customerID)
}

// ListQuotationsBySales returns quotations created by a sales executive, newest first.
func (s *SQLiteStorage) ListQuotationsBySales(ctx context.Context, salesExecutiveID string) ([]*models.SavedQuotation, error) {
	return s.listQuotations(ctx, "sales_executive_id", salesExecutiveID)
}

// Counts returns table sizes.
func (s *SQLiteStorage) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM products),
		(SELECT COUNT(*) FROM products WHERE embedding IS NOT NULL),
		(SELECT COUNT(*) FROM customers),
		(SELECT COUNT(*) FROM quotations)`,
	).Scan(&c.Products, &c.EmbeddedProducts, &c.Customers, &c.Quotations)
	return c, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
