package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/mitsumori/internal/models"
)

// DefaultExtensions are the catalog file types LoadFile understands.
var DefaultExtensions = []string{".yaml", ".yml", ".json", ".xlsx"}

// Supported reports whether path has an extension LoadFile can read.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range DefaultExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadFile reads catalog entries from a YAML, JSON or XLSX file. Entries without an
// ID get a stable one derived from their product ID, item number or name.
func LoadFile(path string) ([]*models.CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var entries []*models.CatalogEntry
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		entries, err = parseYAML(data)
	case ".json":
		entries, err = parseJSON(data)
	case ".xlsx":
		entries, err = parseXLSX(data)
	default:
		return nil, fmt.Errorf("unsupported catalog file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("parse %s: entry %d has no product name", filepath.Base(path), i)
		}
		if e.Price < 0 {
			return nil, fmt.Errorf("parse %s: entry %d (%s) has negative price", filepath.Base(path), i, e.Name)
		}
		if e.ID == "" {
			e.ID = StableID(e)
		}
	}
	return entries, nil
}

// LoadDir loads every supported file directly inside dir, in name order.
func LoadDir(dir string) ([]*models.CatalogEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}
	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.IsDir() && Supported(de.Name()) {
			names = append(names, de.Name())
		}
	}
	sort.Strings(names)
	var all []*models.CatalogEntry
	for _, name := range names {
		entries, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	return all, nil
}

// StableID derives a deterministic ID so re-importing a file updates rather than duplicates.
func StableID(e *models.CatalogEntry) string {
	key := e.ProductID
	if key == "" {
		key = e.ItemNo
	}
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(e.Name))
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("mitsumori/product/"+key)).String()
}

type catalogDoc struct {
	Products []*models.CatalogEntry `json:"products" yaml:"products"`
}

func parseYAML(data []byte) ([]*models.CatalogEntry, error) {
	var doc catalogDoc
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Products) > 0 {
		return doc.Products, nil
	}
	var list []*models.CatalogEntry
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func parseJSON(data []byte) ([]*models.CatalogEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var doc catalogDoc
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, err
		}
		return doc.Products, nil
	}
	var list []*models.CatalogEntry
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// xlsxColumns maps normalized header names to entry setters.
var xlsxColumns = map[string]func(e *models.CatalogEntry, v string) error{
	"id":           func(e *models.CatalogEntry, v string) error { e.ID = v; return nil },
	"itemno":       func(e *models.CatalogEntry, v string) error { e.ItemNo = v; return nil },
	"productid":    func(e *models.CatalogEntry, v string) error { e.ProductID = v; return nil },
	"product":      func(e *models.CatalogEntry, v string) error { e.Name = v; return nil },
	"name":         func(e *models.CatalogEntry, v string) error { e.Name = v; return nil },
	"shorttext":    func(e *models.CatalogEntry, v string) error { e.ShortText = v; return nil },
	"description":  func(e *models.CatalogEntry, v string) error { e.Description = v; return nil },
	"productgroup": func(e *models.CatalogEntry, v string) error { e.Group = v; return nil },
	"group":        func(e *models.CatalogEntry, v string) error { e.Group = v; return nil },
	"supplier":     func(e *models.CatalogEntry, v string) error { e.Supplier = v; return nil },
	"store":        func(e *models.CatalogEntry, v string) error { e.Store = v; return nil },
	"tags":         func(e *models.CatalogEntry, v string) error { e.Tags = splitTags(v); return nil },
	"price": func(e *models.CatalogEntry, v string) error {
		p, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
		if err != nil {
			return fmt.Errorf("price %q: %w", v, err)
		}
		e.Price = p
		return nil
	},
	"stockquantity": func(e *models.CatalogEntry, v string) error {
		q, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("stock quantity %q: %w", v, err)
		}
		e.StockQuantity = q
		return nil
	},
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

func splitTags(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

// parseXLSX reads the first sheet; row 1 is the header.
func parseXLSX(data []byte) ([]*models.CatalogEntry, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	setters := make([]func(*models.CatalogEntry, string) error, len(rows[0]))
	known := 0
	for i, h := range rows[0] {
		if set, ok := xlsxColumns[normalizeHeader(h)]; ok {
			setters[i] = set
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("sheet %q has no recognizable header row", sheets[0])
	}

	var entries []*models.CatalogEntry
	for r, row := range rows[1:] {
		e := &models.CatalogEntry{}
		blank := true
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if i >= len(setters) || setters[i] == nil || cell == "" {
				continue
			}
			blank = false
			if err := setters[i](e, cell); err != nil {
				return nil, fmt.Errorf("row %d: %w", r+2, err)
			}
		}
		if !blank {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
