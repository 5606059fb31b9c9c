// Package main is the Mitsumori CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/catalog"
	"github.com/hyperjump/mitsumori/internal/cli"
	"github.com/hyperjump/mitsumori/internal/config"
	"github.com/hyperjump/mitsumori/internal/embedding"
	"github.com/hyperjump/mitsumori/internal/gemini"
	"github.com/hyperjump/mitsumori/internal/keyword"
	"github.com/hyperjump/mitsumori/internal/matcher"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/pipeline"
	"github.com/hyperjump/mitsumori/internal/quote"
	"github.com/hyperjump/mitsumori/internal/server"
	"github.com/hyperjump/mitsumori/internal/storage"
	"github.com/hyperjump/mitsumori/internal/vision"
	"github.com/hyperjump/mitsumori/internal/watcher"
	"github.com/hyperjump/mitsumori/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/mitsumori/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, config.yaml in the current
// directory wins if present, and a missing default file falls back to built-in defaults.
// Returns the config and the path that was actually loaded ("" for built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "quote":
		runQuote()
	case "import":
		runImport()
	case "export":
		runExport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("mitsumori version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
		zap.Float64("match_threshold", cfg.Matching.ThresholdOrDefault()),
	)
	if cfg.Gemini.APIKey == "" && (cfg.Embedding.Provider == embedding.ProviderGemini || cfg.Vision.Provider == "gemini") {
		logger.Warn("no Gemini API key configured; set " + config.EnvGeminiAPIKey)
	}

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchSvc := watcher.New(
		cfg.Catalog.ImportDirectories,
		cfg.Catalog.Extensions,
		func(path string) {
			n, err := importCatalog(context.Background(), components.Storage, components.KeywordIndex, path)
			if err != nil {
				logger.Warn("catalog import failed", zap.String("path", path), zap.Error(err))
				return
			}
			logger.Info("Catalog imported", zap.String("path", path), zap.Int("products", n))
		},
		watcher.WithLogger(logger),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Catalog.ImportDirectories) > 0 {
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		watchSvc.SyncExisting()
	}

	srv := server.NewServer(components.Pipeline, components.Storage, components.KeywordIndex, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchSvc.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// argsReorder moves flags (and their values) that appear after the positional arguments
// to the front, since flag.Parse stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// quoteFlags are the quotation overrides shared by analyze and quote.
type quoteFlags struct {
	customer string
	tax      string
	discount string
}

func (q *quoteFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&q.customer, "customer", "", "customer name (default from config)")
	fs.StringVar(&q.tax, "tax-rate", "", "tax rate, e.g. 0.18 (default from config)")
	fs.StringVar(&q.discount, "discount-rate", "", "discount rate, e.g. 0.05 (default from config)")
}

func (q *quoteFlags) options() (quote.Options, error) {
	tax, err := parseRate("tax-rate", q.tax)
	if err != nil {
		return quote.Options{}, err
	}
	discount, err := parseRate("discount-rate", q.discount)
	if err != nil {
		return quote.Options{}, err
	}
	return quote.Options{CustomerName: q.customer, TaxRate: tax, DiscountRate: discount}, nil
}

// parseRate parses an optional rate flag; empty means unset.
func parseRate(name, v string) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	r, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q", name, v)
	}
	return &r, nil
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run the pipeline locally)")
	outputFormat := fs.String("format", "text", "output format: text or json")
	xlsxPath := fs.String("xlsx", "", "also write the quotation to this .xlsx file")
	var qf quoteFlags
	qf.register(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() != 1 {
		fatalf("Usage: mitsumori analyze [flags] <image>")
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	opts, err := qf.options()
	if err != nil {
		fatalf("%v", err)
	}
	image, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatalf("Failed to read image: %v", err)
	}

	var res *pipeline.Result
	if *serverURL != "" {
		res, err = analyzeViaHTTP(*serverURL, filepath.Base(fs.Arg(0)), image, opts)
	} else {
		err = withLocalPipeline(*configPath, func(c *Components) error {
			var runErr error
			res, runErr = c.Pipeline.Analyze(context.Background(), image, opts)
			return runErr
		})
	}
	if err != nil {
		fatalf("Analyze failed: %v", err)
	}
	writeResult(res, format, *xlsxPath)
}

func runQuote() {
	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = run the pipeline locally)")
	outputFormat := fs.String("format", "text", "output format: text or json")
	xlsxPath := fs.String("xlsx", "", "also write the quotation to this .xlsx file")
	var qf quoteFlags
	qf.register(fs)
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() != 1 {
		fatalf("Usage: mitsumori quote [flags] <detections.json>")
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	opts, err := qf.options()
	if err != nil {
		fatalf("%v", err)
	}
	raw, err := readDetections(fs.Arg(0))
	if err != nil {
		fatalf("Failed to read detections: %v", err)
	}

	var res *pipeline.Result
	if *serverURL != "" {
		res, err = previewViaHTTP(*serverURL, raw, opts)
	} else {
		err = withLocalPipeline(*configPath, func(c *Components) error {
			var runErr error
			res, runErr = c.Pipeline.QuoteRaw(context.Background(), raw, opts)
			return runErr
		})
	}
	if err != nil {
		fatalf("Quote failed: %v", err)
	}
	writeResult(res, format, *xlsxPath)
}

func writeResult(res *pipeline.Result, format cli.OutputFormat, xlsxPath string) {
	if err := cli.WriteResult(os.Stdout, res, format); err != nil {
		fatalf("Output failed: %v", err)
	}
	if xlsxPath != "" {
		if err := quote.ExportXLSX(res.Quotation, xlsxPath); err != nil {
			fatalf("Export failed: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", xlsxPath)
	}
}

// readDetections reads a detection list from a JSON file holding either a bare array
// or an object with a "detections" array.
func readDetections(path string) ([]models.RawDetection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Detections []models.RawDetection `json:"detections"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return wrapped.Detections, nil
	}
	var raw []models.RawDetection
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return raw, nil
}

func withLocalPipeline(configPath string, fn func(*Components) error) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	return fn(components)
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() < 1 {
		fatalf("Usage: mitsumori import [flags] <file|dir>...")
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()
	index, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		fatalf("Failed to open keyword index (is the server running?): %v", err)
	}
	defer index.Close()

	total := 0
	for _, path := range fs.Args() {
		n, err := importCatalog(context.Background(), store, index, path)
		if err != nil {
			fatalf("Import %s failed: %v", path, err)
		}
		fmt.Printf("Imported %d products from %s\n", n, path)
		total += n
	}
	if fs.NArg() > 1 {
		fmt.Printf("Imported %d products in total\n", total)
	}
}

// importCatalog loads a catalog file or directory, upserts it in one transaction and
// refreshes the keyword index. index may be nil.
func importCatalog(ctx context.Context, store storage.Storage, index keyword.ProductIndex, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	var entries []*models.CatalogEntry
	if info.IsDir() {
		entries, err = catalog.LoadDir(path)
	} else {
		entries, err = catalog.LoadFile(path)
	}
	if err != nil {
		return 0, err
	}
	if err := store.BatchUpsertProducts(ctx, entries); err != nil {
		return 0, err
	}
	if index != nil {
		if err := index.IndexAll(ctx, entries); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

func runExport() {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	_ = fs.Parse(argsReorder(os.Args[2:]))
	if fs.NArg() != 2 {
		fatalf("Usage: mitsumori export [flags] <quotation-id> <out.xlsx>")
	}
	id, out := fs.Arg(0), fs.Arg(1)

	if *serverURL != "" {
		if err := exportViaHTTP(*serverURL, id, out); err != nil {
			fatalf("Export failed: %v", err)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fatalf("Failed to load config: %v", err)
		}
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			fatalf("Failed to open storage: %v", err)
		}
		defer store.Close()
		saved, err := store.GetQuotation(context.Background(), id)
		if err != nil {
			fatalf("Export failed: %v", err)
		}
		if err := quote.ExportXLSX(&saved.Quotation, out); err != nil {
			fatalf("Export failed: %v", err)
		}
	}
	fmt.Printf("Wrote %s\n", out)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	outputFormat := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var status *cli.Status
	if *serverURL != "" {
		status, err = statusViaHTTP(*serverURL)
	} else {
		status, err = localStatus(*configPath)
	}
	if err != nil {
		fatalf("Status failed: %v", err)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func localStatus(configPath string) (*cli.Status, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	counts, err := store.Counts(context.Background())
	if err != nil {
		return nil, err
	}
	return &cli.Status{
		Products:         counts.Products,
		EmbeddedProducts: counts.EmbeddedProducts,
		Customers:        counts.Customers,
		Quotations:       counts.Quotations,
		Config: &cli.StatusConfig{
			MatchThreshold:    cfg.Matching.ThresholdOrDefault(),
			EmbeddingProvider: cfg.Embedding.Provider,
			EmbeddingModel:    cfg.Embedding.Model,
			VisionProvider:    cfg.Vision.Provider,
			VisionModel:       cfg.Vision.Model,
		},
	}, nil
}

// HTTP client helpers, used when a server is running (avoids the Bleve index lock).

func decodeResponse(resp *http.Response, want int, out interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func analyzeViaHTTP(serverURL, filename string, image []byte, opts quote.Options) (*pipeline.Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(image); err != nil {
		return nil, err
	}
	fields := map[string]string{"customer_name": opts.CustomerName}
	if opts.TaxRate != nil {
		fields["tax_rate"] = strconv.FormatFloat(*opts.TaxRate, 'f', -1, 64)
	}
	if opts.DiscountRate != nil {
		fields["discount_rate"] = strconv.FormatFloat(*opts.DiscountRate, 'f', -1, 64)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/analyze", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var res pipeline.Result
	if err := decodeResponse(resp, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func previewViaHTTP(serverURL string, raw []models.RawDetection, opts quote.Options) (*pipeline.Result, error) {
	body, err := json.Marshal(map[string]interface{}{
		"detections":    raw,
		"customer_name": opts.CustomerName,
		"tax_rate":      opts.TaxRate,
		"discount_rate": opts.DiscountRate,
	})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/quotations/preview", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var res pipeline.Result
	if err := decodeResponse(resp, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func statusViaHTTP(serverURL string) (*cli.Status, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var status cli.Status
	if err := decodeResponse(resp, http.StatusOK, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func exportViaHTTP(serverURL, id, out string) error {
	resp, err := http.Get(serverURL + "/api/v1/quotations/" + url.PathEscape(id) + "/xlsx")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Components holds the wired pipeline and its backing stores.
type Components struct {
	Storage      *storage.SQLiteStorage
	Embedder     embedding.Embedder
	KeywordIndex *keyword.BleveIndex
	Pipeline     *pipeline.Pipeline
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func embeddingOptions(cfg *config.Config, client *gemini.Client) embedding.Options {
	return embedding.Options{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		ModelPath:  cfg.Embedding.ModelPath,
		Dimensions: cfg.Embedding.Dimensions,
		MaxTokens:  cfg.Embedding.MaxTokens,
		CacheSize:  cfg.Embedding.CacheSize,
		Client:     client,
	}
}

func quoteConfig(cfg *config.Config) quote.Config {
	qc := quote.Config{
		CustomerName: cfg.Quotation.CustomerName,
		TaxRate:      quote.DefaultTaxRate,
		DiscountRate: cfg.Quotation.DiscountRate,
		Validity:     cfg.Quotation.Validity,
		IDPrefix:     cfg.Quotation.IDPrefix,
		Terms:        cfg.Quotation.Terms,
	}
	if cfg.Quotation.TaxRate != nil {
		qc.TaxRate = *cfg.Quotation.TaxRate
	}
	return qc
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	client := gemini.NewClient(cfg.Gemini.BaseURL, cfg.Gemini.APIKey, cfg.Gemini.Timeout())
	c.Embedder, err = embedding.New(embeddingOptions(cfg, client))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	c.KeywordIndex, err = keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	var detector vision.Detector
	if cfg.Vision.Provider == "gemini" {
		detector = vision.NewGeminiDetector(client, cfg.Vision.Model, logger)
	}

	cache := catalog.NewEmbeddingCache(store, c.Embedder,
		catalog.WithLogger(logger),
		catalog.WithConcurrency(cfg.Matching.Concurrency))
	m := matcher.New(c.Embedder, cache, cfg.Matching.ThresholdOrDefault(), logger)
	c.Pipeline = pipeline.New(detector, cache, m, quote.NewAssembler(quoteConfig(cfg)), logger)

	logger.Info("components initialized",
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("vision_provider", cfg.Vision.Provider),
		zap.Int("dimensions", c.Embedder.Dimensions()))
	return c, nil
}

func printUsage() {
	fmt.Println(`mitsumori - Photo-to-quotation furniture estimator

Usage:
  mitsumori server [flags]                          Start the HTTP server
  mitsumori analyze [flags] <image>                 Detect furniture in a photo and quote it
  mitsumori quote [flags] <detections.json>         Quote a detection list without vision
  mitsumori import [flags] <file|dir>...            Import catalog files (.yaml, .yml, .json, .xlsx)
  mitsumori export [flags] <quotation-id> <out.xlsx> Export a saved quotation
  mitsumori status [flags]                          Show catalog and matching status
  mitsumori version                                 Show version
  mitsumori help                                    Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/mitsumori/config.yaml)
  --debug            Enable debug logging

Analyze / Quote Flags:
  --server string         Server URL (default: http://localhost:8080). Use --server "" to run locally.
  --config string         Config file path (local mode)
  --customer string       Customer name
  --tax-rate float        Tax rate override, e.g. 0.18
  --discount-rate float   Discount rate override, e.g. 0.05
  --format string         Output format: text or json (default: text)
  --xlsx string           Also write the quotation to an .xlsx file

Import Flags:
  --config string    Config file path. Stop the server first, or drop files into
                     catalog.import_directories while it runs.

Export / Status Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --config string    Config file path (direct mode)
  --format string    Output format for status: text or json

Environment:
  GEMINI_API_KEY              Generative Language API key (also read from .env)
  MITSUMORI_DB_PATH           Overrides storage.database_path
  MITSUMORI_MATCH_THRESHOLD   Overrides matching.threshold

Examples:
  mitsumori server
  mitsumori import ./catalog/products.xlsx
  mitsumori analyze --customer "Initech" --xlsx out/quote.xlsx office.jpg
  mitsumori quote --server "" --format json detections.json
  mitsumori export QT-1A2B3C4D quote.xlsx
  mitsumori status --format json`)
}
