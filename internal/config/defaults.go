package config

// DefaultThreshold is the cosine score a catalog match must strictly exceed.
const DefaultThreshold = 0.50

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/mitsumori/data/db/mitsumori.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/mitsumori/data/indices/products.bleve"
	}
	if cfg.Gemini.TimeoutSeconds == 0 {
		cfg.Gemini.TimeoutSeconds = 60
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "gemini"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-004"
	}
	if cfg.Embedding.Dimensions == 0 {
		if cfg.Embedding.Provider == "gemini" {
			cfg.Embedding.Dimensions = 768
		} else {
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}
	if cfg.Vision.Provider == "" {
		cfg.Vision.Provider = "gemini"
	}
	if cfg.Vision.Model == "" {
		cfg.Vision.Model = "gemini-2.5-flash"
	}
	if cfg.Matching.Threshold == nil {
		t := DefaultThreshold
		cfg.Matching.Threshold = &t
	}
	if cfg.Matching.Concurrency == 0 {
		cfg.Matching.Concurrency = 4
	}
	if cfg.Quotation.CustomerName == "" {
		cfg.Quotation.CustomerName = "Walk-in Client"
	}
	if cfg.Quotation.TaxRate == nil {
		r := 0.18
		cfg.Quotation.TaxRate = &r
	}
	if cfg.Quotation.Validity == "" {
		cfg.Quotation.Validity = "7 days"
	}
	if cfg.Quotation.IDPrefix == "" {
		cfg.Quotation.IDPrefix = "QT-"
	}
	if cfg.Catalog.Extensions == nil {
		cfg.Catalog.Extensions = []string{".yaml", ".yml", ".json", ".xlsx"}
	}
}
