package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/mitsumori/internal/catalog"
	"github.com/hyperjump/mitsumori/internal/embedding"
	"github.com/hyperjump/mitsumori/internal/gemini"
	"github.com/hyperjump/mitsumori/internal/keyword"
	"github.com/hyperjump/mitsumori/internal/models"
	"github.com/hyperjump/mitsumori/internal/pipeline"
	"github.com/hyperjump/mitsumori/internal/quote"
	"github.com/hyperjump/mitsumori/internal/storage"
	"github.com/hyperjump/mitsumori/internal/vector"
	"github.com/hyperjump/mitsumori/internal/vision"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type previewRequest struct {
	Detections   []models.RawDetection `json:"detections"`
	CustomerName string                `json:"customer_name"`
	TaxRate      *float64              `json:"tax_rate"`
	DiscountRate *float64              `json:"discount_rate"`
}

type saveQuotationRequest struct {
	CustomerID string            `json:"customer_id"`
	Quotation  *models.Quotation `json:"quotation"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.storage.Counts(r.Context())
	if err != nil {
		s.logger.Error("status: counts failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"products":          counts.Products,
		"embedded_products": counts.EmbeddedProducts,
		"customers":         counts.Customers,
		"quotations":        counts.Quotations,
	}
	if s.index != nil {
		if n, err := s.index.DocCount(); err == nil {
			resp["indexed_products"] = n
		}
	}
	if s.config != nil {
		resp["config"] = map[string]interface{}{
			"match_threshold":    s.config.Matching.ThresholdOrDefault(),
			"embedding_provider": s.config.Embedding.Provider,
			"embedding_model":    s.config.Embedding.Model,
			"vision_provider":    s.config.Vision.Provider,
			"vision_model":       s.config.Vision.Model,
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(image) == 0 {
		respondError(w, http.StatusBadRequest, "file is empty")
		return
	}
	opts, err := formOptions(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("analyze request", zap.String("filename", header.Filename), zap.Int("bytes", len(image)))
	res, err := s.pipeline.Analyze(r.Context(), image, opts)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func formOptions(r *http.Request) (quote.Options, error) {
	opts := quote.Options{CustomerName: r.FormValue("customer_name")}
	for _, f := range []struct {
		name string
		dst  **float64
	}{
		{"tax_rate", &opts.TaxRate},
		{"discount_rate", &opts.DiscountRate},
	} {
		v := strings.TrimSpace(r.FormValue(f.name))
		if v == "" {
			continue
		}
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid %s %q", f.name, v)
		}
		*f.dst = &rate
	}
	return opts, nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	opts := quote.Options{CustomerName: req.CustomerName, TaxRate: req.TaxRate, DiscountRate: req.DiscountRate}
	res, err := s.pipeline.QuoteRaw(r.Context(), req.Detections, opts)
	if err != nil {
		s.respondPipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSaveQuotation(w http.ResponseWriter, r *http.Request) {
	var req saveQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CustomerID == "" || req.Quotation == nil || req.Quotation.QuotationID == "" {
		respondError(w, http.StatusBadRequest, "customer_id and quotation.quotation_id are required")
		return
	}
	ctx := r.Context()
	if _, err := s.storage.GetCustomer(ctx, req.CustomerID); err != nil {
		s.respondStorageError(w, err)
		return
	}
	saved := &models.SavedQuotation{
		Quotation:        *req.Quotation,
		CustomerID:       req.CustomerID,
		SalesExecutiveID: IdentityFrom(ctx).UserID,
		Status:           models.StatusPending,
	}
	if err := s.storage.SaveQuotation(ctx, saved); err != nil {
		s.respondStorageError(w, err)
		return
	}
	s.logger.Info("Quotation saved",
		zap.String("id", saved.ID),
		zap.String("quotation_id", saved.Quotation.QuotationID),
		zap.String("customer_id", saved.CustomerID))
	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := s.storage.GetQuotation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleExportQuotation(w http.ResponseWriter, r *http.Request) {
	q, err := s.storage.GetQuotation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStorageError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", q.Quotation.QuotationID+".xlsx"))
	if err := quote.WriteXLSX(&q.Quotation, w); err != nil {
		s.logger.Error("xlsx export failed", zap.String("id", q.ID), zap.Error(err))
	}
}

func (s *Server) handleListCustomerQuotations(w http.ResponseWriter, r *http.Request) {
	list, err := s.storage.ListQuotationsByCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"quotations": orEmpty(list)})
}

func (s *Server) handleListSalesQuotations(w http.ResponseWriter, r *http.Request) {
	salesID := chi.URLParam(r, "id")
	if salesID != IdentityFrom(r.Context()).UserID {
		respondError(w, http.StatusForbidden, "sales executives can only list their own quotations")
		return
	}
	list, err := s.storage.ListQuotationsBySales(r.Context(), salesID)
	if err != nil {
		s.respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"quotations": orEmpty(list)})
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c models.Customer
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	if c.Name == "" || !strings.Contains(c.Email, "@") {
		respondError(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}
	c.ID = ""
	c.SalesExecutiveID = IdentityFrom(r.Context()).UserID
	if err := s.storage.CreateCustomer(r.Context(), &c); err != nil {
		s.respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	list, err := s.storage.ListCustomers(r.Context(), r.URL.Query().Get("sales_id"))
	if err != nil {
		s.respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"customers": orEmpty(list)})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" || s.index == nil {
		list, err := s.storage.ListProducts(ctx)
		if err != nil {
			s.respondStorageError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"products": orEmpty(list)})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	opts := &keyword.SearchOptions{Fuzzy: r.URL.Query().Get("fuzzy") == "true"}
	hits, err := s.index.Search(ctx, query, limit, opts)
	if err != nil {
		s.logger.Error("product search failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	products := make([]*models.CatalogEntry, 0, len(hits))
	for _, hit := range hits {
		p, err := s.storage.GetProduct(ctx, hit.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			s.respondStorageError(w, err)
			return
		}
		products = append(products, p)
	}
	resp := map[string]interface{}{"query": query, "products": products}
	if len(products) == 0 && s.suggester != nil {
		if suggestion, err := s.suggester.Suggest(query); err == nil && suggestion != "" {
			resp["suggestion"] = suggestion
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	var p models.CatalogEntry
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || p.Price < 0 {
		respondError(w, http.StatusBadRequest, "product name is required and price must be non-negative")
		return
	}
	if p.ID == "" {
		p.ID = catalog.StableID(&p)
	}
	p.Embedding = nil
	ctx := r.Context()
	if err := s.storage.UpsertProduct(ctx, &p); err != nil {
		s.respondStorageError(w, err)
		return
	}
	if s.index != nil {
		if err := s.index.Index(ctx, &p); err != nil {
			s.logger.Warn("keyword index update failed", zap.String("id", p.ID), zap.Error(err))
		}
	}
	s.logger.Info("Product saved", zap.String("id", p.ID), zap.String("product", p.Name))
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	if err := s.storage.DeleteProduct(ctx, id); err != nil {
		s.respondStorageError(w, err)
		return
	}
	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			s.logger.Warn("keyword index delete failed", zap.String("id", id), zap.Error(err))
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// respondPipelineError maps quoting failures to HTTP statuses. Upstream vision and
// embedding failures are 502; invalid data produced along the way is 422.
func (s *Server) respondPipelineError(w http.ResponseWriter, err error) {
	var (
		parseErr    *vision.ParseError
		apiErr      *gemini.APIError
		providerErr *embedding.ProviderError
	)
	switch {
	case errors.As(err, &parseErr):
		s.logger.Warn("vision response could not be parsed", zap.Error(err))
		respondJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error(), "raw": parseErr.Raw})
	case errors.As(err, &providerErr), errors.As(err, &apiErr):
		s.logger.Error("upstream provider failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, pipeline.ErrNoDetector):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, models.ErrInvalidDetection),
		errors.Is(err, quote.ErrInvalidLineItem),
		errors.Is(err, vector.ErrDimensionMismatch):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.respondStorageError(w, err)
	}
}

func (s *Server) respondStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrConflict):
		respondError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
