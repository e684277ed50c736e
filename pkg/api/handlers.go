package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"energy_ic_copilot/pkg/core/config"
	"energy_ic_copilot/pkg/core/extract"
	"energy_ic_copilot/pkg/core/valuation"
)

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"detail": msg})
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Energy IC Copilot API",
		"status":  "healthy",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"api":        "healthy",
		"data_files": map[string]string{},
	}
	files := map[string]string{
		"companies":   h.companiesPath,
		"mappings":    h.mappingsPath,
		"filings_dir": h.filingsDir,
	}
	dataFiles := health["data_files"].(map[string]string)
	for name, path := range files {
		if _, err := os.Stat(path); err == nil {
			dataFiles[name] = "exists"
		} else {
			dataFiles[name] = "missing"
		}
	}
	h.respondJSON(w, http.StatusOK, health)
}

func (h *Handler) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := config.LoadCompanies(h.companiesPath)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("error loading companies: %v", err))
		return
	}
	h.respondJSON(w, http.StatusOK, companies)
}

func (h *Handler) handleCompany(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	companies, err := config.LoadCompanies(h.companiesPath)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("error loading companies: %v", err))
		return
	}
	company, ok := companies[ticker]
	if !ok {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("company %s not found", ticker))
		return
	}
	h.respondJSON(w, http.StatusOK, company)
}

// KPISummary is the response shape for /kpis/{ticker}.
type KPISummary struct {
	Ticker      string                          `json:"ticker"`
	KPIs        map[string]extract.ExtractedKPI `json:"kpis"`
	ExtractedAt time.Time                       `json:"extracted_at"`
}

func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	e := h.getExtractor()
	if e == nil {
		h.respondError(w, http.StatusServiceUnavailable, "KPI extractor not configured")
		return
	}

	kpis, err := e.ExtractFromFilings(h.filingsDir, ticker)
	if err != nil {
		if errors.Is(err, extract.ErrNoMappings) {
			h.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("error extracting KPIs: %v", err))
		return
	}

	h.respondJSON(w, http.StatusOK, KPISummary{
		Ticker:      ticker,
		KPIs:        kpis,
		ExtractedAt: time.Now().UTC(),
	})
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		h.respondError(w, http.StatusBadRequest, "ticker parameter required")
		return
	}

	e := h.getExtractor()
	if e == nil {
		h.respondError(w, http.StatusServiceUnavailable, "KPI extractor not configured")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	// Stage the upload with its original extension so the reader can pick the
	// right decoder.
	tmp, err := os.CreateTemp("", "ingest-*"+filepath.Ext(header.Filename))
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		h.respondError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	tmp.Close()

	kpis, err := e.ExtractFromFile(tmp.Name(), ticker)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, extract.ErrNoMappings):
			status = http.StatusNotFound
		case errors.Is(err, extract.ErrUnsupportedFormat):
			status = http.StatusUnsupportedMediaType
		}
		h.respondError(w, status, fmt.Sprintf("error processing document: %v", err))
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"ticker": ticker,
		"kpis":   kpis,
		"doc_id": header.Filename,
		"status": "processed",
	})
}

func (h *Handler) handleMappings(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	e := h.getExtractor()
	if e == nil {
		h.respondError(w, http.StatusServiceUnavailable, "KPI extractor not configured")
		return
	}

	kpis, ok := e.Mappings()[ticker]
	if !ok {
		h.respondError(w, http.StatusNotFound, fmt.Sprintf("no mappings found for %s", ticker))
		return
	}
	h.respondJSON(w, http.StatusOK, kpis)
}

// ValuationRequest is the request body for /valuation/{ticker}.
type ValuationRequest struct {
	Ticker   string              `json:"ticker"`
	Inputs   valuation.Inputs    `json:"inputs"`
	Scenario *valuation.Scenario `json:"scenario,omitempty"`
}

// handleValuationDefaults serves the configured default valuation inputs so
// clients can prefill a valuation request.
func (h *Handler) handleValuationDefaults(w http.ResponseWriter, r *http.Request) {
	if h.financial == nil {
		h.respondError(w, http.StatusServiceUnavailable, "default financial inputs not configured")
		return
	}
	h.respondJSON(w, http.StatusOK, h.financial.ValuationInputs())
}

func (h *Handler) handleValuation(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if !strings.EqualFold(req.Ticker, ticker) {
		h.respondError(w, http.StatusBadRequest, "ticker mismatch")
		return
	}

	results := valuation.CalculateValuation(req.Inputs, req.Scenario)
	h.respondJSON(w, http.StatusOK, results)
}

func (h *Handler) handleFacts(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	period := r.URL.Query().Get("period")

	if h.manager == nil {
		h.respondError(w, http.StatusServiceUnavailable, "data manager not configured")
		return
	}

	facts, err := h.manager.LatestFinancialsXBRL(r.Context(), ticker, period)
	if err != nil {
		h.respondError(w, http.StatusBadGateway, fmt.Sprintf("XBRL fetch failed: %v", err))
		return
	}
	h.respondJSON(w, http.StatusOK, facts)
}

func (h *Handler) handleDataStatus(w http.ResponseWriter, r *http.Request) {
	if h.manager == nil {
		h.respondError(w, http.StatusServiceUnavailable, "data manager not configured")
		return
	}
	h.respondJSON(w, http.StatusOK, h.manager.Status())
}

func (h *Handler) handleDataUpdate(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	force := r.URL.Query().Get("force") == "true"

	if h.manager == nil {
		h.respondError(w, http.StatusServiceUnavailable, "data manager not configured")
		return
	}

	result := h.manager.UpdateCompanyData(r.Context(), ticker, force)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	h.respondJSON(w, status, result)
}
