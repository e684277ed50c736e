// Package api exposes the HTTP surface: company registry, KPI extraction,
// standardized facts, valuation and data-management endpoints.
package api

import (
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"energy_ic_copilot/pkg/core/config"
	"energy_ic_copilot/pkg/core/datamgr"
	"energy_ic_copilot/pkg/core/extract"
)

// Handler carries the wiring for all API endpoints.
type Handler struct {
	companiesPath string
	mappingsPath  string
	filingsDir    string

	manager   *datamgr.Manager
	financial *config.FinancialConfig
	logger    *zap.Logger

	mu        sync.RWMutex
	extractor *extract.Extractor
}

// Options configure the API handler.
type Options struct {
	CompaniesPath string
	MappingsPath  string
	FilingsDir    string
	Extractor     *extract.Extractor
	Manager       *datamgr.Manager
	Financial     *config.FinancialConfig
	Logger        *zap.Logger
}

// NewHandler creates the API handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		companiesPath: opts.CompaniesPath,
		mappingsPath:  opts.MappingsPath,
		filingsDir:    opts.FilingsDir,
		extractor:     opts.Extractor,
		manager:       opts.Manager,
		financial:     opts.Financial,
		logger:        logger,
	}
}

// SetExtractor swaps the extractor, used by the mappings hot-reload watcher.
func (h *Handler) SetExtractor(e *extract.Extractor) {
	h.mu.Lock()
	h.extractor = e
	h.mu.Unlock()
}

func (h *Handler) getExtractor() *extract.Extractor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.extractor
}

// Routes builds the router with request-id, logging and CORS middleware.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(h.logger))
	r.Use(cors)

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)

	r.Get("/companies", h.handleCompanies)
	r.Get("/companies/{ticker}", h.handleCompany)

	r.Get("/kpis/{ticker}", h.handleKPIs)
	r.Post("/ingest", h.handleIngest)
	r.Get("/mappings/{ticker}", h.handleMappings)

	r.Get("/valuation/defaults", h.handleValuationDefaults)
	r.Post("/valuation/{ticker}", h.handleValuation)
	r.Get("/facts/{ticker}", h.handleFacts)

	r.Get("/data/status", h.handleDataStatus)
	r.Post("/data/update/{ticker}", h.handleDataUpdate)

	return r
}
