package server

import (
	"embed"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"phonepick/internal/archive"
	"phonepick/internal/catalog"
	"phonepick/internal/compare"
	"phonepick/internal/llm"
	"phonepick/internal/llmclient"
)

//go:embed web/index.html
var webFS embed.FS

// Deps carries everything the HTTP layer serves. Archive may be nil.
type Deps struct {
	Compare  *compare.Service
	Catalog  *catalog.Catalog
	Archive  archive.Store
	Chain    *llm.Chain
	Registry *llmclient.Registry
	Version  string
	Logger   *zap.Logger
}

// NewMux assembles the full route table wrapped in logging and CORS.
func NewMux(deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		compare:  deps.Compare,
		catalog:  deps.Catalog,
		archive:  deps.Archive,
		chain:    deps.Chain,
		registry: deps.Registry,
		version:  deps.Version,
		log:      log,
	}

	r := mux.NewRouter()
	h.registerRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/", h.handleIndex).Methods(http.MethodGet)

	return RequestLogger(log, CORS(r))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	b, err := webFS.ReadFile("web/index.html")
	if err != nil {
		http.Error(w, "frontend not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(b)
}
