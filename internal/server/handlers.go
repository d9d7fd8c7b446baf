package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"phonepick/internal/archive"
	"phonepick/internal/catalog"
	"phonepick/internal/compare"
	"phonepick/internal/llm"
	"phonepick/internal/llmclient"
)

// Handler serves the JSON API.
type Handler struct {
	compare  *compare.Service
	catalog  *catalog.Catalog
	archive  archive.Store
	chain    *llm.Chain
	registry *llmclient.Registry
	version  string
	log      *zap.Logger
}

func (h *Handler) registerRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/info", h.handleInfo).Methods(http.MethodGet)
	api.HandleFunc("/phones", h.handleListPhones).Methods(http.MethodGet)
	api.HandleFunc("/phones/{id}", h.handleGetPhone).Methods(http.MethodGet)
	api.HandleFunc("/models", h.handleListModels).Methods(http.MethodGet)
	api.HandleFunc("/compare", h.handleCompare).Methods(http.MethodPost)
	api.HandleFunc("/compare/ws", h.handleCompareWS).Methods(http.MethodGet)
	api.HandleFunc("/comparisons", h.handleListComparisons).Methods(http.MethodGet)
	api.HandleFunc("/comparisons/{id}", h.handleGetComparison).Methods(http.MethodGet)
}

func respondJSON(log *zap.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn("encode response failed", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	respondJSON(h.log, w, status, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}

// errorStatus maps pipeline errors onto HTTP statuses. Anything the caller
// can fix is 4xx; exhausted backends surface as a bad gateway.
func errorStatus(err error) (int, string) {
	var reqErr *compare.RequestError
	var pre *llm.PreconditionError
	var all *llm.AllFailedError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &pre):
		return http.StatusUnprocessableEntity, "precondition_failed"
	case errors.As(err, &all):
		return http.StatusBadGateway, "all_backends_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(h.log, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleInfo(w http.ResponseWriter, _ *http.Request) {
	respondJSON(h.log, w, http.StatusOK, map[string]any{
		"version":  h.version,
		"phones":   h.catalog.Len(),
		"backends": h.chain.Candidates(),
		"archive":  h.archive != nil,
	})
}

func (h *Handler) handleListPhones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f catalog.Filter
	var err error
	if f.MaxPrice, err = queryInt(q.Get("max_price")); err != nil {
		h.respondError(w, &compare.RequestError{Field: "max_price", Reason: "must be an integer"})
		return
	}
	if f.MinPrice, err = queryInt(q.Get("min_price")); err != nil {
		h.respondError(w, &compare.RequestError{Field: "min_price", Reason: "must be an integer"})
		return
	}
	f.Brand = q.Get("brand")
	f.FiveG = q.Get("five_g") == "true"

	phones := h.catalog.Filter(f)
	respondJSON(h.log, w, http.StatusOK, map[string]any{
		"phones": phones,
		"count":  len(phones),
	})
}

func queryInt(s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func (h *Handler) handleGetPhone(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := h.catalog.Get(id)
	if !ok {
		respondJSON(h.log, w, http.StatusNotFound, map[string]string{
			"error": "unknown phone id " + strconv.Quote(id),
			"code":  "not_found",
		})
		return
	}
	respondJSON(h.log, w, http.StatusOK, p)
}

type modelInfo struct {
	ID        string `json:"id"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
	Available bool   `json:"available"`
	Active    bool   `json:"active"`
}

func (h *Handler) handleListModels(w http.ResponseWriter, _ *http.Request) {
	active := make(map[string]struct{})
	for _, id := range h.chain.Candidates() {
		active[id] = struct{}{}
	}
	models := make([]modelInfo, 0)
	for _, id := range h.registry.IDs() {
		reg, _ := h.registry.Lookup(id)
		info := modelInfo{
			ID:        id,
			Provider:  reg.Provider,
			Model:     reg.Model,
			Available: reg.Check == nil || reg.Check() == nil,
		}
		_, info.Active = active[id]
		models = append(models, info)
	}
	respondJSON(h.log, w, http.StatusOK, map[string]any{"models": models})
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compare.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, &compare.RequestError{Reason: "malformed JSON body: " + err.Error()})
		return
	}
	out, err := h.compare.Compare(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(h.log, w, http.StatusOK, out)
}

func (h *Handler) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondJSON(h.log, w, http.StatusOK, map[string]any{"ids": []string{}})
		return
	}
	ids, err := h.archive.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondJSON(h.log, w, http.StatusOK, map[string]any{"ids": ids})
}

func (h *Handler) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		h.respondError(w, archive.ErrNotFound)
		return
	}
	id := mux.Vars(r)["id"]
	b, err := h.archive.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		h.log.Warn("write archived comparison failed", zap.String("id", id), zap.Error(err))
	}
}
