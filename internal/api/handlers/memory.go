package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/mindforge-ai/conscience/internal/domain"
	"github.com/mindforge-ai/conscience/internal/service"
)

type MemoryHandler struct {
	svc *service.MemoryService
}

func NewMemoryHandler(svc *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

type storeMemoryRequest struct {
	Layer   string `json:"layer"`
	Content string `json:"content"`
}

type memoryResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Layer     string    `json:"layer"`
}

type searchMemoriesResponse struct {
	Records []memoryResponse `json:"records"`
	Count   int              `json:"count"`
}

type memoryStatsResponse struct {
	Layers map[string]int64 `json:"layers"`
	Total  int64            `json:"total"`
}

func toMemoryResponse(rec domain.MemoryRecord) memoryResponse {
	return memoryResponse{
		ID:        rec.ID,
		Content:   rec.Content,
		CreatedAt: rec.CreatedAt,
		Layer:     string(rec.Layer),
	}
}

func (h *MemoryHandler) Store(w http.ResponseWriter, r *http.Request) {
	var req storeMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.Store(r.Context(), req.Layer, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContentEmpty),
			errors.Is(err, service.ErrContentTooLong),
			errors.Is(err, service.ErrInvalidLayer):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to store memory")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toMemoryResponse(*rec))
}

func (h *MemoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	layer := r.URL.Query().Get("layer")
	query := r.URL.Query().Get("q")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	results, err := h.svc.Search(r.Context(), layer, query, limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLayer),
			errors.Is(err, service.ErrQueryEmpty),
			errors.Is(err, service.ErrQueryTooLong),
			errors.Is(err, service.ErrLimitTooLarge):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to search memories")
		}
		return
	}

	records := make([]memoryResponse, 0, len(results))
	for _, rec := range results {
		records = append(records, toMemoryResponse(rec))
	}

	writeJSON(w, http.StatusOK, searchMemoriesResponse{Records: records, Count: len(records)})
}

func (h *MemoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, total, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to collect memory stats")
		return
	}

	layers := make(map[string]int64, len(counts))
	for layer, n := range counts {
		layers[string(layer)] = n
	}

	writeJSON(w, http.StatusOK, memoryStatsResponse{Layers: layers, Total: total})
}
