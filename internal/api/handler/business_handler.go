package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/waitline/waitline/internal/business"
	"github.com/waitline/waitline/internal/service"
)

// BusinessHandler serves the business catalogue and the per-business
// queue listing used by the staff dashboard.
type BusinessHandler struct {
	store  business.Store
	svc    *service.QueueService
	logger *zap.Logger
}

func NewBusinessHandler(store business.Store, svc *service.QueueService, logger *zap.Logger) *BusinessHandler {
	return &BusinessHandler{store: store, svc: svc, logger: logger}
}

// List handles GET /api/v1/businesses
//
// @Summary  List registered businesses
// @Tags     businesses
// @Produce  json
// @Param    limit  query    int  false  "Max businesses (default all)"
// @Success  200    {array}  domain.Business
// @Router   /api/v1/businesses [get]
func (h *BusinessHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	businesses, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list businesses failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list businesses")
		return
	}
	respondJSON(w, http.StatusOK, businesses)
}

// Get handles GET /api/v1/businesses/{id}
//
// @Summary  Get a business by ID
// @Tags     businesses
// @Produce  json
// @Param    id   path      int  true  "Business ID"
// @Success  200  {object}  domain.Business
// @Failure  422  {object}  map[string]string
// @Router   /api/v1/businesses/{id} [get]
func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := businessID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid business id")
		return
	}

	biz, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, biz)
}

// Queue handles GET /api/v1/businesses/{id}/queue
//
// @Summary  List a business's queue in service order
// @Tags     businesses
// @Produce  json
// @Param    id     path      int  true   "Business ID"
// @Param    limit  query     int  false  "Max entries (default all)"
// @Success  200    {array}   domain.QueueEntry
// @Failure  422    {object}  map[string]string
// @Router   /api/v1/businesses/{id}/queue [get]
func (h *BusinessHandler) Queue(w http.ResponseWriter, r *http.Request) {
	id, err := businessID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid business id")
		return
	}

	limit := 0
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}

	entries, err := h.svc.ListQueue(r.Context(), id, limit)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func businessID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
