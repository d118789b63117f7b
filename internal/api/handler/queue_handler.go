package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/waitline/waitline/internal/api/middleware"
	"github.com/waitline/waitline/internal/domain"
	"github.com/waitline/waitline/internal/service"
)

// QueueHandler handles the customer-facing queue endpoints: joining,
// leaving and checking position, plus the staff lifecycle actions.
type QueueHandler struct {
	svc    *service.QueueService
	logger *zap.Logger
}

func NewQueueHandler(svc *service.QueueService, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{svc: svc, logger: logger}
}

// Join handles POST /api/v1/queue/join
//
// @Summary     Join a business queue
// @Tags        queue
// @Accept      json
// @Produce     json
// @Param       body  body      domain.JoinRequest  true  "Join payload"
// @Success     201   {object}  domain.JoinResult
// @Failure     422   {object}  map[string]string
// @Router      /api/v1/queue/join [post]
func (h *QueueHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req domain.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.svc.Join(r.Context(), req)
	if err != nil {
		h.logger.Warn("join failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Int64("business_id", req.BusinessID),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

type leaveRequest struct {
	EntryID int64 `json:"entryId"`
}

// Leave handles POST /api/v1/queue/leave
//
// @Summary  Leave the queue
// @Tags     queue
// @Accept   json
// @Param    body  body  leaveRequest  true  "Entry to abandon"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/queue/leave [post]
func (h *QueueHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.Leave(r.Context(), req.EntryID); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/v1/entries/{id}
//
// @Summary  Current position and wait estimate for an entry
// @Tags     queue
// @Produce  json
// @Param    id   path      int  true  "Entry ID"
// @Success  200  {object}  domain.StatusResult
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/entries/{id} [get]
func (h *QueueHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	st, err := h.svc.Status(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// Advance returns a handler for one staff lifecycle action. Each action
// endpoint moves the entry to a fixed target status:
//
//	POST /api/v1/entries/{id}/notify    -> notified
//	POST /api/v1/entries/{id}/serve     -> serving
//	POST /api/v1/entries/{id}/complete  -> done
//	POST /api/v1/entries/{id}/skip      -> skipped
func (h *QueueHandler) Advance(to domain.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := entryID(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid entry id")
			return
		}

		entry, err := h.svc.Advance(r.Context(), id, to)
		if err != nil {
			h.logger.Warn("advance failed",
				zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
				zap.Int64("entry_id", id),
				zap.String("to", string(to)),
				zap.Error(err),
			)
			mapError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, entry)
	}
}

func entryID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
