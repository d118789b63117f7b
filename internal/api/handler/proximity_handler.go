package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/waitline/waitline/internal/api/middleware"
	"github.com/waitline/waitline/internal/geo"
	"github.com/waitline/waitline/internal/service"
)

// ProximityHandler serves the location-check endpoints. Clients post
// the customer's current coordinates; any armed alert within its
// trigger distance fires exactly once and is reported back.
type ProximityHandler struct {
	svc    *service.QueueService
	logger *zap.Logger
}

func NewProximityHandler(svc *service.QueueService, logger *zap.Logger) *ProximityHandler {
	return &ProximityHandler{svc: svc, logger: logger}
}

type evaluateRequest struct {
	Observer geo.Coord           `json:"observer"`
	Alerts   []service.AlertSpec `json:"alerts,omitempty"`
}

// Evaluate handles POST /api/v1/proximity/evaluate
//
// When the request carries no explicit alerts, every armed alert in the
// registry is checked against the observer position. Callers may instead
// supply their own alert definitions for a one-shot evaluation.
//
// @Summary  Evaluate proximity alerts against an observer position
// @Tags     proximity
// @Accept   json
// @Produce  json
// @Param    body  body      evaluateRequest  true  "Observer position and optional ad-hoc alerts"
// @Success  200   {object}  map[string]any
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/proximity/evaluate [post]
func (h *ProximityHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var fired any
	var err error
	if len(req.Alerts) > 0 {
		fired, err = h.svc.EvaluateAdHoc(r.Context(), req.Observer, req.Alerts)
	} else {
		fired, err = h.svc.EvaluateProximity(r.Context(), req.Observer)
	}
	if err != nil {
		h.logger.Warn("proximity evaluation failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"fired": fired})
}

type armRequest struct {
	EntryID           int64   `json:"entryId"`
	TriggerDistanceKm float64 `json:"triggerDistanceKm"`
}

// Arm handles POST /api/v1/proximity/alerts
//
// @Summary  Arm a proximity alert for a waiting entry
// @Tags     proximity
// @Accept   json
// @Produce  json
// @Param    body  body      armRequest  true  "Entry and trigger distance"
// @Success  201   {object}  map[string]any
// @Failure  404   {object}  map[string]string
// @Failure  409   {object}  map[string]string
// @Router   /api/v1/proximity/alerts [post]
func (h *ProximityHandler) Arm(w http.ResponseWriter, r *http.Request) {
	var req armRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	alert, err := h.svc.ArmAlert(r.Context(), req.EntryID, req.TriggerDistanceKm)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"alertId":           alert.ID,
		"entryId":           alert.EntryID,
		"businessId":        alert.BusinessID,
		"triggerDistanceKm": alert.TriggerDistanceKm,
	})
}

// Disarm handles DELETE /api/v1/proximity/alerts/{entryId}
//
// @Summary  Disarm the alert for an entry
// @Tags     proximity
// @Param    entryId  path  int  true  "Entry ID"
// @Success  204
// @Router   /api/v1/proximity/alerts/{entryId} [delete]
func (h *ProximityHandler) Disarm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "entryId"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid entry id")
		return
	}
	h.svc.DisarmAlert(id)
	w.WriteHeader(http.StatusNoContent)
}
