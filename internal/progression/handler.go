package progression

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"learnpath/internal/apperr"
	"learnpath/internal/auth"
	"learnpath/internal/httpx"
	"learnpath/internal/logger"
)

type Handler struct {
	service *Service
	log     *logger.Logger
}

func NewHandler(service *Service, baseLog *logger.Logger) *Handler {
	return &Handler{service: service, log: baseLog.With("handler", "ProgressionHandler")}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/progress/{progressId}/complete", h.CompleteStep).Methods("POST", "OPTIONS")
	r.HandleFunc("/progress/{progressId}/status", h.GetStatus).Methods("GET")
	r.HandleFunc("/rewards/me", h.GetMyRewards).Methods("GET")
}

func (h *Handler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	progressID, err := httpx.PathID(r, "progressId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	var req CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Error(w, h.log, apperr.InvalidRequest("invalid request body"))
		return
	}

	res, err := h.service.RecordStepCompletion(r.Context(), userID, progressID, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	progressID, err := httpx.PathID(r, "progressId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	res, err := h.service.Status(r.Context(), userID, progressID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) GetMyRewards(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	points, err := h.service.RewardPoints(r.Context(), userID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]interface{}{"userId": userID, "points": points})
}
