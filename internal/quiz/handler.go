package quiz

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

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
	return &Handler{service: service, log: baseLog.With("handler", "QuizHandler")}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/progress/{progressId}/quiz/sessions", h.StartSession).Methods("POST", "OPTIONS")
	r.HandleFunc("/progress/{progressId}/quiz/sessions/{sessionId}", h.GetPage).Methods("GET")
	r.HandleFunc("/progress/{progressId}/quiz/sessions/{sessionId}/submit", h.Submit).Methods("POST", "OPTIONS")
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
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

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, apperr.InvalidRequest("invalid request body"))
		return
	}

	res, err := h.service.StartSession(r.Context(), userID, progressID, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
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

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			httpx.Error(w, h.log, apperr.InvalidRequest("invalid page"))
			return
		}
	}

	res, err := h.service.GetPage(r.Context(), userID, progressID, mux.Vars(r)["sessionId"], page)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

type submitRequest struct {
	Answers []SubmittedAnswer `json:"answers"`
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
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

	// An empty body or a missing answers field abandons the session.
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httpx.Error(w, h.log, apperr.InvalidRequest("invalid request body"))
		return
	}

	res, err := h.service.Submit(r.Context(), userID, progressID, mux.Vars(r)["sessionId"], req.Answers)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
