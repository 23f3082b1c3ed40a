// Package api exposes the convention workflow over HTTP. Routing stays thin:
// handlers authenticate the magic-link or admin token, decode the request and
// delegate to the convention service, then map domain errors to status codes.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/WissemBellili/immersion-facile-sub001/convention"
	"github.com/WissemBellili/immersion-facile-sub001/magiclink"
)

type Handler struct {
	service *convention.Service
	links   *magiclink.Service
	admin   *magiclink.AdminService
	logger  *slog.Logger
}

func NewHandler(service *convention.Service, links *magiclink.Service, admin *magiclink.AdminService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		links:   links,
		admin:   admin,
		logger:  logger,
	}
}

type LoginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.admin.Login(req.User, req.Password)
	if err != nil {
		if errors.Is(err, magiclink.ErrInvalidCredentials) {
			h.respondError(w, http.StatusForbidden, "wrong credentials")
			return
		}
		h.logger.Error("admin login failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.respondJSON(w, http.StatusOK, LoginResponse{Token: token})
}

type SubmitResponse struct {
	ID string `json:"id"`
}

func (h *Handler) SubmitConvention(w http.ResponseWriter, r *http.Request) {
	var c convention.Convention
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Submit(r.Context(), c); err != nil {
		if errors.Is(err, convention.ErrAlreadyExists) {
			h.respondError(w, http.StatusConflict, "convention already exists")
			return
		}
		h.handleDomainError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, SubmitResponse{ID: c.ID})
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role, ok := h.authorize(w, r, id)
	if !ok {
		return
	}

	var req convention.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), id, role, req)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) SignConvention(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	role, ok := h.authorize(w, r, id)
	if !ok {
		return
	}

	updated, err := h.service.Sign(r.Context(), id, role)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, updated)
}

// authorize resolves the acting role from the bearer token: a magic link
// scoped to the convention in the path, or an admin token acting as
// back-office.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, conventionID string) (convention.Role, bool) {
	token := bearerToken(r)
	if token == "" {
		h.respondError(w, http.StatusUnauthorized, "missing bearer token")
		return "", false
	}

	if payload, err := h.links.VerifyToken(token); err == nil {
		if payload.ConventionID != conventionID {
			h.respondError(w, http.StatusForbidden, "token does not match this convention")
			return "", false
		}
		return payload.Role, true
	}

	if err := h.admin.VerifyAdminToken(token); err == nil {
		return convention.RoleBackOffice, true
	}

	h.respondError(w, http.StatusUnauthorized, "invalid token")
	return "", false
}

func (h *Handler) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var forbidden convention.ForbiddenTransitionError
	var invalid convention.InvalidTransitionError
	switch {
	case errors.Is(err, convention.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "convention not found")
	case errors.As(err, &forbidden):
		h.respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, convention.ErrAlreadySigned):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.As(err, &invalid),
		errors.Is(err, convention.ErrJustificationRequired):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		h.respondError(w, http.StatusBadRequest, err.Error())
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, errorResponse{Error: message})
}
