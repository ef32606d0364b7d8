// Package httpapi provides the REST HTTP adapter for the task service.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/vimdo/internal/app"
	"github.com/hylla/vimdo/internal/domain"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// errInvalidRequest marks malformed request bodies and paths.
var errInvalidRequest = errors.New("invalid request")

// TaskService is the task service the API exposes.
type TaskService interface {
	ListTasks(context.Context) ([]domain.Task, error)
	GetTask(context.Context, int64) (domain.Task, error)
	CreateTask(context.Context, app.CreateTaskInput) (domain.Task, error)
	ReplaceTask(context.Context, app.ReplaceTaskInput) (domain.Task, error)
	ToggleTask(context.Context, int64) (domain.Task, error)
	DeleteTask(context.Context, int64) error
}

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	tasks TaskService
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs one HTTP API adapter over the task service.
func NewHandler(tasks TaskService) *Handler {
	return &Handler{tasks: tasks}
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := normalizePath(r.URL.Path)
	if path == "todos" {
		switch r.Method {
		case http.MethodGet:
			h.handleListTasks(w, r)
		case http.MethodPost:
			h.handleCreateTask(w, r)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
		return
	}

	id, action, ok := resolveTaskPath(path)
	if !ok {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
		return
	}
	if id <= 0 {
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: fmt.Sprintf("invalid task id %q", strings.Split(path, "/")[1]),
		})
		return
	}
	switch action {
	case "toggle":
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w, http.MethodPost)
			return
		}
		h.handleToggleTask(w, r, id)
	default:
		switch r.Method {
		case http.MethodGet:
			h.handleGetTask(w, r, id)
		case http.MethodPut:
			h.handleReplaceTask(w, r, id)
		case http.MethodDelete:
			h.handleDeleteTask(w, r, id)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	}
}

// handleListTasks serves GET `/todos`.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListTasks(r.Context())
	if err != nil {
		writeErrorFrom(w, 0, err)
		return
	}
	out := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, TaskFromDomain(task))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateTask serves POST `/todos`.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, 0, err)
		return
	}
	task, err := h.tasks.CreateTask(r.Context(), app.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Urgency:     domain.Urgency(req.Urgency),
	})
	if err != nil {
		writeErrorFrom(w, 0, err)
		return
	}
	writeJSON(w, http.StatusCreated, TaskFromDomain(task))
}

// handleGetTask serves GET `/todos/{id}`.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request, id int64) {
	task, err := h.tasks.GetTask(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, TaskFromDomain(task))
}

// handleReplaceTask serves PUT `/todos/{id}`.
func (h *Handler) handleReplaceTask(w http.ResponseWriter, r *http.Request, id int64) {
	var req ReplaceTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, id, err)
		return
	}
	task, err := h.tasks.ReplaceTask(r.Context(), app.ReplaceTaskInput{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Urgency:     domain.Urgency(req.Urgency),
		Completed:   req.Completed,
	})
	if err != nil {
		writeErrorFrom(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, TaskFromDomain(task))
}

// handleToggleTask serves POST `/todos/{id}/toggle`.
func (h *Handler) handleToggleTask(w http.ResponseWriter, r *http.Request, id int64) {
	task, err := h.tasks.ToggleTask(r.Context(), id)
	if err != nil {
		writeErrorFrom(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, TaskFromDomain(task))
}

// handleDeleteTask serves DELETE `/todos/{id}`.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request, id int64) {
	if err := h.tasks.DeleteTask(r.Context(), id); err != nil {
		writeErrorFrom(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveTaskPath parses `todos/{id}` and `todos/{id}/toggle`. A non-numeric
// id resolves with id 0 so the caller can reject it.
func resolveTaskPath(path string) (int64, string, bool) {
	parts := strings.Split(path, "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "todos" {
		return 0, "", false
	}
	action := ""
	if len(parts) == 3 {
		if parts[2] != "toggle" {
			return 0, "", false
		}
		action = parts[2]
	}
	id, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, action, true
	}
	return id, action, true
}

// normalizePath canonicalizes one request path for route matching.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.Trim(path, "/")
	return path
}

// writeErrorFrom maps service errors into structured HTTP responses. id is
// the task the request addressed, or 0.
func writeErrorFrom(w http.ResponseWriter, id int64, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, app.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: fmt.Sprintf("Task with id %d not found", id),
		})
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidUrgency):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, context.Canceled):
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "canceled",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeMethodNotAllowed writes a structured 405 response with `Allow` headers.
func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	if len(methods) > 0 {
		w.Header().Set("Allow", strings.Join(methods, ", "))
	}
	writeJSONError(w, http.StatusMethodNotAllowed, APIError{
		Code:    "method_not_allowed",
		Message: "method not allowed",
	})
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(errInvalidRequest, err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", errInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
