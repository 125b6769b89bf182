package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/user-accounts/internal/apperror"
	"github.com/sakif/user-accounts/internal/model"
	"github.com/sakif/user-accounts/internal/repository"
)

// maxBodyBytes caps request bodies. User payloads are a few hundred bytes.
const maxBodyBytes = 1 << 20

// UserService is what the handler needs from the business layer.
// *service.UserService satisfies it; tests can substitute their own.
type UserService interface {
	ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.UserResponse, error)
	CreateUser(ctx context.Context, username, password, confirmPassword string) (model.UserResponse, error)
	FindByUsername(ctx context.Context, username string) (model.UserResponse, error)
	FindByID(ctx context.Context, id int64) (model.UserResponse, error)
	UpdateUser(ctx context.Context, id int64, username, password string) (model.UserResponse, error)
	UpdateStatus(ctx context.Context, id int64, status model.Status) (model.UserResponse, error)
	DeleteUser(ctx context.Context, id int64) error
}

// UserHandler exposes user accounts over HTTP.
//
// Its only job is HTTP: decode and structurally validate input, call the
// service, encode the result. Business rules such as password confirmation
// and username uniqueness live in the service.
type UserHandler struct {
	service   UserService
	validator *RequestValidator
	logger    *slog.Logger
}

func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service:   service,
		validator: NewRequestValidator(),
		logger:    logger,
	}
}

// createUserRequest is the POST body.
type createUserRequest struct {
	Username        string `json:"username"        validate:"required,username"`
	Password        string `json:"password"        validate:"required,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// updateUserRequest is the PUT body.
type updateUserRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,max=72"`
}

// Mount registers the user routes on r. The caller picks the prefix.
//
//	GET    /                 → HandleList
//	POST   /                 → HandleCreate
//	GET    /by-id/{id}       → HandleGetByID
//	GET    /{username}       → HandleGetByUsername
//	PUT    /{id}             → HandleUpdate
//	PATCH  /{id}?status=S    → HandleUpdateStatus
//	DELETE /{id}             → HandleDelete
//
// Chi prefers the static "by-id/" segment over the {username} wildcard.
func (h *UserHandler) Mount(r chi.Router) {
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/by-id/{id}", h.HandleGetByID)
	r.Get("/{username}", h.HandleGetByUsername)
	r.Put("/{id}", h.HandleUpdate)
	r.Patch("/{id}", h.HandleUpdateStatus)
	r.Delete("/{id}", h.HandleDelete)
}

// HandleList returns every user as a JSON array, ordered by id.
//
// HTTP: GET /users[?status=ACTIVATE|INACTIVATE|DELETED]
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var opts repository.ListOptions
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			writeError(w, r, apperror.BadRequest("status", err.Error()))
			return
		}
		opts.Status = status
	}

	users, err := h.service.ListUsers(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleCreate registers a user.
//
// HTTP: POST /users
// REQUEST BODY: {"username": "u1", "password": "pw1", "confirmPassword": "pw1"}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleGetByUsername looks a user up by username.
//
// HTTP: GET /users/{username}
func (h *UserHandler) HandleGetByUsername(w http.ResponseWriter, r *http.Request) {
	username, err := url.PathUnescape(chi.URLParam(r, "username"))
	if err != nil || !ValidUsername(username) {
		writeError(w, r, apperror.BadRequest("username", "malformed username"))
		return
	}

	user, err := h.service.FindByUsername(r.Context(), username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HTTP: GET /users/by-id/{id}
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	user, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate replaces username and password.
//
// HTTP: PUT /users/{id}
// REQUEST BODY: {"username": "u1", "password": "pw2"}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdateStatus changes only the status.
//
// HTTP: PATCH /users/{id}?status=INACTIVATE
func (h *UserHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("status")
	if raw == "" {
		writeError(w, r, apperror.BadRequest("status", "status query parameter is required"))
		return
	}
	status, err := model.ParseStatus(raw)
	if err != nil {
		writeError(w, r, apperror.BadRequest("status", err.Error()))
		return
	}

	user, err := h.service.UpdateStatus(r.Context(), id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete soft-deletes a user. 204 No Content on success.
//
// HTTP: DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses {id} as a positive int64. On failure it writes a 400 and
// returns false.
func (h *UserHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, apperror.BadRequest("id", fmt.Sprintf("id must be a positive integer, got %q", raw)))
		return 0, false
	}
	return id, true
}

// decodeAndValidate decodes a single JSON object into dst and runs the
// struct validator. Unknown fields and trailing data are rejected. On
// failure it writes a 400 and returns false.
func (h *UserHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		h.logger.Warn("invalid request JSON",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, r, apperror.BadRequest("body", "request body must be a valid JSON object"))
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, r, apperror.BadRequest("body", "request body must contain a single JSON object"))
		return false
	}

	if fields := h.validator.Validate(dst); fields != nil {
		writeError(w, r, apperror.ValidationFailed(fields))
		return false
	}
	return true
}
