package user

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-user-accounts/internal/api"
	"github.com/FACorreiaa/go-user-accounts/internal/api/auth"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListUsers(w http.ResponseWriter, r *http.Request)
	GetUser(w http.ResponseWriter, r *http.Request)
	CreateUser(w http.ResponseWriter, r *http.Request)
	UpdateUser(w http.ResponseWriter, r *http.Request)
	DeleteUser(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// actor pulls the authenticated user placed in the context by the
// Authenticate middleware.
func (h *HandlerImpl) actor(w http.ResponseWriter, r *http.Request) (*types.UserRecord, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "Authenticated user missing from context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}

func targetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

// ListUsers godoc
// @Summary      List Users
// @Description  Returns a page of user accounts, newest first. Admin only.
// @Tags         User
// @Produce      json
// @Param        page query int false "Page number (1-based)"
// @Param        limit query int false "Page size"
// @Success      200 {object} types.UserListResponse "User Page"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Security     BearerAuth
// @Router       /users [get]
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListUsers"))

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Page must be a positive integer")
			return
		}
		page = parsed
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Limit must be a positive integer")
			return
		}
		limit = parsed
	}

	resp, err := h.userService.ListUsers(ctx, page, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list users")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// GetUser godoc
// @Summary      Get User
// @Description  Returns a single user record. Callers may fetch their own record; admins may fetch any.
// @Tags         User
// @Produce      json
// @Param        userID path string true "User ID"
// @Success      200 {object} types.UserRecord "User Record"
// @Failure      403 {object} types.Response "Forbidden"
// @Failure      404 {object} types.Response "User Not Found"
// @Security     BearerAuth
// @Router       /users/{userID} [get]
func (h *HandlerImpl) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetUser"))

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := targetID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(ctx, actor, userID)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, "Insufficient permissions")
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		default:
			l.ErrorContext(ctx, "Failed to get user", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve user")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

// CreateUser godoc
// @Summary      Create User
// @Description  Creates a user account with an explicit role. Admin only.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        account body types.CreateUserParams true "Account Details"
// @Success      201 {object} types.UserRecord "Created Record"
// @Failure      400 {object} types.Response "Validation Failed"
// @Failure      409 {object} types.Response "Email Already Registered"
// @Security     BearerAuth
// @Router       /users [post]
func (h *HandlerImpl) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateUser"))

	var params types.CreateUserParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.CreateUser(ctx, params)
	if err != nil {
		var vErr *types.ValidationError
		switch {
		case errors.As(err, &vErr):
			api.ValidationErrorResponse(w, r, vErr.Fields)
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, "Email is already registered")
		default:
			l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

// UpdateUser godoc
// @Summary      Update User
// @Description  Partially updates a user record. Admins may update anyone; users may update themselves.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        userID path string true "User ID"
// @Param        changes body types.UpdateUserParams true "Fields To Change"
// @Success      200 {object} types.UserRecord "Updated Record"
// @Failure      400 {object} types.Response "Validation Failed"
// @Failure      403 {object} types.Response "Forbidden"
// @Failure      404 {object} types.Response "User Not Found"
// @Failure      409 {object} types.Response "Email Already Registered"
// @Security     BearerAuth
// @Router       /users/{userID} [put]
func (h *HandlerImpl) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateUser"))

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := targetID(w, r)
	if !ok {
		return
	}

	var params types.UpdateUserParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.UpdateUser(ctx, actor, userID, params)
	if err != nil {
		var vErr *types.ValidationError
		switch {
		case errors.As(err, &vErr):
			api.ValidationErrorResponse(w, r, vErr.Fields)
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, "Insufficient permissions")
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, "Email is already registered")
		default:
			l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    user,
	})
}

// DeleteUser godoc
// @Summary      Delete User
// @Description  Permanently deletes a user account. Admin only; self-deletion is rejected.
// @Tags         User
// @Produce      json
// @Param        userID path string true "User ID"
// @Success      200 {object} types.Response "Deleted"
// @Failure      400 {object} types.Response "Self-Delete Rejected"
// @Failure      403 {object} types.Response "Forbidden"
// @Failure      404 {object} types.Response "User Not Found"
// @Security     BearerAuth
// @Router       /users/{userID} [delete]
func (h *HandlerImpl) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "DeleteUser"))

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	userID, ok := targetID(w, r)
	if !ok {
		return
	}

	err := h.userService.DeleteUser(ctx, actor, userID)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrBadRequest):
			api.ErrorResponse(w, r, http.StatusBadRequest, "Cannot delete your own account")
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, "Insufficient permissions")
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		default:
			l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "User deleted successfully",
	})
}
