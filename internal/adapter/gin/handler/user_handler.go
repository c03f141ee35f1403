package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "user-table/internal/domain/user"
	"user-table/internal/usecase/user"
	apperrors "user-table/pkg/errors"
	"user-table/pkg/logger"
)

// UserHandler serves the users collection in the dummyjson wire format.
type UserHandler struct {
	uc  user.Usecase
	log *zap.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(uc user.Usecase, log *zap.Logger) *UserHandler {
	return &UserHandler{
		uc:  uc,
		log: log,
	}
}

// ListUsersResponse is the envelope of list and search results.
type ListUsersResponse struct {
	Users []domain.User `json:"users"`
	Total int64         `json:"total"`
	Skip  int64         `json:"skip"`
	Limit int64         `json:"limit"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string `json:"message"`
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.list(c, "")
}

// SearchUsers handles GET /users/search
func (h *UserHandler) SearchUsers(c *gin.Context) {
	h.list(c, c.Query("q"))
}

func (h *UserHandler) list(c *gin.Context, query string) {
	skip, ok := h.queryInt(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := h.queryInt(c, "limit", domain.DefaultLimit)
	if !ok {
		return
	}

	resp, err := h.uc.ListUsers(c.Request.Context(), user.ListUsersRequest{
		Query: query,
		Skip:  skip,
		Limit: limit,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	users := resp.Users
	if users == nil {
		users = []domain.User{}
	}
	limit = resp.Window.Limit
	if limit == 0 {
		limit = int64(len(users))
	}

	c.JSON(http.StatusOK, ListUsersResponse{
		Users: users,
		Total: resp.Window.Total,
		Skip:  resp.Window.Skip,
		Limit: limit,
	})
}

// GetUser handles GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	u, err := h.uc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

// CreateUser handles POST /users/add
func (h *UserHandler) CreateUser(c *gin.Context) {
	var body domain.User
	if !h.bindUser(c, &body) {
		return
	}

	created, err := h.uc.CreateUser(c.Request.Context(), user.CreateUserRequest{
		FirstName: body.FirstName,
		Email:     body.Email,
		Extra:     body.Extra,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateUser handles PUT and PATCH /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var body domain.User
	if !h.bindUser(c, &body) {
		return
	}

	updated, err := h.uc.UpdateUser(c.Request.Context(), user.UpdateUserRequest{
		ID:        id,
		FirstName: body.FirstName,
		Email:     body.Email,
		Extra:     body.Extra,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteUser handles DELETE /users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	deleted, err := h.uc.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := deleted.User
	extra := make(map[string]any, len(out.Extra)+2)
	for k, v := range out.Extra {
		extra[k] = v
	}
	extra["isDeleted"] = true
	extra["deletedOn"] = deleted.DeletedOn.Format(time.RFC3339)
	extra[domain.FieldID] = out.ID
	extra[domain.FieldFirstName] = out.FirstName
	extra[domain.FieldEmail] = out.Email

	c.JSON(http.StatusOK, extra)
}

func (h *UserHandler) bindUser(c *gin.Context, dst *domain.User) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func (h *UserHandler) pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		logger.WithContext(c.Request.Context(), h.log).Warn("invalid user id", zap.String("id", raw))
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid user id '" + raw + "'"})
		return 0, false
	}
	return id, true
}

func (h *UserHandler) queryInt(c *gin.Context, key string, def int64) (int64, bool) {
	raw, present := c.GetQuery(key)
	if !present || raw == "" {
		return def, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid '" + key + "' parameter"})
		return 0, false
	}
	return n, true
}

// handleError converts usecase errors to their HTTP status and a message body.
// Errors without a status are reported as 500 without details.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var statuser apperrors.HTTPStatuser
	if errors.As(err, &statuser) {
		status := statuser.HTTPStatus()
		if status < http.StatusInternalServerError {
			c.JSON(status, ErrorResponse{Message: messageOf(err)})
			return
		}
	}

	logger.WithContext(c.Request.Context(), h.log).Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "An internal error occurred"})
}

func messageOf(err error) string {
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		return ve.Field + ": " + ve.Message
	}
	return err.Error()
}
