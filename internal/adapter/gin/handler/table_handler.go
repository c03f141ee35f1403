package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-table/internal/adapter/gin/middleware"
	"user-table/internal/usertable"
	"user-table/internal/web"
	"user-table/pkg/logger"
)

// TableHandler serves the browser view of the user table. Every browser session drives
// its own usertable.Table.
type TableHandler struct {
	sessions *usertable.Manager
	cookie   middleware.SessionConfig
	log      *zap.Logger
}

// NewTableHandler creates a TableHandler.
func NewTableHandler(sessions *usertable.Manager, cookie middleware.SessionConfig, log *zap.Logger) *TableHandler {
	return &TableHandler{sessions: sessions, cookie: cookie, log: log}
}

// FieldRequest is the body of PATCH /form. Rev is the form revision the page was
// rendered with; bindings for an older revision are refused.
type FieldRequest struct {
	Name  string  `json:"name" binding:"required"`
	Value string  `json:"value"`
	Rev   *uint64 `json:"rev"`
}

// Page handles GET /: it mounts the session's table and renders it.
func (h *TableHandler) Page(c *gin.Context) {
	t, ok := h.open(c)
	if !ok {
		return
	}
	t.Init(c.Request.Context())
	c.HTML(http.StatusOK, web.PageTemplate, t.Snapshot())
}

// Submit handles POST /users. The posted fields are bound first; the form is only sent
// when both fields pass the input checks.
func (h *TableHandler) Submit(c *gin.Context) {
	t, ok := h.open(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	for _, name := range []string{usertable.FieldFirstName, usertable.FieldEmail} {
		v, present := c.GetPostForm(name)
		if !present {
			continue
		}
		if err := t.SetField(ctx, name, v); err != nil {
			logger.WithContext(ctx, h.log).Debug("form field not bound", zap.String("field", name), zap.Error(err))
		}
	}

	if err := t.Snapshot().Form.Validate(); err != nil {
		logger.WithContext(ctx, h.log).Debug("form not submitted", zap.Error(err))
	} else {
		t.Submit(ctx)
	}
	h.respond(c, t)
}

// Edit handles POST /users/:id/edit.
func (h *TableHandler) Edit(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	t, ok := h.open(c)
	if !ok {
		return
	}
	t.Edit(c.Request.Context(), id)
	h.respond(c, t)
}

// Delete handles POST /users/:id/delete.
func (h *TableHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	t, ok := h.open(c)
	if !ok {
		return
	}
	t.Delete(c.Request.Context(), id)
	h.respond(c, t)
}

// SetField handles PATCH /form, the binding of a single keystroke.
func (h *TableHandler) SetField(c *gin.Context) {
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body: " + err.Error()})
		return
	}
	t, ok := h.open(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	var err error
	if req.Rev != nil {
		err = t.SetFieldAt(ctx, *req.Rev, req.Name, req.Value)
	} else {
		err = t.SetField(ctx, req.Name, req.Value)
	}
	switch {
	case errors.Is(err, usertable.ErrStaleForm), errors.Is(err, usertable.ErrClosed):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, t.Snapshot())
}

// State handles GET /state.
func (h *TableHandler) State(c *gin.Context) {
	t, ok := h.open(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t.Snapshot())
}

// Close handles POST /close: the session's table is torn down and its cookie dropped.
func (h *TableHandler) Close(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.sessions.Close(ctx, middleware.SessionID(c)); err != nil {
		logger.WithContext(ctx, h.log).Warn("failed to close session", zap.Error(err))
	}
	middleware.ClearSession(c, h.cookie)

	if wantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *TableHandler) open(c *gin.Context) (*usertable.Table, bool) {
	ctx := c.Request.Context()
	t, err := h.sessions.Open(ctx, middleware.SessionID(c))
	if err != nil {
		logger.WithContext(ctx, h.log).Error("failed to open session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "An internal error occurred"})
		return nil, false
	}
	return t, true
}

func (h *TableHandler) pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid user id '" + raw + "'"})
		return 0, false
	}
	return id, true
}

// respond answers scripted callers with the new state and browsers with a redirect
// back to the page.
func (h *TableHandler) respond(c *gin.Context, t *usertable.Table) {
	if wantsJSON(c) {
		c.JSON(http.StatusOK, t.Snapshot())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}
