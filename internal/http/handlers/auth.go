package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"elit21.com/shop/internal/http/middleware"
	"elit21.com/shop/internal/http/validation"
	"elit21.com/shop/internal/modules/users"
	"elit21.com/shop/internal/shared/apperr"
)

type AuthHandler struct {
	Users   *users.Service
	Session middleware.SessionCfg
}

func NewAuthHandler(svc *users.Service, session middleware.SessionCfg) *AuthHandler {
	return &AuthHandler{Users: svc, Session: session}
}

type registerInput struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	FullName string `json:"full_name" binding:"required,min=2,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in registerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid registration data.", validation.FromBindError(err, &in)))
		return
	}

	u, err := h.Users.Register(c.Request.Context(), in.Email, in.FullName, in.Password)
	if errors.Is(err, users.ErrEmailTaken) {
		middleware.Fail(c, apperr.ConflictErr("An account with this email already exists."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	if err := middleware.IssueSession(c, h.Session, u.ID, u.Email, u.Role); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": u.ID, "email": u.Email, "full_name": u.FullName})
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.Fail(c, apperr.InvalidErr("Invalid credentials.", validation.FromBindError(err, &in)))
		return
	}

	u, err := h.Users.Login(c.Request.Context(), in.Email, in.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		middleware.Fail(c, apperr.UnauthorizedErr("Invalid email or password."))
		return
	}
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	if err := middleware.IssueSession(c, h.Session, u.ID, u.Email, u.Role); err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": u.ID, "email": u.Email, "full_name": u.FullName})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	middleware.ClearSession(c, h.Session)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
