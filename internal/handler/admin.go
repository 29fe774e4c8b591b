package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"facegate/internal/config"
	"facegate/internal/middleware"
	"facegate/internal/service"
)

// AdminHandler handles admin account and authentication requests.
type AdminHandler struct {
	authService *service.AuthService
	config      *config.Config
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(authService *service.AuthService, cfg *config.Config) *AdminHandler {
	return &AdminHandler{authService: authService, config: cfg}
}

type adminCreateRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
}

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Create creates a new admin account
// @Summary Create admin
// @Description Create a new admin account (initial setup helper)
// @Tags Admin
// @Accept json
// @Produce json
// @Param admin body adminCreateRequest true "Admin credentials"
// @Success 201 {object} model.Admin
// @Failure 400 {object} map[string]string
// @Router /api/admin/create [post]
func (h *AdminHandler) Create(c *gin.Context) {
	var req adminCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, err := h.authService.CreateAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, admin)
}

// Login authenticates an admin
// @Summary Admin login
// @Description Returns a JWT access token on successful authentication
// @Tags Admin
// @Accept json
// @Produce json
// @Param credentials body adminLoginRequest true "Credentials"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /api/admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, err := h.authService.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := middleware.GenerateToken(h.config.JWTSecret, admin.Username, h.config.TokenExpire)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// Me returns the authenticated admin
// @Summary Current admin
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Admin
// @Failure 401 {object} map[string]string
// @Router /api/admin/me [get]
func (h *AdminHandler) Me(c *gin.Context) {
	username := c.GetString("username")
	admin, err := h.authService.GetByUsername(c.Request.Context(), username)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "admin not found"})
		return
	}
	c.JSON(http.StatusOK, admin)
}

// ResetDatabase wipes operators and logs
// @Summary Reset database
// @Description Deletes all operators and login logs; used to recover from a desynchronized store
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/admin/reset-database [post]
func (h *AdminHandler) ResetDatabase(c *gin.Context) {
	if err := h.authService.ResetData(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database reset successfully"})
}
