package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"facegate/internal/service"
)

// OperatorHandler handles operator registry and check-in requests.
type OperatorHandler struct {
	operatorService *service.OperatorService
}

// NewOperatorHandler creates a new operator handler.
func NewOperatorHandler(operatorService *service.OperatorService) *OperatorHandler {
	return &OperatorHandler{operatorService: operatorService}
}

type loginRequest struct {
	OperatorID string `json:"operator_id" binding:"required"`
	Shift      string `json:"shift" binding:"required"`
	Date       string `json:"date" binding:"required"` // YYYY-MM-DD
}

type logoutRequest struct {
	OperatorID string `json:"operator_id" binding:"required"`
}

// Create registers a new operator
// @Summary Create operator
// @Description Register an operator; multipart form with an optional face_image file
// @Tags Operators
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param name formData string true "Display name"
// @Param operator_id formData string true "Operator ID"
// @Param machine_no formData string true "Assigned machine"
// @Param shift formData string false "Day or Night"
// @Param face_image formData file false "Face image"
// @Success 201 {object} model.Operator
// @Failure 400 {object} map[string]string
// @Router /api/operators [post]
func (h *OperatorHandler) Create(c *gin.Context) {
	input := service.OperatorCreate{
		Name:       c.PostForm("name"),
		OperatorID: c.PostForm("operator_id"),
		MachineNo:  c.PostForm("machine_no"),
	}
	if input.Name == "" || input.OperatorID == "" || input.MachineNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, operator_id and machine_no are required"})
		return
	}
	if shift := c.PostForm("shift"); shift != "" {
		input.Shift = &shift
	}

	var faceImage []byte
	if file, err := c.FormFile("face_image"); err == nil {
		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read face image"})
			return
		}
		defer f.Close()
		faceImage, err = io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read face image"})
			return
		}
	}

	op, err := h.operatorService.Create(c.Request.Context(), input, faceImage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, op)
}

// List returns all operators
// @Summary List operators
// @Tags Operators
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Operator
// @Router /api/operators [get]
func (h *OperatorHandler) List(c *gin.Context) {
	operators, err := h.operatorService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, operators)
}

// Get returns one operator
// @Summary Get operator
// @Tags Operators
// @Produce json
// @Security BearerAuth
// @Param operator_id path string true "Operator ID"
// @Success 200 {object} model.Operator
// @Failure 404 {object} map[string]string
// @Router /api/operators/{operator_id} [get]
func (h *OperatorHandler) Get(c *gin.Context) {
	op, err := h.operatorService.Get(c.Request.Context(), c.Param("operator_id"))
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

// Update modifies an operator
// @Summary Update operator
// @Tags Operators
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param operator_id path string true "Operator ID"
// @Param operator body service.OperatorUpdate true "Fields to update"
// @Success 200 {object} model.Operator
// @Failure 404 {object} map[string]string
// @Router /api/operators/{operator_id} [put]
func (h *OperatorHandler) Update(c *gin.Context) {
	var input service.OperatorUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	op, err := h.operatorService.Update(c.Request.Context(), c.Param("operator_id"), input)
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, op)
}

// Delete soft-deletes an operator
// @Summary Delete operator
// @Description Soft-deletes the operator and its login logs so the deletion replicates
// @Tags Operators
// @Security BearerAuth
// @Param operator_id path string true "Operator ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/operators/{operator_id} [delete]
func (h *OperatorHandler) Delete(c *gin.Context) {
	if err := h.operatorService.Delete(c.Request.Context(), c.Param("operator_id")); err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Login records an operator check-in
// @Summary Operator login
// @Description Public endpoint used by the on-site face terminal; publishes the unlock signal
// @Tags Operators
// @Accept json
// @Produce json
// @Param login body loginRequest true "Check-in data"
// @Success 200 {object} model.LoginLog
// @Failure 404 {object} map[string]string
// @Router /api/operators/login [post]
func (h *OperatorHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.operatorService.Login(c.Request.Context(), req.OperatorID, req.Shift, req.Date)
	if err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Logout records an operator check-out
// @Summary Operator logout
// @Description Public endpoint; closes the open login log and publishes the lock signal
// @Tags Operators
// @Accept json
// @Produce json
// @Param logout body logoutRequest true "Check-out data"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/operators/logout [post]
func (h *OperatorHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.operatorService.Logout(c.Request.Context(), req.OperatorID); err != nil {
		h.notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

func (h *OperatorHandler) notFoundOr500(c *gin.Context, err error) {
	if errors.Is(err, service.ErrOperatorNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "operator not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
