package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"discipline-service/internal/http/middleware"
	"discipline-service/internal/service"
)

type Handler struct {
	violationService *service.ViolationService
	cardService      *service.CardService
	log              zerolog.Logger
}

func NewHandler(
	violationService *service.ViolationService,
	cardService *service.CardService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		violationService: violationService,
		cardService:      cardService,
		log:              log,
	}
}

func (h *Handler) listViolations(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseViolationQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	records, err := h.violationService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": records}))
}

func (h *Handler) createViolation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req struct {
		EmployeeID   string     `json:"employee_id" binding:"required"`
		EmployeeName string     `json:"employee_name" binding:"required"`
		DepartmentID string     `json:"department_id"`
		Type         string     `json:"type" binding:"required"`
		Reason       string     `json:"reason"`
		OccurredAt   *time.Time `json:"occurred_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CreateViolationInput{
		EmployeeID:   req.EmployeeID,
		EmployeeName: req.EmployeeName,
		Type:         req.Type,
		Reason:       req.Reason,
		OccurredAt:   req.OccurredAt,
	}
	if dept := strings.TrimSpace(req.DepartmentID); dept != "" {
		id, err := uuid.Parse(dept)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid department_id"))
			return
		}
		input.DepartmentID = &id
	}

	record, err := h.violationService.Record(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	h.log.Info().
		Str("employee_id", record.EmployeeID).
		Str("type", record.Type).
		Str("created_by", principal.UserID.String()).
		Msg("violation recorded")

	c.JSON(http.StatusCreated, successResponse(record))
}

func (h *Handler) getCardStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	employeeID := strings.TrimSpace(c.Param("employee_id"))
	if employeeID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("invalid employee id"))
		return
	}

	report, err := h.cardService.Status(c.Request.Context(), principal, employeeID, strings.TrimSpace(c.Query("week")))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(report))
}

func (h *Handler) listCardStatuses(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	reports, err := h.cardService.Overview(c.Request.Context(), principal, strings.TrimSpace(c.Query("week")))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": reports}))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseViolationQuery(c *gin.Context) (service.ListViolationsOptions, error) {
	var opts service.ListViolationsOptions

	opts.EmployeeID = strings.TrimSpace(c.Query("employee_id"))

	if typeParam := c.Query("type"); typeParam != "" {
		opts.Types = splitCSV(typeParam)
	}
	if deptID := strings.TrimSpace(c.Query("department_id")); deptID != "" {
		id, err := uuid.Parse(deptID)
		if err != nil {
			return opts, err
		}
		opts.DepartmentID = &id
	}
	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		ts, err := time.Parse(time.RFC3339, dateFrom)
		if err != nil {
			return opts, err
		}
		opts.DateFrom = &ts
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		ts, err := time.Parse(time.RFC3339, dateTo)
		if err != nil {
			return opts, err
		}
		opts.DateTo = &ts
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}

	return opts, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
