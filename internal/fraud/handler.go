package fraud

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wanderstay/marketplace/pkg/common"
	"github.com/wanderstay/marketplace/pkg/pagination"
)

// EngineService is the fraud engine surface consumed by the HTTP handler
type EngineService interface {
	Check(ctx context.Context, subject Subject) (*CheckResult, error)
	RunScan(ctx context.Context, scope ScanScope) (ScanReport, error)
	GetAlert(ctx context.Context, alertID int64) (*FraudAlert, error)
	ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*FraudAlert, int64, error)
	ResolveAlert(ctx context.Context, alertID, resolverID int64, notes string, actionType ActionType) (*FraudAlert, error)
	MarkFalsePositive(ctx context.Context, alertID, reviewerID int64, notes string) (*FraudAlert, error)
	GetStatistics(ctx context.Context) (*Statistics, error)
}

// Handler exposes the fraud engine over HTTP
type Handler struct {
	service EngineService
}

// NewHandler creates a new fraud handler
func NewHandler(service EngineService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the fraud endpoints on the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/check/:type/:id", h.CheckSubject)
	rg.POST("/scan", h.RunScan)
	rg.GET("/alerts", h.ListAlerts)
	rg.GET("/alerts/:id", h.GetAlert)
	rg.POST("/alerts/:id/resolve", h.ResolveAlert)
	rg.POST("/alerts/:id/false-positive", h.MarkFalsePositive)
	rg.GET("/stats", h.GetStatistics)
}

// CheckSubject scores a single subject on demand
func (h *Handler) CheckSubject(c *gin.Context) {
	subjectType, err := ParseSubjectType(c.Param("type"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid subject type")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid subject id")
		return
	}

	result, err := h.service.Check(c.Request.Context(), Subject{Type: subjectType, ID: id})
	if err != nil {
		respondError(c, err)
		return
	}

	common.SuccessResponse(c, result)
}

// RunScan triggers a batch scan for the requested scope
func (h *Handler) RunScan(c *gin.Context) {
	var req RunScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	scope, err := ParseScanScope(req.Scope)
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid scan scope")
		return
	}

	report, err := h.service.RunScan(c.Request.Context(), scope)
	if err != nil {
		respondError(c, err)
		return
	}

	common.SuccessResponse(c, report)
}

// ListAlerts returns alerts matching the optional filters, highest score first
func (h *Handler) ListAlerts(c *gin.Context) {
	var filter AlertFilter

	if raw := c.Query("status"); raw != "" {
		status := AlertStatus(raw)
		switch status {
		case AlertStatusPending, AlertStatusResolved, AlertStatusFalsePositive:
			filter.Status = &status
		default:
			common.ErrorResponse(c, http.StatusBadRequest, "invalid status filter")
			return
		}
	}

	if raw := c.Query("severity"); raw != "" {
		severity := Severity(raw)
		switch severity {
		case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
			filter.Severity = &severity
		default:
			common.ErrorResponse(c, http.StatusBadRequest, "invalid severity filter")
			return
		}
	}

	if raw := c.Query("alert_type"); raw != "" {
		alertType := AlertType(raw)
		switch alertType {
		case AlertTypeSuspiciousUser, AlertTypeSuspiciousListing, AlertTypeSuspiciousBooking, AlertTypePaymentFraud:
			filter.AlertType = &alertType
		default:
			common.ErrorResponse(c, http.StatusBadRequest, "invalid alert_type filter")
			return
		}
	}

	params := pagination.ParseParams(c)

	alerts, total, err := h.service.ListAlerts(c.Request.Context(), filter, params.Limit, params.Offset)
	if err != nil {
		respondError(c, err)
		return
	}

	common.SuccessResponseWithMeta(c, alerts, pagination.BuildMeta(params.Limit, params.Offset, total))
}

// GetAlert returns a single alert by id
func (h *Handler) GetAlert(c *gin.Context) {
	alertID, ok := parseAlertID(c)
	if !ok {
		return
	}

	alert, err := h.service.GetAlert(c.Request.Context(), alertID)
	if err != nil {
		respondError(c, err)
		return
	}

	common.SuccessResponse(c, alert)
}

// ResolveAlert transitions a pending alert to resolved, optionally executing a
// remediation action
func (h *Handler) ResolveAlert(c *gin.Context) {
	alertID, ok := parseAlertID(c)
	if !ok {
		return
	}

	resolverID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ResolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.service.ResolveAlert(c.Request.Context(), alertID, resolverID, req.Notes, ActionType(req.ActionType))
	if err != nil {
		respondError(c, err)
		return
	}

	common.SuccessResponse(c, alert)
}

// MarkFalsePositive transitions a pending alert to false_positive
func (h *Handler) MarkFalsePositive(c *gin.Context) {
	alertID, ok := parseAlertID(c)
	if !ok {
		return
	}

	reviewerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req FalsePositiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	alert, err := h.service.MarkFalsePositive(c.Request.Context(), alertID, reviewerID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	common.SuccessResponse(c, alert)
}

// GetStatistics returns the aggregate alert report
func (h *Handler) GetStatistics(c *gin.Context) {
	stats, err := h.service.GetStatistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	common.SuccessResponse(c, stats)
}

func parseAlertID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid alert id")
		return 0, false
	}
	return id, true
}

func currentUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.GetString("user_id"), 10, 64)
	if err != nil || id <= 0 {
		common.ErrorResponse(c, http.StatusUnauthorized, "missing user identity")
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.AppErrorResponse(c, appErr)
		return
	}
	common.ErrorResponse(c, http.StatusInternalServerError, "internal server error")
}
