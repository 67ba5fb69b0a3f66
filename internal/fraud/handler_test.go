package fraud

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wanderstay/marketplace/pkg/common"
)

type mockEngineService struct {
	mock.Mock
}

func (m *mockEngineService) Check(ctx context.Context, subject Subject) (*CheckResult, error) {
	args := m.Called(ctx, subject)
	result, _ := args.Get(0).(*CheckResult)
	return result, args.Error(1)
}

func (m *mockEngineService) RunScan(ctx context.Context, scope ScanScope) (ScanReport, error) {
	args := m.Called(ctx, scope)
	report, _ := args.Get(0).(ScanReport)
	return report, args.Error(1)
}

func (m *mockEngineService) GetAlert(ctx context.Context, alertID int64) (*FraudAlert, error) {
	args := m.Called(ctx, alertID)
	alert, _ := args.Get(0).(*FraudAlert)
	return alert, args.Error(1)
}

func (m *mockEngineService) ListAlerts(ctx context.Context, filter AlertFilter, limit, offset int) ([]*FraudAlert, int64, error) {
	args := m.Called(ctx, filter, limit, offset)
	alerts, _ := args.Get(0).([]*FraudAlert)
	return alerts, int64(args.Int(1)), args.Error(2)
}

func (m *mockEngineService) ResolveAlert(ctx context.Context, alertID, resolverID int64, notes string, actionType ActionType) (*FraudAlert, error) {
	args := m.Called(ctx, alertID, resolverID, notes, actionType)
	alert, _ := args.Get(0).(*FraudAlert)
	return alert, args.Error(1)
}

func (m *mockEngineService) MarkFalsePositive(ctx context.Context, alertID, reviewerID int64, notes string) (*FraudAlert, error) {
	args := m.Called(ctx, alertID, reviewerID, notes)
	alert, _ := args.Get(0).(*FraudAlert)
	return alert, args.Error(1)
}

func (m *mockEngineService) GetStatistics(ctx context.Context) (*Statistics, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*Statistics)
	return stats, args.Error(1)
}

func setupRouter(service EngineService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	NewHandler(service).RegisterRoutes(router.Group("/fraud"))
	return router
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCheckSubjectEndpoint(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	service.On("Check", mock.Anything, Subject{Type: SubjectUser, ID: 42}).Return(&CheckResult{
		FraudScore: 90,
		RiskLevel:  RiskLevelCritical,
		Indicators: []string{"New account"},
	}, nil)

	w := doRequest(router, http.MethodPost, "/fraud/check/user/42", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	service.AssertExpectations(t)
}

func TestCheckSubjectEndpointRejectsBadInput(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	w := doRequest(router, http.MethodPost, "/fraud/check/invoice/42", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/fraud/check/user/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	service.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
}

func TestRunScanEndpoint(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	service.On("RunScan", mock.Anything, ScopeAll).Return(ScanReport{
		ScopeUsers:      {Scanned: 10, Flagged: 2},
		ScopeProperties: {Scanned: 5, Flagged: 0},
		ScopeBookings:   {Scanned: 7, Flagged: 1},
		ScopePayments:   {Scanned: 3, Flagged: 0},
	}, nil)

	w := doRequest(router, http.MethodPost, "/fraud/scan", RunScanRequest{Scope: "all"})

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestRunScanEndpointRejectsInvalidScope(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	w := doRequest(router, http.MethodPost, "/fraud/scan", RunScanRequest{Scope: "everything"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/fraud/scan", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	service.AssertNotCalled(t, "RunScan", mock.Anything, mock.Anything)
}

func TestListAlertsEndpointAppliesFilters(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	service.On("ListAlerts", mock.Anything, mock.MatchedBy(func(f AlertFilter) bool {
		return f.Status != nil && *f.Status == AlertStatusPending &&
			f.Severity != nil && *f.Severity == SeverityHigh &&
			f.AlertType == nil
	}), 10, 20).Return([]*FraudAlert{}, 0, nil)

	w := doRequest(router, http.MethodGet, "/fraud/alerts?status=pending&severity=high&limit=10&offset=20", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 10, resp.Meta.Limit)
	assert.Equal(t, 20, resp.Meta.Offset)
	service.AssertExpectations(t)
}

func TestListAlertsEndpointRejectsInvalidFilters(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	for _, path := range []string{
		"/fraud/alerts?status=open",
		"/fraud/alerts?severity=extreme",
		"/fraud/alerts?alert_type=spam",
	} {
		w := doRequest(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	service.AssertNotCalled(t, "ListAlerts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetAlertEndpointNotFound(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	service.On("GetAlert", mock.Anything, int64(7)).Return(nil, common.NewNotFoundError("alert not found", nil))

	w := doRequest(router, http.MethodGet, "/fraud/alerts/7", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveAlertEndpoint(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	now := time.Now()
	resolverID := int64(99)
	service.On("ResolveAlert", mock.Anything, int64(7), resolverID, "confirmed", ActionAccountSuspended).Return(&FraudAlert{
		ID:          7,
		Status:      AlertStatusResolved,
		ActionTaken: true,
		ResolvedBy:  &resolverID,
		ResolvedAt:  &now,
	}, nil)

	w := doRequest(router, http.MethodPost, "/fraud/alerts/7/resolve", ResolveAlertRequest{
		Notes:      "confirmed",
		ActionType: "account_suspended",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestResolveAlertEndpointRequiresIdentity(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "")

	w := doRequest(router, http.MethodPost, "/fraud/alerts/7/resolve", ResolveAlertRequest{ActionType: "no_action"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	service.AssertNotCalled(t, "ResolveAlert", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveAlertEndpointConflict(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	service.On("ResolveAlert", mock.Anything, int64(7), int64(99), "", ActionType("no_action")).Return(nil, common.NewConflictError("alert is not pending", nil))

	w := doRequest(router, http.MethodPost, "/fraud/alerts/7/resolve", ResolveAlertRequest{ActionType: "no_action"})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMarkFalsePositiveEndpoint(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	service.On("MarkFalsePositive", mock.Anything, int64(7), int64(99), "legit").Return(&FraudAlert{
		ID:     7,
		Status: AlertStatusFalsePositive,
	}, nil)

	w := doRequest(router, http.MethodPost, "/fraud/alerts/7/false-positive", FalsePositiveRequest{Notes: "legit"})

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestGetStatisticsEndpoint(t *testing.T) {
	service := new(mockEngineService)
	router := setupRouter(service, "99")

	service.On("GetStatistics", mock.Anything).Return(&Statistics{
		TotalAlerts:   5,
		CriticalCount: 1,
		DetectionRate: 40,
	}, nil)

	w := doRequest(router, http.MethodGet, "/fraud/stats", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}
