package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucolog/glucolog/internal/aggregation"
	"github.com/glucolog/glucolog/internal/apperrors"
	"github.com/glucolog/glucolog/internal/auth"
	"github.com/glucolog/glucolog/internal/config"
	"github.com/glucolog/glucolog/internal/domain"
	"github.com/glucolog/glucolog/internal/validation"
)

const testSecret = "test-secret"

// --- fakes ---

type fakeUserService struct {
	user *domain.User
	err  error
}

func (f *fakeUserService) GetOrCreateUser(ctx context.Context, authID, email string, role domain.Role) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user != nil {
		return f.user, nil
	}
	if role == "" {
		role = domain.RoleStandard
	}
	return &domain.User{ID: 1, AuthID: authID, Email: email, Role: role}, nil
}

func (f *fakeUserService) GetUserByAuthID(ctx context.Context, authID string) (*domain.User, error) {
	return f.GetOrCreateUser(ctx, authID, "", domain.RoleStandard)
}

func (f *fakeUserService) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	return &domain.User{ID: id, Role: domain.RoleStandard}, nil
}

type fakeReadingService struct {
	readings  []domain.Reading
	attachErr error
	lastRunID uint
}

func (f *fakeReadingService) AddReading(ctx context.Context, userID uint, in validation.ReadingInput) (*domain.Reading, error) {
	reading, err := validation.ValidateReading(in, time.Now())
	if err != nil {
		return nil, err
	}
	reading.ID = 42
	reading.UserID = userID
	return reading, nil
}

func (f *fakeReadingService) GetUserReadings(ctx context.Context, userID uint) ([]domain.Reading, error) {
	return f.readings, nil
}

func (f *fakeReadingService) DeleteReading(ctx context.Context, userID, readingID uint) error {
	return nil
}

func (f *fakeReadingService) AttachToRun(ctx context.Context, userID, readingID, runID uint) (*domain.Reading, error) {
	if f.attachErr != nil {
		return nil, f.attachErr
	}
	f.lastRunID = runID
	return &domain.Reading{ID: readingID, UserID: userID, RunID: &runID}, nil
}

func (f *fakeReadingService) DetachFromRun(ctx context.Context, userID, readingID uint) (*domain.Reading, error) {
	return &domain.Reading{ID: readingID, UserID: userID}, nil
}

type fakeRunService struct {
	stats *aggregation.Stats
}

func (f *fakeRunService) CreateRun(ctx context.Context, userID uint, name string, start, end time.Time) (*domain.Run, error) {
	if end.Before(start) {
		return nil, apperrors.NewValidationError("endDate", "end date must not precede start date")
	}
	return &domain.Run{ID: 7, UserID: userID, Name: name, StartDate: start, EndDate: end}, nil
}

func (f *fakeRunService) GetUserRuns(ctx context.Context, userID uint) ([]domain.Run, error) {
	return nil, nil
}

func (f *fakeRunService) GetRunStats(ctx context.Context, userID, runID uint) (*aggregation.Stats, error) {
	if f.stats == nil {
		return &aggregation.Stats{}, nil
	}
	return f.stats, nil
}

func (f *fakeRunService) Recalculate(ctx context.Context, userID, runID uint) (*domain.Run, error) {
	return &domain.Run{ID: runID, UserID: userID}, nil
}

func (f *fakeRunService) DeleteRun(ctx context.Context, userID, runID uint) error {
	return nil
}

func (f *fakeRunService) AttachToMonth(ctx context.Context, userID, runID, monthID uint) (*domain.Run, error) {
	return &domain.Run{ID: runID, UserID: userID, MonthID: &monthID}, nil
}

type fakeMonthService struct {
	lastWeighted bool
}

func (f *fakeMonthService) CreateMonth(ctx context.Context, userID uint, name string, start, end time.Time) (*domain.Month, error) {
	return &domain.Month{ID: 3, UserID: userID, Name: name, StartDate: start, EndDate: end}, nil
}

func (f *fakeMonthService) GetUserMonths(ctx context.Context, userID uint) ([]domain.Month, error) {
	return nil, nil
}

func (f *fakeMonthService) GetMonthStats(ctx context.Context, userID, monthID uint, weighted bool) (*aggregation.MonthStats, error) {
	f.lastWeighted = weighted
	avg := 120.0
	return &aggregation.MonthStats{RunCount: 2, AverageGlucose: &avg}, nil
}

func (f *fakeMonthService) DeleteMonth(ctx context.Context, userID, monthID uint) error {
	return nil
}

type fakeCaregiverService struct {
	authorized map[uint]bool
}

func (f *fakeCaregiverService) Connect(ctx context.Context, caregiver *domain.User, userID uint) error {
	return nil
}

func (f *fakeCaregiverService) AuthorizeRead(ctx context.Context, actor *domain.User, targetUserID uint) error {
	if actor.ID == targetUserID || f.authorized[targetUserID] {
		return nil
	}
	return apperrors.NewAuthorizationError("no caregiver connection to this user")
}

// --- harness ---

type testServer struct {
	server   *Server
	readings *fakeReadingService
	runs     *fakeRunService
	months   *fakeMonthService
	carers   *fakeCaregiverService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	readings := &fakeReadingService{}
	runs := &fakeRunService{}
	months := &fakeMonthService{}
	carers := &fakeCaregiverService{authorized: map[uint]bool{}}

	server := NewServer(config.AuthConfig{JWTSecret: testSecret, JWTIssuer: "glucolog"}, Dependencies{
		Users:      &fakeUserService{},
		Readings:   readings,
		Runs:       runs,
		Months:     months,
		Caregivers: carers,
	}, nil)

	return &testServer{server: server, readings: readings, runs: runs, months: months, carers: carers}
}

func (ts *testServer) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)

	token, err := auth.NewAccessToken(testSecret, "glucolog", time.Minute, auth.Claims{AuthID: "auth0|u1"})
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/readings", nil)
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsBadToken(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/readings", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateReading(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodPost, "/api/readings", map[string]interface{}{
		"value":       112,
		"timestamp":   time.Now().Add(-time.Hour).Format(time.RFC3339),
		"mealContext": "before_lunch",
		"notes":       "after a walk",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp readingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint(42), resp.ID)
	assert.Equal(t, 112.0, resp.Value)
	assert.Equal(t, "before_lunch", resp.MealContext)
}

func TestCreateReadingValidation(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodPost, "/api/readings", map[string]interface{}{
		"value":       -5,
		"timestamp":   time.Now().Format(time.RFC3339),
		"mealContext": "before_lunch",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateReadingRejectsUnknownMealContext(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodPost, "/api/readings", map[string]interface{}{
		"value":       110,
		"timestamp":   time.Now().Format(time.RFC3339),
		"mealContext": "brunch",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttachReading(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodPut, "/api/readings/42/run", map[string]interface{}{"runId": 7})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), ts.readings.lastRunID)

	var resp readingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.RunID)
	assert.Equal(t, uint(7), *resp.RunID)
}

func TestAttachReadingOwnershipFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.readings.attachErr = apperrors.NewAuthorizationError("reading and run belong to different users")

	rec := ts.request(t, http.MethodPut, "/api/readings/42/run", map[string]interface{}{"runId": 7})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateRunRejectsInvertedInterval(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodPost, "/api/runs", map[string]interface{}{
		"name":      "March week 2",
		"startDate": "2024-03-10T00:00:00Z",
		"endDate":   "2024-03-01T00:00:00Z",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunStats(t *testing.T) {
	ts := newTestServer(t)
	avg := 120.0
	a1c := aggregation.EstimateA1C(avg)
	ts.runs.stats = &aggregation.Stats{
		ReadingCount:   7,
		AverageGlucose: &avg,
		A1CEstimate:    &a1c,
		TimeInRangePct: 100,
	}

	rec := ts.request(t, http.MethodGet, "/api/runs/7/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.AverageGlucose)
	assert.InDelta(t, 120.0, *resp.AverageGlucose, 1e-9)
	require.NotNil(t, resp.A1CEstimate)
	assert.InDelta(t, 5.81, *resp.A1CEstimate, 0.01)
}

func TestMonthStatsWeightedFlag(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/months/3/stats?weighted=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.months.lastWeighted)

	rec = ts.request(t, http.MethodGet, "/api/months/3/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ts.months.lastWeighted)
}

func TestPatientStatsRequiresConnection(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/patients/9/stats", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPatientStatsForConnectedCaregiver(t *testing.T) {
	ts := newTestServer(t)
	ts.carers.authorized[9] = true
	ts.readings.readings = []domain.Reading{
		{Value: 60}, {Value: 90}, {Value: 150}, {Value: 200},
	}

	rec := ts.request(t, http.MethodGet, "/api/patients/9/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.ReadingCount)
	assert.InDelta(t, 25.0, resp.TimeInRangePct, 1e-9)
	assert.Equal(t, 1, resp.Distribution.VeryHighCount)
}

func TestInvalidPathID(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.request(t, http.MethodGet, "/api/runs/abc/stats", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundMapsTo404(t *testing.T) {
	ts := newTestServer(t)
	ts.readings.attachErr = apperrors.NewNotFoundError("run", 99)

	rec := ts.request(t, http.MethodPut, "/api/readings/42/run", map[string]interface{}{"runId": 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp["error"])
	assert.Equal(t, "run not found", resp["message"])
}
