package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glucolog/glucolog/internal/aggregation"
	"github.com/glucolog/glucolog/internal/auth"
	"github.com/glucolog/glucolog/internal/domain"
	"github.com/glucolog/glucolog/internal/validation"
)

func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 32)
	return uint(id), err
}

// Sessions

type sessionResponse struct {
	Token string `json:"token"`
}

// handleCreateSession exchanges a valid bearer JWT for a revocable
// session token kept in Redis.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotImplemented, "sessions_disabled")
		return
	}
	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_token")
		return
	}

	sessionToken, err := s.sessions.Create(r.Context(), claims.AuthID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: sessionToken})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeError(w, http.StatusNotImplemented, "sessions_disabled")
		return
	}
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing_session_token")
		return
	}
	if err := s.sessions.Revoke(r.Context(), token); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Readings

type createReadingRequest struct {
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
	MealContext string    `json:"mealContext"`
	Notes       string    `json:"notes"`
}

type readingResponse struct {
	ID          uint      `json:"id"`
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
	MealContext string    `json:"mealContext"`
	Notes       string    `json:"notes,omitempty"`
	RunID       *uint     `json:"runId,omitempty"`
}

func toReadingResponse(r *domain.Reading) readingResponse {
	return readingResponse{
		ID:          r.ID,
		Value:       r.Value,
		Timestamp:   r.Timestamp,
		MealContext: string(r.MealContext),
		Notes:       r.Notes,
		RunID:       r.RunID,
	}
}

func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req createReadingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	reading, err := s.deps.Readings.AddReading(r.Context(), user.ID, validation.ReadingInput{
		Value:       req.Value,
		Timestamp:   req.Timestamp,
		MealContext: domain.MealContext(req.MealContext),
		Notes:       req.Notes,
	})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReadingResponse(reading))
}

func (s *Server) handleListReadings(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	readings, err := s.deps.Readings.GetUserReadings(r.Context(), user.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	resp := make([]readingResponse, 0, len(readings))
	for i := range readings {
		resp = append(resp, toReadingResponse(&readings[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteReading(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	readingID, err := pathID(r, "readingID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	if err := s.deps.Readings.DeleteReading(r.Context(), user.ID, readingID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type attachReadingRequest struct {
	RunID uint `json:"runId"`
}

func (s *Server) handleAttachReading(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	readingID, err := pathID(r, "readingID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	var req attachReadingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	reading, err := s.deps.Readings.AttachToRun(r.Context(), user.ID, readingID, req.RunID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReadingResponse(reading))
}

func (s *Server) handleDetachReading(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	readingID, err := pathID(r, "readingID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	reading, err := s.deps.Readings.DetachFromRun(r.Context(), user.ID, readingID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReadingResponse(reading))
}

// Runs

type createIntervalRequest struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

type runResponse struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	MonthID        *uint     `json:"monthId,omitempty"`
	AverageGlucose *float64  `json:"averageGlucose,omitempty"`
	CalculatedA1C  *float64  `json:"calculatedA1c,omitempty"`
}

func toRunResponse(run *domain.Run) runResponse {
	return runResponse{
		ID:             run.ID,
		Name:           run.Name,
		StartDate:      run.StartDate,
		EndDate:        run.EndDate,
		MonthID:        run.MonthID,
		AverageGlucose: run.AverageGlucose,
		CalculatedA1C:  run.CalculatedA1C,
	}
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req createIntervalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	run, err := s.deps.Runs.CreateRun(r.Context(), user.ID, req.Name, req.StartDate, req.EndDate)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunResponse(run))
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	runs, err := s.deps.Runs.GetUserRuns(r.Context(), user.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	resp := make([]runResponse, 0, len(runs))
	for i := range runs {
		resp = append(resp, toRunResponse(&runs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	runID, err := pathID(r, "runID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	stats, err := s.deps.Runs.GetRunStats(r.Context(), user.ID, runID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(stats))
}

func (s *Server) handleRecalculateRun(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	runID, err := pathID(r, "runID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	run, err := s.deps.Runs.Recalculate(r.Context(), user.ID, runID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	runID, err := pathID(r, "runID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	if err := s.deps.Runs.DeleteRun(r.Context(), user.ID, runID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type attachRunRequest struct {
	MonthID uint `json:"monthId"`
}

func (s *Server) handleAttachRun(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	runID, err := pathID(r, "runID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	var req attachRunRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	run, err := s.deps.Runs.AttachToMonth(r.Context(), user.ID, runID, req.MonthID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRunResponse(run))
}

// Months

type monthResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

func toMonthResponse(m *domain.Month) monthResponse {
	return monthResponse{
		ID:        m.ID,
		Name:      m.Name,
		StartDate: m.StartDate,
		EndDate:   m.EndDate,
	}
}

func (s *Server) handleCreateMonth(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req createIntervalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	month, err := s.deps.Months.CreateMonth(r.Context(), user.ID, req.Name, req.StartDate, req.EndDate)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMonthResponse(month))
}

func (s *Server) handleListMonths(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	months, err := s.deps.Months.GetUserMonths(r.Context(), user.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	resp := make([]monthResponse, 0, len(months))
	for i := range months {
		resp = append(resp, toMonthResponse(&months[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type monthStatsResponse struct {
	RunCount       int      `json:"runCount"`
	AverageGlucose *float64 `json:"averageGlucose"`
	A1CEstimate    *float64 `json:"a1cEstimate"`
	Weighted       bool     `json:"weighted"`
}

func (s *Server) handleMonthStats(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	monthID, err := pathID(r, "monthID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	weighted := r.URL.Query().Get("weighted") == "true"

	stats, err := s.deps.Months.GetMonthStats(r.Context(), user.ID, monthID, weighted)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, monthStatsResponse{
		RunCount:       stats.RunCount,
		AverageGlucose: stats.AverageGlucose,
		A1CEstimate:    stats.A1CEstimate,
		Weighted:       weighted,
	})
}

func (s *Server) handleDeleteMonth(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	monthID, err := pathID(r, "monthID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	if err := s.deps.Months.DeleteMonth(r.Context(), user.ID, monthID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Caregiver access

type connectRequest struct {
	UserID uint `json:"userId"`
}

func (s *Server) handleCaregiverConnect(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	var req connectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	if err := s.deps.Caregivers.Connect(r.Context(), user, req.UserID); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePatientStats serves aggregate stats for another user's readings
// to a connected caregiver. Read access only.
func (s *Server) handlePatientStats(w http.ResponseWriter, r *http.Request) {
	actor := userFromContext(r.Context())
	targetID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}

	if err := s.deps.Caregivers.AuthorizeRead(r.Context(), actor, targetID); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	readings, err := s.deps.Readings.GetUserReadings(r.Context(), targetID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	stats := aggregation.ComputeStats(readings)
	writeJSON(w, http.StatusOK, toStatsResponse(&stats))
}

// Stats

type distributionResponse struct {
	LowCount      int     `json:"lowCount"`
	NormalCount   int     `json:"normalCount"`
	HighCount     int     `json:"highCount"`
	VeryHighCount int     `json:"veryHighCount"`
	LowPct        float64 `json:"lowPct"`
	NormalPct     float64 `json:"normalPct"`
	HighPct       float64 `json:"highPct"`
	VeryHighPct   float64 `json:"veryHighPct"`
}

type statsResponse struct {
	ReadingCount   int                  `json:"readingCount"`
	AverageGlucose *float64             `json:"averageGlucose"`
	A1CEstimate    *float64             `json:"a1cEstimate"`
	TimeInRangePct float64              `json:"timeInRangePct"`
	Distribution   distributionResponse `json:"distribution"`
}

func toStatsResponse(stats *aggregation.Stats) statsResponse {
	return statsResponse{
		ReadingCount:   stats.ReadingCount,
		AverageGlucose: stats.AverageGlucose,
		A1CEstimate:    stats.A1CEstimate,
		TimeInRangePct: stats.TimeInRangePct,
		Distribution: distributionResponse{
			LowCount:      stats.Distribution.LowCount,
			NormalCount:   stats.Distribution.NormalCount,
			HighCount:     stats.Distribution.HighCount,
			VeryHighCount: stats.Distribution.VeryHighCount,
			LowPct:        stats.Distribution.LowPct,
			NormalPct:     stats.Distribution.NormalPct,
			HighPct:       stats.Distribution.HighPct,
			VeryHighPct:   stats.Distribution.VeryHighPct,
		},
	}
}
