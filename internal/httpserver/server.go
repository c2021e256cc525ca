package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/glucolog/glucolog/internal/apperrors"
	"github.com/glucolog/glucolog/internal/auth"
	"github.com/glucolog/glucolog/internal/config"
	"github.com/glucolog/glucolog/internal/domain"
	"github.com/glucolog/glucolog/internal/interfaces"
	"github.com/glucolog/glucolog/internal/logger"
)

// Dependencies holds all service dependencies for the HTTP handlers
type Dependencies struct {
	Users      interfaces.UserServiceInterface
	Readings   interfaces.ReadingServiceInterface
	Runs       interfaces.RunServiceInterface
	Months     interfaces.MonthServiceInterface
	Caregivers interfaces.CaregiverServiceInterface
}

// SessionStore is the subset of the session store the server needs.
type SessionStore interface {
	Create(ctx context.Context, authID string) (string, error)
	Resolve(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

type Server struct {
	cfg      config.AuthConfig
	deps     Dependencies
	sessions SessionStore
	errs     *apperrors.Handler
}

func NewServer(cfg config.AuthConfig, deps Dependencies, sessions SessionStore) *Server {
	return &Server{
		cfg:      cfg,
		deps:     deps,
		sessions: sessions,
		errs:     apperrors.NewHandler(logger.GetLogger()),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", s.handleCreateSession)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Delete("/session", s.handleDeleteSession)

			r.Post("/readings", s.handleCreateReading)
			r.Get("/readings", s.handleListReadings)
			r.Delete("/readings/{readingID}", s.handleDeleteReading)
			r.Put("/readings/{readingID}/run", s.handleAttachReading)
			r.Delete("/readings/{readingID}/run", s.handleDetachReading)

			r.Post("/runs", s.handleCreateRun)
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{runID}/stats", s.handleRunStats)
			r.Post("/runs/{runID}/recalculate", s.handleRecalculateRun)
			r.Delete("/runs/{runID}", s.handleDeleteRun)
			r.Put("/runs/{runID}/month", s.handleAttachRun)

			r.Post("/months", s.handleCreateMonth)
			r.Get("/months", s.handleListMonths)
			r.Get("/months/{monthID}/stats", s.handleMonthStats)
			r.Delete("/months/{monthID}", s.handleDeleteMonth)

			r.Post("/caregiver/connections", s.handleCaregiverConnect)
			r.Get("/patients/{userID}/stats", s.handlePatientStats)
		})
	})

	return r
}

// Auth

type userKey struct{}

// authMiddleware resolves the caller to an internal user, creating the
// account on first authenticated access. Either a bearer JWT or a
// session token issued by POST /api/session is accepted.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authID, email, role, err := s.resolveSubject(r)
		if err != nil || authID == "" {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		user, err := s.deps.Users.GetOrCreateUser(r.Context(), authID, email, role)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSubject(r *http.Request) (authID, email string, role domain.Role, err error) {
	if token := r.Header.Get("X-Session-Token"); token != "" && s.sessions != nil {
		// Session resolution yields the subject only; the stored role
		// is authoritative for an existing account.
		authID, err = s.sessions.Resolve(r.Context(), token)
		return authID, "", domain.RoleStandard, err
	}

	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return "", "", domain.RoleStandard, errors.New("missing token")
	}
	claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		return "", "", domain.RoleStandard, err
	}
	return claims.AuthID, claims.Email, domain.Role(claims.Role), nil
}

func userFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey{}).(*domain.User)
	return user
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

// Helpers

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeAppError maps an application error to an HTTP status.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	s.errs.Handle(r.Context(), err)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrorTypeAuthorization:
		status = http.StatusForbidden
	case apperrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrorTypeInsufficientData:
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]string{
		"error":   appErr.Code,
		"message": appErr.Message,
	})
}
