// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vrbench/refbox/internal/adapters/normalize"
	"github.com/vrbench/refbox/internal/app"
	"github.com/vrbench/refbox/internal/domain/model"
	"github.com/vrbench/refbox/internal/domain/session"
	"github.com/vrbench/refbox/internal/registry"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submission scoring pipeline.
	Submit(ctx context.Context, teamID, teamName string, questionID int, payload normalize.Payload) (app.SubmitView, error)
	SeenAndRecord(ctx context.Context, key string) bool
	Unrecord(ctx context.Context, key string)

	// Team identity.
	RegisterTeam(ctx context.Context, name string) (registry.Team, error)
	ResolveTeam(token string) (teamID, teamName string, ok bool)

	// Question and session control.
	Questions(ctx context.Context) []app.QuestionInfo
	StartQuestion(ctx context.Context, questionID int, overrides model.ScoringParams) (session.StartInfo, error)
	StopQuestion(ctx context.Context, questionID int) (session.StopInfo, error)
	SessionStatuses(ctx context.Context) []session.Status
	ResetAll(ctx context.Context) int

	// Read operations.
	ActiveQuestion() (int, bool)
	Leaderboard(ctx context.Context, questionID int) app.LeaderboardView
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submitHandler      *SubmitHandler
	questionsHandler   *QuestionsHandler
	teamHandler        *TeamHandler
	adminHandler       *AdminHandler
	leaderboardHandler *LeaderboardHandler
	dashboardHandler   *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		submitHandler:      NewSubmitHandler(deps),
		questionsHandler:   NewQuestionsHandler(deps),
		teamHandler:        NewTeamHandler(deps),
		adminHandler:       NewAdminHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		dashboardHandler:   newDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/submit", MetricsMiddleware(s.submitHandler.HandleSubmit, "submit"))
	mux.HandleFunc("/api/questions", MetricsMiddleware(s.questionsHandler.HandleGetQuestions, "questions"))
	mux.HandleFunc("/api/team/register", MetricsMiddleware(s.teamHandler.HandleRegister, "team_register"))
	mux.HandleFunc("/api/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/admin/start-question", MetricsMiddleware(s.adminHandler.HandleStartQuestion, "admin_start"))
	mux.HandleFunc("/admin/stop-question", MetricsMiddleware(s.adminHandler.HandleStopQuestion, "admin_stop"))
	mux.HandleFunc("/admin/sessions", MetricsMiddleware(s.adminHandler.HandleSessions, "admin_sessions"))
	mux.HandleFunc("/admin/reset", MetricsMiddleware(s.adminHandler.HandleReset, "admin_reset"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  any    `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeErrorDetail(w http.ResponseWriter, status int, code string, err error, detail any) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Detail: detail})
}
