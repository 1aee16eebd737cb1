// Package app provides the core business service that implements the
// dependencies required by the HTTP API.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vrbench/refbox/internal/adapters/audit"
	"github.com/vrbench/refbox/internal/adapters/normalize"
	"github.com/vrbench/refbox/internal/adapters/repository"
	"github.com/vrbench/refbox/internal/domain/dedupe"
	"github.com/vrbench/refbox/internal/domain/model"
	"github.com/vrbench/refbox/internal/domain/overlay"
	"github.com/vrbench/refbox/internal/domain/session"
	"github.com/vrbench/refbox/internal/registry"
	"github.com/vrbench/refbox/pkg/logger"
	"github.com/vrbench/refbox/pkg/metrics"
)

const microsPerMilli = 1e3

// QuestionInfo is the public listing shape for a loaded question.
type QuestionInfo struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	SceneID   string `json:"scene_id"`
	VideoID   string `json:"video_id"`
	NumEvents int    `json:"num_events"`
}

// LeaderboardView is the merged leaderboard for one question.
type LeaderboardView struct {
	ActiveQuestionID int                        `json:"active_question_id"`
	Teams            []session.LeaderboardEntry `json:"teams"`
	TotalTeams       int                        `json:"total_teams"`
}

// SubmitView pairs a submit outcome with its audit verdict.
type SubmitView struct {
	Outcome session.SubmitOutcome
	Verdict string
}

// Service implements the API dependencies for the competition scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components.
	store    repository.Store
	manager  *session.Manager
	teams    *registry.Registry
	deduper  dedupe.Deduper
	trail    *audit.Trail
	overlays map[int][]session.LeaderboardEntry

	// Configuration.
	params          model.ScoringParams
	defaultTeamID   string
	defaultTeamName string
	fakeTeamCount   int
	fakeTeamSeed    int64
	auditCapacity   int
	auditWorkers    int
	dedupeSize      int
	clock           func() time.Time

	// State.
	started bool

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ground-truth store. Required before Start.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithScoringDefaults sets the default scoring parameters for new sessions.
func WithScoringDefaults(params model.ScoringParams) Option {
	return func(s *Service) {
		s.params = params
	}
}

// WithDefaultTeam identifies submissions without a registered team token.
func WithDefaultTeam(id, name string) Option {
	return func(s *Service) {
		if id != "" {
			s.defaultTeamID = id
		}
		if name != "" {
			s.defaultTeamName = name
		}
	}
}

// WithFakeTeams configures the synthetic leaderboard overlay; count zero
// disables it.
func WithFakeTeams(count int, seed int64) Option {
	return func(s *Service) {
		if count >= 0 {
			s.fakeTeamCount = count
		}
		s.fakeTeamSeed = seed
	}
}

// WithAuditQueue configures the audit trail queue.
func WithAuditQueue(capacity, workers int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.auditCapacity = capacity
		}
		if workers > 0 {
			s.auditWorkers = workers
		}
	}
}

// WithDedupeSize bounds the submission idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithClock injects a clock for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		overlays:        make(map[int][]session.LeaderboardEntry),
		params:          model.DefaultScoringParams(),
		defaultTeamID:   "0THING2LOSE",
		defaultTeamName: "0THING2LOSE",
		fakeTeamCount:   15,
		fakeTeamSeed:    42,
		auditCapacity:   4096,
		auditWorkers:    2,
		dedupeSize:      50_000,
		clock:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get()
	}
	if s.store == nil {
		return ErrNoGroundTruth
	}

	s.manager = session.NewManager(s.store,
		session.WithClock(s.clock),
		session.WithLogger(s.log),
		session.WithDefaultParams(s.params),
	)
	s.teams = registry.New()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.trail = audit.New(
		audit.WithCapacity(s.auditCapacity),
		audit.WithWorkers(s.auditWorkers),
		audit.WithLogger(s.log),
	)
	s.trail.Start(ctx)

	s.started = true
	s.log.Info(ctx, "scoring service started",
		logger.Int("questions", s.store.Count(ctx)),
		logger.Int("fake_teams", s.fakeTeamCount),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.trail.Stop()
	s.started = false
	s.log.Info(context.Background(), "scoring service stopped")
}

// StartQuestion opens a session for the question and seeds its synthetic
// overlay. Zero-valued overrides fall back to the configured defaults.
func (s *Service) StartQuestion(ctx context.Context, questionID int, overrides model.ScoringParams) (session.StartInfo, error) {
	info, err := s.manager.StartQuestion(ctx, questionID, overrides)
	if err != nil {
		return session.StartInfo{}, err
	}

	s.mu.Lock()
	if s.fakeTeamCount > 0 {
		gen := overlay.NewGenerator(s.fakeTeamSeed + int64(questionID))
		s.overlays[questionID] = gen.Generate(s.fakeTeamCount, info.TimeLimit)
	} else {
		delete(s.overlays, questionID)
	}
	s.mu.Unlock()

	metrics.RecordSessionStarted()
	metrics.UpdateActiveSessions(len(s.manager.ActiveQuestions()))
	return info, nil
}

// StopQuestion closes the session immediately.
func (s *Service) StopQuestion(ctx context.Context, questionID int) (session.StopInfo, error) {
	info, err := s.manager.StopQuestion(ctx, questionID)
	if err != nil {
		return session.StopInfo{}, err
	}
	metrics.RecordSessionStopped()
	metrics.UpdateActiveSessions(len(s.manager.ActiveQuestions()))
	return info, nil
}

// ResetAll discards all sessions and overlays, returning the number of
// sessions cleared.
func (s *Service) ResetAll(ctx context.Context) int {
	count := s.manager.ResetAll(ctx)

	s.mu.Lock()
	s.overlays = make(map[int][]session.LeaderboardEntry)
	s.mu.Unlock()

	metrics.RecordSessionReset()
	metrics.UpdateActiveSessions(0)
	return count
}

// SessionStatuses reports every known session.
func (s *Service) SessionStatuses(_ context.Context) []session.Status {
	return s.manager.SessionStatuses()
}

// Questions lists the loaded ground truth.
func (s *Service) Questions(ctx context.Context) []QuestionInfo {
	all := s.store.All(ctx)
	infos := make([]QuestionInfo, 0, len(all))
	for _, gt := range all {
		infos = append(infos, QuestionInfo{
			ID:        gt.QuestionID,
			Type:      string(gt.Type),
			SceneID:   gt.SceneID,
			VideoID:   gt.VideoID,
			NumEvents: gt.EventCount(),
		})
	}
	return infos
}

// RegisterTeam registers a team name and returns the issued identifiers.
func (s *Service) RegisterTeam(ctx context.Context, name string) (registry.Team, error) {
	team, err := s.teams.Register(name)
	if err != nil {
		return registry.Team{}, err
	}
	metrics.UpdateRegisteredTeams(s.teams.Count())
	s.log.Info(ctx, "team registered",
		logger.String("team_id", team.ID),
		logger.String("team_name", team.Name),
	)
	return team, nil
}

// ResolveTeam maps an optional session token to a team identity. An empty
// token resolves to the default competition team; an unknown token fails.
func (s *Service) ResolveTeam(token string) (teamID, teamName string, ok bool) {
	if token == "" {
		return s.defaultTeamID, s.defaultTeamName, true
	}
	team, found := s.teams.ByToken(token)
	if !found {
		return "", "", false
	}
	return team.ID, team.Name, true
}

// ActiveQuestion returns the lowest-id currently active question.
func (s *Service) ActiveQuestion() (int, bool) {
	ids := s.manager.ActiveQuestions()
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}

// Submit normalizes and scores one submission for a team.
func (s *Service) Submit(ctx context.Context, teamID, teamName string, questionID int, payload normalize.Payload) (SubmitView, error) {
	gt, err := s.store.Lookup(ctx, questionID)
	if err != nil {
		return SubmitView{}, fmt.Errorf("%w: question %d: %w", session.ErrUnknownQuestion, questionID, err)
	}

	sub, err := normalize.Submission(payload, questionID, gt.Type)
	if err != nil {
		return SubmitView{}, err
	}

	started := s.clock()
	out, err := s.manager.Submit(ctx, questionID, teamID, teamName, sub)
	if err != nil {
		return SubmitView{}, err
	}
	metrics.RecordScoringDuration(float64(s.clock().Sub(started).Microseconds()) / microsPerMilli)

	verdict := verdictFor(out)
	metrics.RecordSubmission(verdict)
	switch {
	case out.Status == session.StatusScored && !out.Correct:
		metrics.RecordWrongAttempt()
	case out.Status == session.StatusScored && out.Correct:
		metrics.RecordCompletion()
	}

	s.trail.Record(ctx, audit.Record{
		QuestionID: questionID,
		TeamID:     teamID,
		Verdict:    verdict,
		Score:      out.Breakdown.Score,
		Elapsed:    out.Elapsed,
		At:         s.clock(),
	})

	return SubmitView{Outcome: out, Verdict: verdict}, nil
}

// verdictFor maps a submit outcome to its audit verdict.
func verdictFor(out session.SubmitOutcome) string {
	switch {
	case out.Status == session.StatusAlreadyCompleted:
		return audit.VerdictAlreadyCompleted
	case !out.Correct:
		return audit.VerdictIncorrect
	case out.Breakdown.Full():
		return audit.VerdictFull
	default:
		return audit.VerdictPartial
	}
}

// Leaderboard returns the merged (real + synthetic) leaderboard for a
// question. questionID zero selects the first active question; when none is
// active an empty view is returned.
func (s *Service) Leaderboard(_ context.Context, questionID int) LeaderboardView {
	if questionID == 0 {
		id, ok := s.ActiveQuestion()
		if !ok {
			return LeaderboardView{}
		}
		questionID = id
	}

	real := s.manager.Leaderboard(questionID)

	s.mu.RLock()
	fake := s.overlays[questionID]
	s.mu.RUnlock()

	teams := overlay.Merge(real, fake)
	return LeaderboardView{
		ActiveQuestionID: questionID,
		Teams:            teams,
		TotalTeams:       len(teams),
	}
}

// SeenAndRecord atomically checks and records a submission idempotency key.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	seen := s.deduper.SeenAndRecord(ctx, key)
	if seen {
		metrics.RecordDuplicateSubmission()
	}
	return seen
}

// Unrecord releases an idempotency key after a failed submission.
func (s *Service) Unrecord(ctx context.Context, key string) {
	s.deduper.Unrecord(ctx, key)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	stats := map[string]interface{}{
		"started": started,
	}
	if !started {
		return stats
	}

	ctx := context.Background()
	statuses := s.manager.SessionStatuses()
	active := 0
	for _, st := range statuses {
		if st.Active {
			active++
		}
	}

	stats["questions_loaded"] = s.store.Count(ctx)
	stats["sessions"] = len(statuses)
	stats["active_sessions"] = active
	stats["registered_teams"] = s.teams.Count()
	stats["dedupe_size"] = s.deduper.Size()
	stats["audit"] = s.trail.Snapshot()

	metrics.UpdateActiveSessions(active)
	metrics.UpdateRegisteredTeams(s.teams.Count())
	return stats
}
