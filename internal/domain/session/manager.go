// Package session owns the time-windowed lifecycle of questions and the
// per-team submission ledger. It arbitrates first-correct-wins semantics
// across concurrent submissions.
package session

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/vrbench/refbox/internal/domain/model"
	"github.com/vrbench/refbox/internal/domain/scoring"
	"github.com/vrbench/refbox/pkg/logger"
)

// GroundTruthSource is the read-only lookup the manager needs from the
// ground-truth store.
type GroundTruthSource interface {
	Lookup(ctx context.Context, questionID int) (model.GroundTruth, error)
}

// SubmitStatus distinguishes the two non-error outcomes of Submit.
type SubmitStatus string

// Submit outcomes.
const (
	// StatusScored means the submission went through the scoring pipeline
	// and was recorded in the ledger.
	StatusScored SubmitStatus = "scored"
	// StatusAlreadyCompleted means the team had already completed the
	// question; the outcome carries the frozen result and nothing was
	// recorded.
	StatusAlreadyCompleted SubmitStatus = "already_completed"
)

// SubmitOutcome is the single result produced by every successful Submit call.
type SubmitOutcome struct {
	Status    SubmitStatus
	Breakdown scoring.Breakdown
	// Correct mirrors Breakdown.Correct for scored outcomes.
	Correct bool
	// WrongCount is the team's wrong-attempt count after this submission.
	WrongCount int
	// FinalScore is the frozen score when Status is StatusAlreadyCompleted
	// or the submission just completed the question.
	FinalScore float64
	// CompletedAt is seconds from session start to the first correct
	// submission; zero when the team has not completed.
	CompletedAt float64
	Elapsed     float64
	Remaining   float64
}

// StartInfo reports a freshly started session.
type StartInfo struct {
	QuestionID int       `json:"question_id"`
	StartTime  time.Time `json:"start_time"`
	TimeLimit  float64   `json:"time_limit"`
	BufferTime float64   `json:"buffer_time"`
}

// StopInfo reports counters gathered while stopping a session.
type StopInfo struct {
	QuestionID       int `json:"question_id"`
	TotalSubmissions int `json:"total_submissions"`
	CompletedTeams   int `json:"completed_teams"`
}

// questionSession is one question's live state. The ledger is exclusively
// owned by its session and guarded by the session mutex.
type questionSession struct {
	mu         sync.Mutex
	questionID int
	startTime  time.Time
	params     model.ScoringParams
	window     time.Duration // timeLimit + bufferTime
	active     bool
	ledger     map[string]*TeamRecord
}

// activeLocked evaluates the acceptance window lazily against now. The buffer
// extends acceptance only; time decay still uses the raw time limit.
func (s *questionSession) activeLocked(now time.Time) bool {
	if !s.active {
		return false
	}
	return now.Sub(s.startTime) < s.window
}

func (s *questionSession) elapsedLocked(now time.Time) float64 {
	return now.Sub(s.startTime).Seconds()
}

func (s *questionSession) remainingLocked(now time.Time) float64 {
	remaining := s.params.TimeLimit - s.elapsedLocked(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Manager holds the shared session table keyed by question id. One session
// exists per question at a time; StartQuestion on the same id replaces the
// session entirely.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int]*questionSession

	store    GroundTruthSource
	clock    func() time.Time
	defaults model.ScoringParams
	log      logger.Logger
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithClock injects a clock for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithLogger sets a custom logger for the manager.
func WithLogger(log logger.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithDefaultParams sets the scoring parameters used when StartQuestion
// receives zero-valued overrides.
func WithDefaultParams(params model.ScoringParams) Option {
	return func(m *Manager) {
		m.defaults = params
	}
}

// NewManager constructs a Manager backed by the given ground-truth source.
func NewManager(store GroundTruthSource, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[int]*questionSession),
		store:    store,
		clock:    time.Now,
		defaults: model.DefaultScoringParams(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.Get()
	}
	return m
}

// fill replaces zero-valued overrides with the manager defaults.
func (m *Manager) fill(params model.ScoringParams) model.ScoringParams {
	if params.PMax == 0 {
		params.PMax = m.defaults.PMax
	}
	if params.PBase == 0 {
		params.PBase = m.defaults.PBase
	}
	if params.PPenalty == 0 {
		params.PPenalty = m.defaults.PPenalty
	}
	if params.TimeLimit <= 0 {
		params.TimeLimit = m.defaults.TimeLimit
	}
	if params.BufferTime < 0 {
		params.BufferTime = m.defaults.BufferTime
	}
	return params
}

// StartQuestion creates a fresh session for the question, replacing any
// existing one. Fails with ErrUnknownQuestion when no ground truth exists.
func (m *Manager) StartQuestion(ctx context.Context, questionID int, params model.ScoringParams) (StartInfo, error) {
	if _, err := m.store.Lookup(ctx, questionID); err != nil {
		return StartInfo{}, fmt.Errorf("%w: question %d: %w", ErrUnknownQuestion, questionID, err)
	}

	params = m.fill(params)
	s := &questionSession{
		questionID: questionID,
		startTime:  m.clock(),
		params:     params,
		window:     secondsToDuration(params.TimeLimit + params.BufferTime),
		active:     true,
		ledger:     make(map[string]*TeamRecord),
	}

	m.mu.Lock()
	m.sessions[questionID] = s
	m.mu.Unlock()

	m.log.Info(ctx, "question started",
		logger.Int("question_id", questionID),
		logger.Float64("time_limit", params.TimeLimit),
		logger.Float64("buffer_time", params.BufferTime),
	)
	return StartInfo{
		QuestionID: questionID,
		StartTime:  s.startTime,
		TimeLimit:  params.TimeLimit,
		BufferTime: params.BufferTime,
	}, nil
}

// StopQuestion closes the session immediately. Already-recorded ledger
// entries are left untouched; in-flight submissions that passed the activity
// check are allowed to complete.
func (m *Manager) StopQuestion(ctx context.Context, questionID int) (StopInfo, error) {
	s := m.session(questionID)
	if s == nil {
		return StopInfo{}, fmt.Errorf("%w: question %d has no session", ErrUnknownQuestion, questionID)
	}

	s.mu.Lock()
	s.active = false
	info := StopInfo{QuestionID: questionID}
	for _, rec := range s.ledger {
		info.TotalSubmissions += len(rec.SubmitTimes)
		if rec.Completed {
			info.CompletedTeams++
		}
	}
	s.mu.Unlock()

	m.log.Info(ctx, "question stopped",
		logger.Int("question_id", questionID),
		logger.Int("total_submissions", info.TotalSubmissions),
		logger.Int("completed_teams", info.CompletedTeams),
	)
	return info, nil
}

// IsActive reports whether the question currently accepts submissions.
func (m *Manager) IsActive(questionID int) bool {
	s := m.session(questionID)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked(m.clock())
}

// Elapsed returns seconds since the question started, zero without a session.
func (m *Manager) Elapsed(questionID int) float64 {
	s := m.session(questionID)
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked(m.clock())
}

// Remaining returns seconds left before the scored time limit (the buffer is
// excluded), zero without a session.
func (m *Manager) Remaining(questionID int) float64 {
	s := m.session(questionID)
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked(m.clock())
}

// Submit scores one submission and records the outcome in the ledger.
//
// The read-wrong-count, score, write-ledger sequence executes as a single
// atomic unit under the session lock so that concurrent submissions for the
// same team can never both observe the same wrong count or both freeze a
// completion.
func (m *Manager) Submit(ctx context.Context, questionID int, teamID, teamName string, sub model.NormalizedSubmission) (SubmitOutcome, error) {
	s := m.session(questionID)
	if s == nil {
		return SubmitOutcome{}, &NotActiveError{QuestionID: questionID}
	}

	gt, err := m.store.Lookup(ctx, questionID)
	if err != nil {
		return SubmitOutcome{}, fmt.Errorf("%w: question %d: %w", ErrUnknownQuestion, questionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := m.clock()
	elapsed := s.elapsedLocked(now)
	remaining := s.remainingLocked(now)

	if !s.activeLocked(now) {
		return SubmitOutcome{}, &NotActiveError{
			QuestionID: questionID,
			Elapsed:    elapsed,
			TimeLimit:  s.params.TimeLimit,
			BufferTime: s.params.BufferTime,
		}
	}

	rec := s.ledger[teamID]
	if rec != nil && rec.Completed {
		return SubmitOutcome{
			Status:      StatusAlreadyCompleted,
			Correct:     true,
			WrongCount:  rec.WrongCount,
			FinalScore:  rec.FinalScore,
			CompletedAt: round2(rec.FirstCorrectTime.Sub(s.startTime).Seconds()),
			Elapsed:     elapsed,
			Remaining:   remaining,
		}, nil
	}

	k := 0
	if rec != nil {
		k = rec.WrongCount
	}

	bd, err := scoring.Evaluate(sub, gt, elapsed, k, s.params)
	if err != nil {
		return SubmitOutcome{}, err
	}

	if rec == nil {
		rec = &TeamRecord{
			TeamID:     teamID,
			TeamName:   teamName,
			QuestionID: questionID,
		}
		s.ledger[teamID] = rec
	}
	rec.SubmitTimes = append(rec.SubmitTimes, now)

	out := SubmitOutcome{
		Status:    StatusScored,
		Breakdown: bd,
		Correct:   bd.Correct(),
		Elapsed:   elapsed,
		Remaining: remaining,
	}
	if !bd.Correct() {
		rec.WrongCount++
	} else if !rec.Completed {
		// First success freezes the record. The Completed guard holds the
		// frozen-fields invariant even if a second success ever reaches
		// this point.
		rec.Completed = true
		rec.CorrectCount = 1
		rec.FirstCorrectTime = now
		rec.FinalScore = bd.Score
		out.FinalScore = bd.Score
		out.CompletedAt = round2(elapsed)
		m.log.Info(ctx, "team completed question",
			logger.String("team_id", teamID),
			logger.Int("question_id", questionID),
			logger.Float64("score", bd.Score),
			logger.Float64("elapsed", elapsed),
		)
	}
	out.WrongCount = rec.WrongCount
	return out, nil
}

// session fetches the current session pointer for a question id.
func (m *Manager) session(questionID int) *questionSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[questionID]
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// Leaderboard projects completed ledger entries sorted by score descending,
// ties broken by time taken ascending, with dense 1-based ranks.
func (m *Manager) Leaderboard(questionID int) []LeaderboardEntry {
	s := m.session(questionID)
	if s == nil {
		return nil
	}

	s.mu.Lock()
	entries := make([]LeaderboardEntry, 0, len(s.ledger))
	for _, rec := range s.ledger {
		if !rec.Completed {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			TeamID:      rec.TeamID,
			TeamName:    rec.TeamName,
			Score:       rec.FinalScore,
			TimeTaken:   round2(rec.FirstCorrectTime.Sub(s.startTime).Seconds()),
			SubmitCount: len(rec.SubmitTimes),
			WrongCount:  rec.WrongCount,
		})
	}
	s.mu.Unlock()

	Rank(entries)
	return entries
}

// Rank sorts entries by score descending then time taken ascending and
// assigns contiguous 1-based ranks in place.
func Rank(entries []LeaderboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].TimeTaken < entries[j].TimeTaken
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}

// SessionStatuses reports the status of every known session, ordered by
// question id.
func (m *Manager) SessionStatuses() []Status {
	m.mu.RLock()
	sessions := make([]*questionSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	now := m.clock()
	statuses := make([]Status, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		st := Status{
			QuestionID: s.questionID,
			Active:     s.activeLocked(now),
			Elapsed:    round2(s.elapsedLocked(now)),
			Remaining:  round2(s.remainingLocked(now)),
			TotalTeams: len(s.ledger),
		}
		for _, rec := range s.ledger {
			if rec.Completed {
				st.CompletedTeams++
			}
		}
		s.mu.Unlock()
		statuses = append(statuses, st)
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].QuestionID < statuses[j].QuestionID })
	return statuses
}

// ActiveQuestions returns the ids of all currently active sessions, ascending.
func (m *Manager) ActiveQuestions() []int {
	m.mu.RLock()
	sessions := make([]*questionSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	now := m.clock()
	ids := make([]int, 0, len(sessions))
	for _, s := range sessions {
		s.mu.Lock()
		if s.activeLocked(now) {
			ids = append(ids, s.questionID)
		}
		s.mu.Unlock()
	}
	sort.Ints(ids)
	return ids
}

// ResetAll discards every session unconditionally and returns the number of
// sessions cleared.
func (m *Manager) ResetAll(ctx context.Context) int {
	m.mu.Lock()
	count := len(m.sessions)
	m.sessions = make(map[int]*questionSession)
	m.mu.Unlock()

	m.log.Info(ctx, "all question sessions reset", logger.Int("cleared", count))
	return count
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
