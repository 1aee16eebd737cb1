// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and environment vars.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"github.com/vrbench/refbox/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// GroundTruthPath points to the competition ground-truth CSV.
	GroundTruthPath string `koanf:"groundtruth_path"`

	// Scoring formula defaults, overridable per StartQuestion call.
	PMax       float64 `koanf:"p_max"`
	PBase      float64 `koanf:"p_base"`
	PPenalty   float64 `koanf:"p_penalty"`
	TimeLimit  float64 `koanf:"time_limit"`
	BufferTime float64 `koanf:"buffer_time"`

	// DefaultTeamID and DefaultTeamName identify submissions that arrive
	// without a registered team token.
	DefaultTeamID   string `koanf:"default_team_id"`
	DefaultTeamName string `koanf:"default_team_name"`

	// FakeTeamCount sets how many synthetic leaderboard teams each question
	// is seeded with; zero disables the overlay.
	FakeTeamCount int `koanf:"fake_team_count"`

	// FakeTeamSeed seeds the synthetic team generator.
	FakeTeamSeed int64 `koanf:"fake_team_seed"`

	// AuditQueueSize bounds the audit trail queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkerCount sets the number of audit consumers.
	AuditWorkerCount int `koanf:"audit_worker_count"`

	// DedupeSize bounds the submission idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":8000",
		GroundTruthPath:  "groundtruth.csv",
		PMax:             model.DefaultPMax,
		PBase:            model.DefaultPBase,
		PPenalty:         model.DefaultPPenalty,
		TimeLimit:        model.DefaultTimeLimit,
		BufferTime:       model.DefaultBufferTime,
		DefaultTeamID:    "0THING2LOSE",
		DefaultTeamName:  "0THING2LOSE",
		FakeTeamCount:    15,
		FakeTeamSeed:     42,
		AuditQueueSize:   4096,
		AuditWorkerCount: 2,
		DedupeSize:       50_000,
	}
}

// ScoringParams converts the configured defaults into formula parameters.
func (c *Config) ScoringParams() model.ScoringParams {
	return model.ScoringParams{
		PMax:       c.PMax,
		PBase:      c.PBase,
		PPenalty:   c.PPenalty,
		TimeLimit:  c.TimeLimit,
		BufferTime: c.BufferTime,
	}
}
