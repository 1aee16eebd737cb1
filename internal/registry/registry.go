// Package registry tracks registered teams and issues their identifiers.
package registry

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Sentinel kinds for registry errors.
var (
	ErrEmptyName = errors.New("team name required")
)

// maxSlugLen bounds the name-derived part of a team id.
const maxSlugLen = 20

// Team is a registered team.
type Team struct {
	ID    string `json:"team_id"`
	Name  string `json:"team_name"`
	Token string `json:"team_session_id"`
}

// Registry is the in-memory team table.
type Registry struct {
	mu      sync.RWMutex
	byToken map[string]Team
	byID    map[string]string // team id -> token
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byToken: make(map[string]Team),
		byID:    make(map[string]string),
	}
}

// Register creates a team from its display name and returns the issued ids.
func (r *Registry) Register(name string) (Team, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return Team{}, ErrEmptyName
	}

	team := Team{
		ID:    teamID(clean),
		Name:  clean,
		Token: uuidHex(),
	}

	r.mu.Lock()
	r.byToken[team.Token] = team
	r.byID[team.ID] = team.Token
	r.mu.Unlock()
	return team, nil
}

// ByToken resolves a team from its session token.
func (r *Registry) ByToken(token string) (Team, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	team, ok := r.byToken[token]
	return team, ok
}

// Name resolves a team id to its display name, falling back to the id for
// unregistered teams.
func (r *Registry) Name(teamID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if token, ok := r.byID[teamID]; ok {
		if team, ok := r.byToken[token]; ok {
			return team.Name
		}
	}
	return teamID
}

// Count returns the number of registered teams.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}

// teamID derives a readable, collision-safe id: team-<slug>-<6 hex chars>.
func teamID(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	suffix := uuidHex()[:6]
	if slug == "" {
		return "team-" + suffix
	}
	return "team-" + slug + "-" + suffix
}

func uuidHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
