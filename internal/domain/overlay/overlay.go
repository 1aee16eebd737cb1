// Package overlay generates synthetic leaderboard teams and merges them into
// the real projection. Overlay entries are read-only: they are produced once
// per question start and never written to the session ledger, so ledger
// invariants for real teams are unaffected.
package overlay

import (
	"math/rand"
	"strconv"

	"github.com/vrbench/refbox/internal/domain/session"
)

// Pool of synthetic team names.
var teamNames = []string{
	"CodeNinja", "ByteBusters", "AlgoMasters", "DataDragons",
	"PixelPirates", "QueryQueens", "FrameFinders", "ScriptSquad",
	"BinaryBandits", "LogicLords", "CacheCrusaders", "DebugDynasty",
	"RegexRebels", "StackSmashers", "HeapHeroes", "ArrayAces",
	"LinkedLegends", "TreeTraversers", "GraphGurus", "HashHustlers",
	"QueueKings", "RecursionRiders", "BitBrigade", "LoopLegends",
	"FunctionFury", "PointerPros", "MemoryMasters", "CompilerCrew",
}

// Generator produces synthetic leaderboard entries from a seeded source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator. The seed makes a question's overlay
// reproducible.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // simulation data, not security sensitive
}

// Generate produces up to count completed synthetic entries for a question
// with the given time limit in seconds. Teams that "never submitted" or
// never answered correctly are omitted, mirroring the real projection which
// only shows completed teams.
func (g *Generator) Generate(count int, timeLimit float64) []session.LeaderboardEntry {
	names := g.names(count)
	entries := make([]session.LeaderboardEntry, 0, count)
	for _, name := range names {
		wrong, correct := g.attempts()
		if correct == 0 {
			continue
		}
		entries = append(entries, session.LeaderboardEntry{
			TeamID:      name,
			TeamName:    name,
			Score:       g.weightedScore(),
			TimeTaken:   g.submitTime(timeLimit),
			SubmitCount: wrong + 1,
			WrongCount:  wrong,
		})
	}
	return entries
}

// Merge combines real and overlay entries into one freshly ranked view.
// Inputs are not modified.
func Merge(real, fake []session.LeaderboardEntry) []session.LeaderboardEntry {
	merged := make([]session.LeaderboardEntry, 0, len(real)+len(fake))
	merged = append(merged, real...)
	merged = append(merged, fake...)
	session.Rank(merged)
	return merged
}

// names samples count distinct names, padding with numbered teams when the
// pool runs out.
func (g *Generator) names(count int) []string {
	pool := append([]string(nil), teamNames...)
	for len(pool) < count {
		pool = append(pool, "Team"+strconv.Itoa(100+g.rng.Intn(900)))
	}
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}

// attempts draws a (wrong, correct) pair:
// 15% no submission, then 60% first-try correct, 25% one wrong then correct,
// 10% two-to-three wrong then correct, 5% only wrong attempts.
func (g *Generator) attempts() (wrong, correct int) {
	if g.rng.Float64() >= 0.85 {
		return 0, 0
	}
	switch r := g.rng.Float64(); {
	case r < 0.60:
		return 0, 1
	case r < 0.85:
		return 1, 1
	case r < 0.95:
		return 2 + g.rng.Intn(2), 1
	default:
		return 1 + g.rng.Intn(3), 0
	}
}

// weightedScore draws a score skewed toward the middle of the range:
// 15% in 80-100, 30% in 60-80, 35% in 40-60, 20% below 40.
func (g *Generator) weightedScore() float64 {
	switch r := g.rng.Float64(); {
	case r < 0.15:
		return round1(80 + g.rng.Float64()*20)
	case r < 0.45:
		return round1(60 + g.rng.Float64()*20)
	case r < 0.80:
		return round1(40 + g.rng.Float64()*20)
	default:
		return round1(g.rng.Float64() * 40)
	}
}

// submitTime draws a completion time weighted toward the start of the window:
// 50% in the first quarter, 30% second, 15% third, 5% last.
func (g *Generator) submitTime(timeLimit float64) float64 {
	quarter := timeLimit * 0.25
	switch r := g.rng.Float64(); {
	case r < 0.50:
		return round1(g.rng.Float64() * quarter)
	case r < 0.80:
		return round1(quarter + g.rng.Float64()*quarter)
	case r < 0.95:
		return round1(2*quarter + g.rng.Float64()*quarter)
	default:
		return round1(3*quarter + g.rng.Float64()*quarter)
	}
}

func round1(x float64) float64 {
	return float64(int(x*10+0.5)) / 10
}
