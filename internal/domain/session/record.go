package session

import "time"

// TeamRecord is a team's submission ledger entry for one question. Created
// lazily on first submission, mutated only by the Manager while the session
// lock is held, and never deleted except by a full reset.
//
// Once Completed is set, FinalScore and FirstCorrectTime are frozen for the
// lifetime of the session.
type TeamRecord struct {
	TeamID           string
	TeamName         string
	QuestionID       int
	SubmitTimes      []time.Time
	WrongCount       int
	CorrectCount     int
	FirstCorrectTime time.Time
	FinalScore       float64
	Completed        bool
}

// LeaderboardEntry is the read-only projection of a completed ledger entry.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	TeamID      string  `json:"team_id"`
	TeamName    string  `json:"team_name,omitempty"`
	Score       float64 `json:"score"`
	TimeTaken   float64 `json:"time_taken"`
	SubmitCount int     `json:"submit_count"`
	WrongCount  int     `json:"wrong_count"`
}

// Status is a point-in-time view of one question session.
type Status struct {
	QuestionID     int     `json:"question_id"`
	Active         bool    `json:"is_active"`
	Elapsed        float64 `json:"elapsed_time"`
	Remaining      float64 `json:"remaining_time"`
	TotalTeams     int     `json:"total_teams"`
	CompletedTeams int     `json:"completed_teams"`
}
