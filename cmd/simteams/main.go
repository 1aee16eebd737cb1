// Command simteams drives a running scoring service with synthetic teams.
// It registers teams, starts a question, and fires randomized submissions so
// the leaderboard and session arbitration can be observed under load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultTeams     = 10
	defaultSubmits   = 5
	defaultTimeout   = 10 * time.Second
	defaultRunBudget = 5 * time.Minute
)

type question struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	SceneID   string `json:"scene_id"`
	VideoID   string `json:"video_id"`
	NumEvents int    `json:"num_events"`
}

type client struct {
	baseURL string
	http    *http.Client
}

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8000", "Base URL of the service")
		teams      = flag.Int("teams", defaultTeams, "Number of teams to register")
		submits    = flag.Int("submits", defaultSubmits, "Submissions per team")
		questionID = flag.Int("question", 0, "Question to drive (0 picks the first listed)")
		start      = flag.Bool("start", true, "Start the question via the admin endpoint first")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunBudget)
	defer cancel()

	c := &client{baseURL: *baseURL, http: &http.Client{Timeout: *timeout}}

	qs, err := c.questions(ctx)
	if err != nil {
		fail("list questions: " + err.Error())
	}
	if len(qs) == 0 {
		fail("service has no questions loaded")
	}

	q := qs[0]
	if *questionID != 0 {
		found := false
		for _, cand := range qs {
			if cand.ID == *questionID {
				q, found = cand, true
				break
			}
		}
		if !found {
			fail(fmt.Sprintf("question %d not found", *questionID))
		}
	}

	if *start {
		if err := c.startQuestion(ctx, q.ID); err != nil {
			fail("start question: " + err.Error())
		}
	}

	tokens := make([]string, 0, *teams)
	for i := 0; i < *teams; i++ {
		token, err := c.registerTeam(ctx, fmt.Sprintf("SimTeam%02d", i+1))
		if err != nil {
			fail("register team: " + err.Error())
		}
		tokens = append(tokens, token)
	}
	fmt.Printf("registered %d teams, driving question %d (%s)\n", len(tokens), q.ID, q.Type)

	var wg sync.WaitGroup
	for i, token := range tokens {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(*seed + int64(i)))
			for n := 0; n < *submits; n++ {
				time.Sleep(time.Duration(rng.Intn(500)) * time.Millisecond)
				verdict, err := c.submit(ctx, token, q, rng)
				if err != nil {
					fmt.Printf("team %02d submit %d failed: %v\n", i+1, n+1, err)
					continue
				}
				fmt.Printf("team %02d submit %d: %s\n", i+1, n+1, verdict)
			}
		}(i, token)
	}
	wg.Wait()

	board, err := c.leaderboard(ctx, q.ID)
	if err != nil {
		fail("fetch leaderboard: " + err.Error())
	}
	fmt.Println(board)
}

func fail(msg string) {
	os.Stderr.WriteString(msg + "\n")
	os.Exit(1)
}

func (c *client) questions(ctx context.Context) ([]question, error) {
	var out struct {
		Questions []question `json:"questions"`
	}
	if err := c.getJSON(ctx, "/api/questions", &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *client) startQuestion(ctx context.Context, id int) error {
	body := map[string]any{"question_id": id}
	return c.postJSON(ctx, "/admin/start-question", body, nil)
}

func (c *client) registerTeam(ctx context.Context, name string) (string, error) {
	var out struct {
		Token string `json:"team_session_id"`
	}
	if err := c.postJSON(ctx, "/api/team/register", map[string]any{"team_name": name}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// submit fires a randomized answer in the submission format the question
// type expects. Values are random, so most submissions score as incorrect.
func (c *client) submit(ctx context.Context, token string, q question, rng *rand.Rand) (string, error) {
	media := q.SceneID + "_" + q.VideoID
	body := map[string]any{"question_id": q.ID}
	switch q.Type {
	case "KIS":
		body["answerSets"] = []map[string]any{{
			"answers": []map[string]any{{
				"mediaItemName": media,
				"start":         strconv.Itoa(rng.Intn(600_000)),
			}},
		}}
	case "QA":
		body["answerSets"] = []map[string]any{{
			"answers": []map[string]any{{
				"text": fmt.Sprintf("QA-answer-%s-%d,%d", media, rng.Intn(600_000), rng.Intn(600_000)),
			}},
		}}
	default: // TR
		body["answerSets"] = []map[string]any{{
			"answers": []map[string]any{{
				"text": fmt.Sprintf("TR-%s-%d,%d", media, rng.Intn(10_000), rng.Intn(10_000)),
			}},
		}}
	}

	var out struct {
		Correctness string `json:"correctness"`
	}
	if err := c.postJSON(ctx, "/api/submit?session="+token, body, &out); err != nil {
		return "", err
	}
	return out.Correctness, nil
}

func (c *client) leaderboard(ctx context.Context, questionID int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/leaderboard?question_id=%d", c.baseURL, questionID), nil)
	if err != nil {
		return "", err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) postJSON(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
