package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vrbench/refbox/internal/domain/model"
)

// Minimum columns in a ground-truth row: id, type, scene_id, video_id, points.
const minColumns = 5

// LoadCSV builds a MemoryStore from a competition ground-truth CSV.
//
// Expected layout, with or without a header row:
//
//	id,type,scene_id,video_id,points
//	1,KIS,L26,V017,"4890,5000,5001,5020"
//	3,TR,L26,V017,240,252,300,312
//
// Points may be one quoted comma-separated column or spread over trailing
// columns. QA rows may carry the exact answer text in a sixth "answer"
// column when the points are quoted.
func LoadCSV(path string) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ground truth file: %w", err)
	}
	defer f.Close()

	store, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return store, nil
}

// ReadCSV parses ground-truth rows from r into a fresh MemoryStore.
func ReadCSV(r io.Reader) (*MemoryStore, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	store := NewMemoryStore()
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line+1, err)
		}
		line++

		if len(record) < minColumns {
			return nil, fmt.Errorf("row %d: expected at least %d columns, got %d", line, minColumns, len(record))
		}

		idField := strings.TrimSpace(record[0])
		if line == 1 && !isNumeric(idField) {
			// Header row.
			continue
		}

		questionID, err := strconv.Atoi(idField)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid question id %q", line, idField)
		}

		taskType, err := model.ParseTaskType(strings.ToUpper(strings.TrimSpace(record[1])))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		points, answer, err := parseTail(record[4:])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		gt := model.GroundTruth{
			QuestionID: questionID,
			Type:       taskType,
			SceneID:    strings.TrimSpace(record[2]),
			VideoID:    strings.TrimSpace(record[3]),
			Points:     points,
			Answer:     answer,
		}
		if err := store.Put(gt); err != nil {
			return nil, err
		}
	}

	if store.Count(context.Background()) == 0 {
		return nil, ErrEmptyTable
	}
	return store, nil
}

// parseTail extracts points (and an optional trailing answer text) from the
// columns after video_id. Numeric tokens become points; a final non-numeric
// column is treated as the QA answer.
func parseTail(fields []string) ([]int, string, error) {
	var points []int
	answer := ""
	for i, field := range fields {
		for _, token := range strings.Split(field, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if !isNumeric(token) {
				if i == len(fields)-1 && answer == "" {
					answer = token
					continue
				}
				return nil, "", fmt.Errorf("invalid point value %q", token)
			}
			v, err := strconv.Atoi(token)
			if err != nil {
				return nil, "", fmt.Errorf("invalid point value %q", token)
			}
			points = append(points, v)
		}
	}
	return points, answer, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
