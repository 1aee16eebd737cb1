// Package repository defines the ground-truth store and its loader.
package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vrbench/refbox/internal/domain/model"
)

// Store provides read access to ground-truth records keyed by question id.
type Store interface {
	// Lookup returns the ground truth for a question.
	// Returns ErrNotFound if the question is unknown.
	Lookup(ctx context.Context, questionID int) (model.GroundTruth, error)

	// All returns every ground-truth record ordered by question id.
	All(ctx context.Context) []model.GroundTruth

	// Count returns the number of loaded questions.
	Count(ctx context.Context) int
}

// MemoryStore is the in-process Store implementation. The table is written
// once at load time and read-only afterwards.
type MemoryStore struct {
	mu    sync.RWMutex
	table map[int]model.GroundTruth
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{table: make(map[int]model.GroundTruth)}
}

// Put validates and stores one ground-truth record.
func (s *MemoryStore) Put(gt model.GroundTruth) error {
	if err := validate(gt); err != nil {
		return err
	}
	s.mu.Lock()
	s.table[gt.QuestionID] = gt
	s.mu.Unlock()
	return nil
}

// Lookup returns the ground truth for a question id.
func (s *MemoryStore) Lookup(_ context.Context, questionID int) (model.GroundTruth, error) {
	s.mu.RLock()
	gt, ok := s.table[questionID]
	s.mu.RUnlock()
	if !ok {
		return model.GroundTruth{}, fmt.Errorf("%w: question %d", ErrNotFound, questionID)
	}
	return gt, nil
}

// All returns every record ordered by question id.
func (s *MemoryStore) All(_ context.Context) []model.GroundTruth {
	s.mu.RLock()
	out := make([]model.GroundTruth, 0, len(s.table))
	for _, gt := range s.table {
		out = append(out, gt)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

// Count returns the number of loaded questions.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// validate enforces the ground-truth invariants: a known task type and an
// even-length, ascending point sequence.
func validate(gt model.GroundTruth) error {
	if !gt.Type.Valid() {
		return fmt.Errorf("question %d: %w: %q", gt.QuestionID, model.ErrUnsupportedTaskType, string(gt.Type))
	}
	if len(gt.Points)%2 != 0 {
		return fmt.Errorf("question %d: %w: got %d points", gt.QuestionID, ErrOddPointCount, len(gt.Points))
	}
	for i := 1; i < len(gt.Points); i++ {
		if gt.Points[i] < gt.Points[i-1] {
			return fmt.Errorf("question %d: %w", gt.QuestionID, ErrUnsortedPoints)
		}
	}
	return nil
}
