package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService exposes recorded split runs.
type HistoryService struct {
	runStore driven.RunStore
}

// NewHistoryService creates a new history service. runStore may be nil,
// in which case every call returns domain.ErrHistoryDisabled.
func NewHistoryService(runStore driven.RunStore) *HistoryService {
	return &HistoryService{runStore: runStore}
}

// List returns the most recent runs, newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.SplitRun, error) {
	if s.runStore == nil {
		return nil, domain.ErrHistoryDisabled
	}
	return s.runStore.List(ctx, limit)
}

// Get retrieves a run by ID. A unique ID prefix of at least 8 characters
// is accepted, so the short IDs shown by List can be pasted back.
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.SplitRun, error) {
	if s.runStore == nil {
		return nil, domain.ErrHistoryDisabled
	}
	fullID, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.runStore.Get(ctx, fullID)
}

// Delete removes a run from history.
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	if s.runStore == nil {
		return domain.ErrHistoryDisabled
	}
	fullID, err := s.resolve(ctx, id)
	if err != nil {
		return err
	}
	return s.runStore.Delete(ctx, fullID)
}

// resolve expands a short ID prefix to a full run ID.
func (s *HistoryService) resolve(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}
	if _, err := s.runStore.Get(ctx, id); err == nil {
		return id, nil
	}
	if len(id) < 8 {
		return "", fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}

	runs, err := s.runStore.List(ctx, 0)
	if err != nil {
		return "", err
	}
	var match string
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, id) {
			if match != "" {
				return "", fmt.Errorf("%w: run id %s is ambiguous", domain.ErrInvalidInput, id)
			}
			match = runs[i].ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	return match, nil
}
