package inventory

import (
	"context"
)

// ReadRepository abstracts ledger reads for the service.
type ReadRepository interface {
	Availability(ctx context.Context, partName string) ([]LocationQty, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
	ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error)
	CheckIntegrity(ctx context.Context) ([]Drift, error)
}

// Service exposes ledger reads. Writes happen inside the transactions of
// the components that own the respective flows (picking, production
// inward, returns triage), all funnelled through TxStore.
type Service struct {
	repo ReadRepository
}

// NewService builds Service.
func NewService(repo ReadRepository) *Service {
	return &Service{repo: repo}
}

// Availability lists per-location available quantities for one part.
func (s *Service) Availability(ctx context.Context, partName string) ([]LocationQty, error) {
	if CanonicalPart(partName) == "" {
		return nil, ErrPartRequired
	}
	return s.repo.Availability(ctx, partName)
}

// ListRecords lists inventory records.
func (s *Service) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	return s.repo.ListRecords(ctx, filter)
}

// ListMovements lists ledger journal entries.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// CheckIntegrity reports records whose balance disagrees with the journal.
func (s *Service) CheckIntegrity(ctx context.Context) ([]Drift, error) {
	return s.repo.CheckIntegrity(ctx)
}
