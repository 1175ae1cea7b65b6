package production

import (
	"context"
	"fmt"
	"time"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the production inward flow.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateInput carries a new inward request.
type CreateInput struct {
	PartName   string
	Qty        int64
	AssignedTo int64
}

// Create registers a produced batch awaiting warehouse acceptance. No stock
// moves until the batch is accepted.
func (s *Service) Create(ctx context.Context, actor shared.Actor, input CreateInput) (Inward, error) {
	part := inventory.CanonicalPart(input.PartName)
	if part == "" {
		return Inward{}, fmt.Errorf("%w: part name is required", ErrValidation)
	}
	if input.Qty <= 0 {
		return Inward{}, fmt.Errorf("%w: qty must be positive", ErrValidation)
	}
	if input.AssignedTo <= 0 {
		return Inward{}, fmt.Errorf("%w: assigned_to is required", ErrValidation)
	}

	inward := Inward{
		PartName:   part,
		Qty:        input.Qty,
		AssignedTo: input.AssignedTo,
		Status:     InwardPending,
		CreatedBy:  actor.ID,
	}
	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		id, err = tx.Insert(ctx, inward)
		return err
	})
	if err != nil {
		return Inward{}, err
	}
	s.recordAudit(ctx, actor, "INWARD_CREATE", fmt.Sprint(id), map[string]any{
		"part_name":   part,
		"qty":         input.Qty,
		"assigned_to": input.AssignedTo,
	})
	return s.repo.Get(ctx, id)
}

// Accept flips a pending inward to accepted and credits the acting user's
// warehouse bucket in the same transaction. A second Accept on the same id
// fails with ErrAlreadyProcessed and leaves the ledger untouched.
func (s *Service) Accept(ctx context.Context, actor shared.Actor, id int64) (Inward, error) {
	location := actor.Location
	if location == "" {
		location = inventory.LocationWarehouse
	}
	acceptedAt := s.now()

	var accepted Inward
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inward, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inward.Status != InwardPending {
			return fmt.Errorf("%w: inward %d is already %s", ErrAlreadyProcessed, id, inward.Status)
		}
		if _, err := tx.CreditRecord(ctx, inventory.CreditInput{
			PartName:  inward.PartName,
			Location:  location,
			Qty:       inward.Qty,
			Kind:      inventory.KindSpare,
			RefModule: "PRODUCTION",
			RefID:     fmt.Sprint(id),
			ActorID:   actor.ID,
		}); err != nil {
			return err
		}
		if err := tx.MarkAccepted(ctx, id, actor.ID, location, acceptedAt); err != nil {
			return err
		}
		accepted = inward
		accepted.Status = InwardAccepted
		accepted.Location = location
		accepted.AcceptedBy = &actor.ID
		accepted.AcceptedAt = &acceptedAt
		return nil
	})
	if err != nil {
		return Inward{}, err
	}
	s.recordAudit(ctx, actor, "INWARD_ACCEPT", fmt.Sprint(id), map[string]any{
		"part_name": accepted.PartName,
		"qty":       accepted.Qty,
		"location":  location,
	})
	return accepted, nil
}

// Get returns one inward request.
func (s *Service) Get(ctx context.Context, id int64) (Inward, error) {
	return s.repo.Get(ctx, id)
}

// List returns inward requests matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Inward, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "production_inward",
		EntityID: entityID,
		Meta:     meta,
	})
}
