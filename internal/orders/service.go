package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/chairline/chairline/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service drives orders through the fulfillment pipeline.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateInput carries the fields for a new order.
type CreateInput struct {
	ID           string
	Destination  string
	Model        string
	Quantity     int64
	OrderDate    time.Time
	DeliveryDate time.Time
}

// AmendInput carries the amendable fields. Nil means keep current value.
type AmendInput struct {
	Destination  *string
	OrderDate    *time.Time
	DeliveryDate *time.Time
}

// Create registers a new order at the warehouse stage.
func (s *Service) Create(ctx context.Context, input CreateInput, actor shared.Actor) (Order, error) {
	if input.ID == "" {
		return Order{}, fmt.Errorf("%w: order id required", ErrValidation)
	}
	if input.Quantity <= 0 {
		return Order{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if input.DeliveryDate.Before(input.OrderDate) {
		return Order{}, fmt.Errorf("%w: delivery date before order date", ErrValidation)
	}

	order := Order{
		ID:           input.ID,
		Destination:  input.Destination,
		Model:        input.Model,
		Quantity:     input.Quantity,
		OrderDate:    input.OrderDate,
		DeliveryDate: input.DeliveryDate,
		Stage:        StageWarehouse,
		CreatedBy:    actor.ID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Insert(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}

	s.recordAudit(ctx, actor, "ORDER_CREATE", order.ID, map[string]any{
		"destination": order.Destination,
		"model":       order.Model,
		"quantity":    order.Quantity,
	})
	return s.repo.Get(ctx, order.ID)
}

// Amend overwrites destination and dates while the amendment window is
// open, which closes the moment the order reaches dispatched.
func (s *Service) Amend(ctx context.Context, id string, input AmendInput, actor shared.Actor) (Order, error) {
	var amended Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !order.Amendable() {
			return fmt.Errorf("%w: amendment window closed at stage %s", ErrInvalidState, order.Stage)
		}
		if input.Destination != nil {
			order.Destination = *input.Destination
		}
		if input.OrderDate != nil {
			order.OrderDate = *input.OrderDate
		}
		if input.DeliveryDate != nil {
			order.DeliveryDate = *input.DeliveryDate
		}
		if order.DeliveryDate.Before(order.OrderDate) {
			return fmt.Errorf("%w: delivery date before order date", ErrValidation)
		}
		amended = order
		return tx.UpdateAmendable(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}

	s.recordAudit(ctx, actor, "ORDER_AMEND", id, map[string]any{"destination": amended.Destination})
	return s.repo.Get(ctx, id)
}

// Advance moves the order exactly one stage forward. At delivery the
// on-time flag is fixed once from the actual delivery date and never
// recomputed.
func (s *Service) Advance(ctx context.Context, id string, next Stage, actor shared.Actor) (Order, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		succ, ok := order.Stage.Next()
		if !ok || next != succ {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Stage, next)
		}
		order.Stage = next
		if next == StageDelivered {
			deliveredAt := s.now()
			onTime := SameOrBeforeDay(deliveredAt, order.DeliveryDate)
			order.DeliveredAt = &deliveredAt
			order.OnTime = &onTime
		}
		return tx.UpdateStage(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}

	s.recordAudit(ctx, actor, "ORDER_ADVANCE", id, map[string]any{"stage": next.String()})
	return s.repo.Get(ctx, id)
}

// Delete removes an order before any fulfillment work has started.
func (s *Service) Delete(ctx context.Context, id string, actor shared.Actor) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Stage != StageWarehouse {
			return fmt.Errorf("%w: fulfillment started at stage %s", ErrInvalidState, order.Stage)
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actor, "ORDER_DELETE", id, nil)
	return nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "order",
		EntityID: entityID,
		Meta:     meta,
	})
}
