package picking

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the allocation engine: it satisfies a per-order part request
// from the source locations the operator picked, without overselling.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ComputeAvailability lists per-location availability for a part, sorted
// by location name. Restartable and finite; the operator picks from it.
func (s *Service) ComputeAvailability(ctx context.Context, partName string) ([]inventory.LocationQty, error) {
	if inventory.CanonicalPart(partName) == "" {
		return nil, inventory.ErrPartRequired
	}
	return s.repo.Availability(ctx, partName)
}

// Pick debits every source line, credits the fitting section with the
// aggregated quantities and advances the order from warehouse to fitting,
// all under one commit. A failing line leaves the ledger untouched.
//
// Lines with zero quantity are dropped (pick forms submit blank rows);
// negative quantities are rejected outright. Source quantities are
// re-read under row locks immediately before the debit, so a pick racing
// another commit fails with InsufficientStockError instead of overselling.
func (s *Service) Pick(ctx context.Context, orderID string, lines []PickLine, actor shared.Actor) (Result, error) {
	selected := make([]PickLine, 0, len(lines))
	for _, line := range lines {
		if line.Qty < 0 {
			return Result{}, fmt.Errorf("%w: negative quantity for record %d", ErrValidation, line.RecordID)
		}
		if line.Qty == 0 {
			continue
		}
		selected = append(selected, line)
	}
	if len(selected) == 0 {
		return Result{}, ErrEmptySelection
	}

	var result Result
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		// Follow-up picks are allowed while the order sits in fitting;
		// anything past that means fulfillment has moved on.
		if order.Stage > orders.StageFitting {
			return fmt.Errorf("%w: cannot pick at stage %s", orders.ErrInvalidState, order.Stage)
		}

		allocID := uuid.New().String()
		allocation := Allocation{ID: allocID, OrderID: orderID, CreatedBy: actor.ID}

		// Debits run in the caller-supplied order.
		type partTotal struct {
			part   string
			qty    int64
			colour string
			vendor string
		}
		var totals []partTotal
		index := map[string]int{}
		for _, line := range selected {
			rec, err := tx.DebitRecord(ctx, inventory.DebitInput{
				RecordID:  line.RecordID,
				Qty:       line.Qty,
				RefModule: "PICKING",
				RefID:     allocID,
				ActorID:   actor.ID,
				Note:      fmt.Sprintf("pick for order %s", orderID),
			})
			if err != nil {
				return err
			}
			allocation.Lines = append(allocation.Lines, AllocationLine{
				RecordID:       line.RecordID,
				PartName:       rec.PartName,
				SourceLocation: rec.Location,
				Qty:            line.Qty,
			})
			if i, ok := index[rec.PartName]; ok {
				totals[i].qty += line.Qty
			} else {
				index[rec.PartName] = len(totals)
				totals = append(totals, partTotal{part: rec.PartName, qty: line.Qty, colour: rec.Colour, vendor: rec.Vendor})
			}
		}

		// One aggregated credit per part at the fitting section.
		for _, total := range totals {
			dest, err := tx.CreditRecord(ctx, inventory.CreditInput{
				PartName:  total.part,
				Location:  inventory.LocationFitting,
				Qty:       total.qty,
				Kind:      inventory.KindSpare,
				Colour:    total.colour,
				Vendor:    total.vendor,
				RefModule: "PICKING",
				RefID:     allocID,
				ActorID:   actor.ID,
				Note:      fmt.Sprintf("pick for order %s", orderID),
			})
			if err != nil {
				return err
			}
			result.Destination = append(result.Destination, dest)
		}

		if err := tx.InsertAllocation(ctx, allocation); err != nil {
			return err
		}

		if order.Stage == orders.StageWarehouse {
			order.Stage = orders.StageFitting
			if err := tx.SetOrderStage(ctx, order); err != nil {
				return err
			}
		}

		result.Allocation = allocation
		result.Order = order
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   "PICK_COMMIT",
			Entity:   "pick_allocation",
			EntityID: result.Allocation.ID,
			Meta: map[string]any{
				"order_id": orderID,
				"lines":    len(result.Allocation.Lines),
			},
		})
	}
	return result, nil
}

// ListAllocations returns the committed picks for an order.
func (s *Service) ListAllocations(ctx context.Context, orderID string) ([]Allocation, error) {
	return s.repo.ListAllocations(ctx, orderID)
}
