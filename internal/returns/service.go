package returns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/shared"
)

// Defaults applied when a defect is opened from triage. Fitting staff refine
// them afterwards through the defect register.
const (
	defectSeverityUnassessed = "UNASSESSED"
	defectWarrantyUnknown    = "UNKNOWN"
	defectRepairPending      = "PENDING"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the returns triage flow.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateInput carries a new return intake.
type CreateInput struct {
	OrderID     string
	Category    Category
	ReturnDate  time.Time
	Description string
}

// DecideInput carries the triage decision.
type DecideInput struct {
	Decision Status
	Remarks  string
}

// DecideResult is the authoritative post-state of a decision.
type DecideResult struct {
	Return   ReturnRecord      `json:"return"`
	Ledger   *inventory.Record `json:"ledger,omitempty"`
	DefectID *int64            `json:"defectId,omitempty"`
}

// Create registers a return against an order. Provenance (chair model,
// quantity, destination) is copied from the order; an undelivered order is a
// warning on the record, not an error, so speculative returns stay loggable.
func (s *Service) Create(ctx context.Context, actor shared.Actor, input CreateInput) (ReturnRecord, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return ReturnRecord{}, fmt.Errorf("%w: order id is required", ErrValidation)
	}
	if !input.Category.Valid() {
		return ReturnRecord{}, fmt.Errorf("%w: category must be %s or %s", ErrValidation, CategoryFunctional, CategoryNonFunctional)
	}
	returnDate := input.ReturnDate
	if returnDate.IsZero() {
		returnDate = s.now()
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		record := ReturnRecord{
			OrderID:     order.ID,
			ChairType:   order.Model,
			Qty:         order.Quantity,
			Destination: order.Destination,
			Category:    input.Category,
			Status:      StatusPending,
			ReturnDate:  returnDate,
			Description: strings.TrimSpace(input.Description),
			CreatedBy:   actor.ID,
		}
		if order.Stage < orders.StageDelivered {
			record.Warning = fmt.Sprintf("order %s has not been delivered (stage %s)", order.ID, order.Stage)
		}
		id, err = tx.Insert(ctx, record)
		return err
	})
	if err != nil {
		return ReturnRecord{}, err
	}
	s.recordAudit(ctx, actor, "RETURN_CREATE", fmt.Sprint(id), map[string]any{
		"order_id": orderID,
		"category": input.Category,
	})
	return s.repo.Get(ctx, id)
}

// MoveToFitting sends a pending return to the fitting section for inspection.
func (s *Service) MoveToFitting(ctx context.Context, actor shared.Actor, id int64) (ReturnRecord, error) {
	var moved ReturnRecord
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		record, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if record.Status != StatusPending {
			return fmt.Errorf("%w: return %d is %s, expected %s", ErrInvalidTransition, id, record.Status, StatusPending)
		}
		if err := tx.SetStatus(ctx, id, StatusInFitting); err != nil {
			return err
		}
		moved = record
		moved.Status = StatusInFitting
		return nil
	})
	if err != nil {
		return ReturnRecord{}, err
	}
	s.recordAudit(ctx, actor, "RETURN_MOVE_TO_FITTING", fmt.Sprint(id), nil)
	return moved, nil
}

// Decide closes triage for an in-fitting return. Accepted functional units
// credit the warehouse ledger; accepted non-functional units open a defect.
// Both side effects commit atomically with the status write, and a second
// decision on the same return fails with ErrAlreadyDecided so the credit can
// never be applied twice.
func (s *Service) Decide(ctx context.Context, actor shared.Actor, id int64, input DecideInput) (DecideResult, error) {
	if input.Decision != StatusAccepted && input.Decision != StatusRejected {
		return DecideResult{}, fmt.Errorf("%w: decision must be %s or %s", ErrValidation, StatusAccepted, StatusRejected)
	}
	decidedAt := s.now()

	var result DecideResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		record, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if record.Status.Decided() {
			return fmt.Errorf("%w: return %d was already %s", ErrAlreadyDecided, id, record.Status)
		}
		if record.Status != StatusInFitting {
			return fmt.Errorf("%w: return %d is %s, expected %s", ErrInvalidTransition, id, record.Status, StatusInFitting)
		}

		if input.Decision == StatusAccepted {
			switch record.Category {
			case CategoryFunctional:
				credited, err := tx.CreditRecord(ctx, inventory.CreditInput{
					PartName:  record.ChairType,
					Location:  inventory.LocationWarehouse,
					Qty:       record.Qty,
					Kind:      inventory.KindFull,
					RefModule: "RETURNS",
					RefID:     fmt.Sprint(id),
					ActorID:   actor.ID,
					Note:      "return accepted",
				})
				if err != nil {
					return err
				}
				result.Ledger = &credited
			case CategoryNonFunctional:
				defectID, err := tx.InsertDefect(ctx, Defect{
					ReturnID:       id,
					ChairType:      record.ChairType,
					Qty:            record.Qty,
					Severity:       defectSeverityUnassessed,
					WarrantyStatus: defectWarrantyUnknown,
					RepairStatus:   defectRepairPending,
				})
				if err != nil {
					return err
				}
				result.DefectID = &defectID
			}
		}

		if err := tx.SetDecision(ctx, id, input.Decision, strings.TrimSpace(input.Remarks), actor.ID, decidedAt); err != nil {
			return err
		}
		result.Return = record
		result.Return.Status = input.Decision
		result.Return.Remarks = strings.TrimSpace(input.Remarks)
		result.Return.DecidedBy = &actor.ID
		result.Return.DecidedAt = &decidedAt
		return nil
	})
	if err != nil {
		return DecideResult{}, err
	}
	s.recordAudit(ctx, actor, "RETURN_DECIDE", fmt.Sprint(id), map[string]any{
		"decision": input.Decision,
		"category": result.Return.Category,
	})
	return result, nil
}

// UpdateDefectInput carries defect register edits.
type UpdateDefectInput struct {
	Severity       *string
	WarrantyStatus *string
	RepairStatus   *string
}

// UpdateDefect refines severity, warranty, or repair status on a defect.
// The row stays locked for the read-modify-write so concurrent edits queue
// instead of overwriting each other.
func (s *Service) UpdateDefect(ctx context.Context, actor shared.Actor, id int64, input UpdateDefectInput) (Defect, error) {
	var updated Defect
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		defect, err := tx.GetDefectForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if input.Severity != nil {
			defect.Severity = strings.TrimSpace(*input.Severity)
		}
		if input.WarrantyStatus != nil {
			defect.WarrantyStatus = strings.TrimSpace(*input.WarrantyStatus)
		}
		if input.RepairStatus != nil {
			defect.RepairStatus = strings.TrimSpace(*input.RepairStatus)
		}
		updated, err = tx.UpdateDefect(ctx, defect)
		return err
	})
	if err != nil {
		return Defect{}, err
	}
	s.recordAudit(ctx, actor, "DEFECT_UPDATE", fmt.Sprint(id), map[string]any{
		"severity":        updated.Severity,
		"warranty_status": updated.WarrantyStatus,
		"repair_status":   updated.RepairStatus,
	})
	return updated, nil
}

// Get returns one return record.
func (s *Service) Get(ctx context.Context, id int64) (ReturnRecord, error) {
	return s.repo.Get(ctx, id)
}

// List returns records matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]ReturnRecord, error) {
	return s.repo.List(ctx, filter)
}

// ListDefects returns the defect register.
func (s *Service) ListDefects(ctx context.Context, limit int) ([]Defect, error) {
	return s.repo.ListDefects(ctx, limit)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "return",
		EntityID: entityID,
		Meta:     meta,
	})
}
