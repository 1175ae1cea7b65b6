package returns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/shared"
)

type ledgerKey struct {
	part     string
	location string
}

type memoryRepo struct {
	orders       map[string]orders.Order
	nextReturnID int64
	returns      map[int64]ReturnRecord
	nextDefectID int64
	defects      map[int64]Defect
	balances     map[ledgerKey]int64
	credits      int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:       map[string]orders.Order{},
		nextReturnID: 1,
		returns:      map[int64]ReturnRecord{},
		nextDefectID: 1,
		defects:      map[int64]Defect{},
		balances:     map[ledgerKey]int64{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Get(_ context.Context, id int64) (ReturnRecord, error) {
	record, ok := m.returns[id]
	if !ok {
		return ReturnRecord{}, ErrNotFound
	}
	return record, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]ReturnRecord, error) {
	records := []ReturnRecord{}
	for _, record := range m.returns {
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if filter.OrderID != "" && record.OrderID != filter.OrderID {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (m *memoryRepo) GetDefect(_ context.Context, id int64) (Defect, error) {
	defect, ok := m.defects[id]
	if !ok {
		return Defect{}, ErrNotFound
	}
	return defect, nil
}

func (m *memoryRepo) GetDefectForUpdate(ctx context.Context, id int64) (Defect, error) {
	return m.GetDefect(ctx, id)
}

func (m *memoryRepo) ListDefects(_ context.Context, _ int) ([]Defect, error) {
	defects := []Defect{}
	for _, defect := range m.defects {
		defects = append(defects, defect)
	}
	return defects, nil
}

func (m *memoryRepo) UpdateDefect(_ context.Context, defect Defect) (Defect, error) {
	if _, ok := m.defects[defect.ID]; !ok {
		return Defect{}, ErrNotFound
	}
	defect.UpdatedAt = time.Now()
	m.defects[defect.ID] = defect
	return defect, nil
}

func (m *memoryRepo) GetOrder(_ context.Context, orderID string) (orders.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return order, nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, id int64) (ReturnRecord, error) {
	return m.Get(ctx, id)
}

func (m *memoryRepo) Insert(_ context.Context, record ReturnRecord) (int64, error) {
	record.ID = m.nextReturnID
	record.CreatedAt = time.Now()
	m.returns[record.ID] = record
	m.nextReturnID++
	return record.ID, nil
}

func (m *memoryRepo) SetStatus(_ context.Context, id int64, status Status) error {
	record := m.returns[id]
	record.Status = status
	m.returns[id] = record
	return nil
}

func (m *memoryRepo) SetDecision(_ context.Context, id int64, status Status, remarks string, decidedBy int64, at time.Time) error {
	record := m.returns[id]
	record.Status = status
	record.Remarks = remarks
	record.DecidedBy = &decidedBy
	record.DecidedAt = &at
	m.returns[id] = record
	return nil
}

func (m *memoryRepo) InsertDefect(_ context.Context, defect Defect) (int64, error) {
	defect.ID = m.nextDefectID
	defect.CreatedAt = time.Now()
	defect.UpdatedAt = defect.CreatedAt
	m.defects[defect.ID] = defect
	m.nextDefectID++
	return defect.ID, nil
}

func (m *memoryRepo) CreditRecord(_ context.Context, input inventory.CreditInput) (inventory.Record, error) {
	key := ledgerKey{part: input.PartName, location: input.Location}
	m.balances[key] += input.Qty
	m.credits++
	return inventory.Record{PartName: input.PartName, Location: input.Location, Qty: m.balances[key]}, nil
}

func seedOrder(m *memoryRepo, id string, stage orders.Stage, model string, qty int64) {
	m.orders[id] = orders.Order{ID: id, Model: model, Quantity: qty, Destination: "Pune", Stage: stage}
}

func triageActor(role shared.Role) shared.Actor {
	return shared.Actor{ID: 3, Name: "Farah", Role: role}
}

func TestFunctionalAcceptCreditsWarehouseOnce(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, "ORD-9", orders.StageDelivered, "Ergo Chair", 5)
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), triageActor(shared.RoleSales), CreateInput{
		OrderID:  "ORD-9",
		Category: CategoryFunctional,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, created.Status)
	require.Equal(t, "Ergo Chair", created.ChairType)
	require.Equal(t, int64(5), created.Qty)
	require.Empty(t, created.Warning)

	moved, err := svc.MoveToFitting(context.Background(), triageActor(shared.RoleSales), created.ID)
	require.NoError(t, err)
	require.Equal(t, StatusInFitting, moved.Status)

	result, err := svc.Decide(context.Background(), triageActor(shared.RoleFitting), created.ID, DecideInput{Decision: StatusAccepted, Remarks: "restockable"})
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, result.Return.Status)
	require.NotNil(t, result.Ledger)
	require.Nil(t, result.DefectID)
	require.Equal(t, int64(5), repo.balances[ledgerKey{part: "Ergo Chair", location: inventory.LocationWarehouse}])
	require.Equal(t, 1, repo.credits)

	_, err = svc.Decide(context.Background(), triageActor(shared.RoleFitting), created.ID, DecideInput{Decision: StatusAccepted})
	require.ErrorIs(t, err, ErrAlreadyDecided)
	require.Equal(t, 1, repo.credits)
}

func TestNonFunctionalAcceptOpensDefectWithoutCredit(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, "ORD-12", orders.StageDelivered, "Task Chair", 2)
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), triageActor(shared.RoleSales), CreateInput{
		OrderID:  "ORD-12",
		Category: CategoryNonFunctional,
	})
	require.NoError(t, err)

	_, err = svc.MoveToFitting(context.Background(), triageActor(shared.RoleSales), created.ID)
	require.NoError(t, err)

	result, err := svc.Decide(context.Background(), triageActor(shared.RoleFitting), created.ID, DecideInput{Decision: StatusAccepted, Remarks: "cracked base"})
	require.NoError(t, err)
	require.Nil(t, result.Ledger)
	require.NotNil(t, result.DefectID)
	require.Empty(t, repo.balances)

	defect, err := repo.GetDefect(context.Background(), *result.DefectID)
	require.NoError(t, err)
	require.Equal(t, created.ID, defect.ReturnID)
	require.Equal(t, "Task Chair", defect.ChairType)
	require.Equal(t, "UNASSESSED", defect.Severity)
}

func TestDefectPartialEditsKeepEarlierFields(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, "ORD-20", orders.StageDelivered, "Task Chair", 1)
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), triageActor(shared.RoleSales), CreateInput{OrderID: "ORD-20", Category: CategoryNonFunctional})
	require.NoError(t, err)
	_, err = svc.MoveToFitting(context.Background(), triageActor(shared.RoleSales), created.ID)
	require.NoError(t, err)
	result, err := svc.Decide(context.Background(), triageActor(shared.RoleFitting), created.ID, DecideInput{Decision: StatusAccepted})
	require.NoError(t, err)
	require.NotNil(t, result.DefectID)

	severity := "MAJOR"
	_, err = svc.UpdateDefect(context.Background(), triageActor(shared.RoleFitting), *result.DefectID, UpdateDefectInput{Severity: &severity})
	require.NoError(t, err)

	repair := "IN_REPAIR"
	updated, err := svc.UpdateDefect(context.Background(), triageActor(shared.RoleFitting), *result.DefectID, UpdateDefectInput{RepairStatus: &repair})
	require.NoError(t, err)
	require.Equal(t, "MAJOR", updated.Severity)
	require.Equal(t, "IN_REPAIR", updated.RepairStatus)

	_, err = svc.UpdateDefect(context.Background(), triageActor(shared.RoleFitting), 99, UpdateDefectInput{Severity: &severity})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRejectedHasNoSideEffects(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, "ORD-1", orders.StageDelivered, "Ergo Chair", 3)
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), triageActor(shared.RoleSales), CreateInput{OrderID: "ORD-1", Category: CategoryFunctional})
	require.NoError(t, err)
	_, err = svc.MoveToFitting(context.Background(), triageActor(shared.RoleSales), created.ID)
	require.NoError(t, err)

	result, err := svc.Decide(context.Background(), triageActor(shared.RoleFitting), created.ID, DecideInput{Decision: StatusRejected, Remarks: "not ours"})
	require.NoError(t, err)
	require.Equal(t, StatusRejected, result.Return.Status)
	require.Equal(t, "not ours", result.Return.Remarks)
	require.Empty(t, repo.balances)
	require.Empty(t, repo.defects)
}

func TestCreateAgainstUndeliveredOrderRecordsWarning(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, "ORD-5", orders.StageFitting, "Ergo Chair", 4)
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), triageActor(shared.RoleSales), CreateInput{OrderID: "ORD-5", Category: CategoryFunctional})
	require.NoError(t, err)
	require.Contains(t, created.Warning, "not been delivered")
}

func TestCreateUnknownOrder(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Create(context.Background(), triageActor(shared.RoleSales), CreateInput{OrderID: "ORD-404", Category: CategoryFunctional})
	require.ErrorIs(t, err, orders.ErrNotFound)
}

func TestDecideRequiresInFitting(t *testing.T) {
	repo := newMemoryRepo()
	seedOrder(repo, "ORD-2", orders.StageDelivered, "Ergo Chair", 1)
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), triageActor(shared.RoleSales), CreateInput{OrderID: "ORD-2", Category: CategoryFunctional})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), triageActor(shared.RoleFitting), created.ID, DecideInput{Decision: StatusAccepted})
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.MoveToFitting(context.Background(), triageActor(shared.RoleSales), created.ID)
	require.NoError(t, err)
	_, err = svc.MoveToFitting(context.Background(), triageActor(shared.RoleSales), created.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}
