package picking

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/shared"
)

type memoryRepo struct {
	records     map[int64]inventory.Record
	orders      map[string]orders.Order
	allocations []Allocation
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		records: map[int64]inventory.Record{},
		orders:  map[string]orders.Order{},
	}
}

// WithTx applies the callback to a copy and publishes it only on success,
// mirroring the rollback a real transaction gives.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := newMemoryRepo()
	for id, rec := range m.records {
		snapshot.records[id] = rec
	}
	for id, order := range m.orders {
		snapshot.orders[id] = order
	}
	snapshot.allocations = append(snapshot.allocations, m.allocations...)
	if err := fn(ctx, snapshot); err != nil {
		return err
	}
	m.records = snapshot.records
	m.orders = snapshot.orders
	m.allocations = snapshot.allocations
	return nil
}

func (m *memoryRepo) Availability(_ context.Context, partName string) ([]inventory.LocationQty, error) {
	part := inventory.CanonicalPart(partName)
	entries := []inventory.LocationQty{}
	for _, rec := range m.records {
		if rec.PartName == part && rec.Qty > 0 {
			entries = append(entries, inventory.LocationQty{RecordID: rec.ID, Location: rec.Location, Available: rec.Qty})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Location < entries[j].Location })
	return entries, nil
}

func (m *memoryRepo) ListAllocations(_ context.Context, orderID string) ([]Allocation, error) {
	allocations := []Allocation{}
	for _, alloc := range m.allocations {
		if alloc.OrderID == orderID {
			allocations = append(allocations, alloc)
		}
	}
	return allocations, nil
}

func (m *memoryRepo) GetOrderForUpdate(_ context.Context, orderID string) (orders.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return orders.Order{}, orders.ErrNotFound
	}
	return order, nil
}

func (m *memoryRepo) SetOrderStage(_ context.Context, order orders.Order) error {
	current := m.orders[order.ID]
	current.Stage = order.Stage
	m.orders[order.ID] = current
	return nil
}

func (m *memoryRepo) DebitRecord(_ context.Context, input inventory.DebitInput) (inventory.Record, error) {
	rec, ok := m.records[input.RecordID]
	if !ok {
		return inventory.Record{}, inventory.ErrRecordNotFound
	}
	if rec.Qty < input.Qty {
		return inventory.Record{}, &inventory.InsufficientStockError{
			PartName:  rec.PartName,
			Location:  rec.Location,
			Requested: input.Qty,
			Available: rec.Qty,
		}
	}
	rec.Qty -= input.Qty
	m.records[input.RecordID] = rec
	return rec, nil
}

func (m *memoryRepo) CreditRecord(_ context.Context, input inventory.CreditInput) (inventory.Record, error) {
	for id, rec := range m.records {
		if rec.PartName == input.PartName && rec.Location == input.Location {
			rec.Qty += input.Qty
			m.records[id] = rec
			return rec, nil
		}
	}
	id := int64(len(m.records) + 1000)
	rec := inventory.Record{ID: id, PartName: input.PartName, Location: input.Location, Qty: input.Qty, Kind: input.Kind}
	m.records[id] = rec
	return rec, nil
}

func (m *memoryRepo) InsertAllocation(_ context.Context, alloc Allocation) error {
	m.allocations = append(m.allocations, alloc)
	return nil
}

func (m *memoryRepo) seedRecord(id int64, part, location string, qty int64) {
	m.records[id] = inventory.Record{ID: id, PartName: part, Location: location, Qty: qty, Kind: inventory.KindSpare}
}

func (m *memoryRepo) seedOrder(id string, stage orders.Stage) {
	m.orders[id] = orders.Order{ID: id, Model: "Ergo Chair", Quantity: 1, Stage: stage}
}

func (m *memoryRepo) qty(id int64) int64 {
	return m.records[id].Qty
}

func (m *memoryRepo) fittingQty(part string) int64 {
	for _, rec := range m.records {
		if rec.PartName == part && rec.Location == inventory.LocationFitting {
			return rec.Qty
		}
	}
	return 0
}

func warehouseActor() shared.Actor {
	return shared.Actor{ID: 4, Name: "Wahid", Role: shared.RoleWarehouse, Location: "WAREHOUSE"}
}

func TestPickDebitsSourcesAndCreditsFitting(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedRecord(1, "Wheel", "WAREHOUSE_A", 10)
	repo.seedRecord(2, "Wheel", "WAREHOUSE_B", 4)
	repo.seedOrder("ORD-1", orders.StageWarehouse)
	svc := NewService(repo, nil)

	result, err := svc.Pick(context.Background(), "ORD-1", []PickLine{
		{RecordID: 1, Qty: 6},
		{RecordID: 2, Qty: 4},
	}, warehouseActor())
	require.NoError(t, err)

	require.Equal(t, int64(4), repo.qty(1))
	require.Equal(t, int64(0), repo.qty(2))
	require.Equal(t, int64(10), repo.fittingQty("Wheel"))
	require.Equal(t, orders.StageFitting, result.Order.Stage)

	// Caller line order is preserved in the allocation.
	require.Len(t, result.Allocation.Lines, 2)
	require.Equal(t, int64(1), result.Allocation.Lines[0].RecordID)
	require.Equal(t, int64(2), result.Allocation.Lines[1].RecordID)

	allocations, err := svc.ListAllocations(context.Background(), "ORD-1")
	require.NoError(t, err)
	require.Len(t, allocations, 1)
}

func TestPickAggregatesCreditPerPart(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedRecord(1, "Wheel", "WAREHOUSE_A", 5)
	repo.seedRecord(2, "Wheel", "WAREHOUSE_B", 5)
	repo.seedRecord(3, "Armrest", "WAREHOUSE_A", 5)
	repo.seedOrder("ORD-1", orders.StageWarehouse)
	svc := NewService(repo, nil)

	result, err := svc.Pick(context.Background(), "ORD-1", []PickLine{
		{RecordID: 1, Qty: 2},
		{RecordID: 3, Qty: 1},
		{RecordID: 2, Qty: 3},
	}, warehouseActor())
	require.NoError(t, err)

	// One destination record per part, not per line.
	require.Len(t, result.Destination, 2)
	require.Equal(t, int64(5), repo.fittingQty("Wheel"))
	require.Equal(t, int64(1), repo.fittingQty("Armrest"))
}

func TestPickInsufficientStockRollsBackEverything(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedRecord(1, "Wheel", "WAREHOUSE_A", 10)
	repo.seedRecord(2, "Wheel", "WAREHOUSE_B", 2)
	repo.seedOrder("ORD-1", orders.StageWarehouse)
	svc := NewService(repo, nil)

	_, err := svc.Pick(context.Background(), "ORD-1", []PickLine{
		{RecordID: 1, Qty: 6},
		{RecordID: 2, Qty: 5},
	}, warehouseActor())

	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, int64(5), insufficient.Requested)
	require.Equal(t, int64(2), insufficient.Available)

	// The first line's debit did not survive the failed commit.
	require.Equal(t, int64(10), repo.qty(1))
	require.Equal(t, int64(2), repo.qty(2))
	require.Equal(t, int64(0), repo.fittingQty("Wheel"))
	require.Equal(t, orders.StageWarehouse, repo.orders["ORD-1"].Stage)
	require.Empty(t, repo.allocations)
}

func TestPickLineHygiene(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedRecord(1, "Wheel", "WAREHOUSE_A", 10)
	repo.seedOrder("ORD-1", orders.StageWarehouse)
	svc := NewService(repo, nil)

	// Zero-qty rows are dropped; an all-zero selection is empty.
	_, err := svc.Pick(context.Background(), "ORD-1", []PickLine{{RecordID: 1, Qty: 0}}, warehouseActor())
	require.ErrorIs(t, err, ErrEmptySelection)

	_, err = svc.Pick(context.Background(), "ORD-1", nil, warehouseActor())
	require.ErrorIs(t, err, ErrEmptySelection)

	_, err = svc.Pick(context.Background(), "ORD-1", []PickLine{{RecordID: 1, Qty: -2}}, warehouseActor())
	require.ErrorIs(t, err, ErrValidation)

	result, err := svc.Pick(context.Background(), "ORD-1", []PickLine{
		{RecordID: 1, Qty: 0},
		{RecordID: 1, Qty: 3},
	}, warehouseActor())
	require.NoError(t, err)
	require.Len(t, result.Allocation.Lines, 1)
}

func TestPickStageRules(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedRecord(1, "Wheel", "WAREHOUSE_A", 10)
	repo.seedOrder("ORD-1", orders.StageWarehouse)
	svc := NewService(repo, nil)

	_, err := svc.Pick(context.Background(), "ORD-1", []PickLine{{RecordID: 1, Qty: 2}}, warehouseActor())
	require.NoError(t, err)
	require.Equal(t, orders.StageFitting, repo.orders["ORD-1"].Stage)

	// Follow-up pick while in fitting is fine and does not move the stage.
	_, err = svc.Pick(context.Background(), "ORD-1", []PickLine{{RecordID: 1, Qty: 2}}, warehouseActor())
	require.NoError(t, err)
	require.Equal(t, orders.StageFitting, repo.orders["ORD-1"].Stage)

	repo.seedOrder("ORD-2", orders.StageDispatched)
	_, err = svc.Pick(context.Background(), "ORD-2", []PickLine{{RecordID: 1, Qty: 1}}, warehouseActor())
	require.ErrorIs(t, err, orders.ErrInvalidState)
}

func TestPickUnknownOrder(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedRecord(1, "Wheel", "WAREHOUSE_A", 10)
	svc := NewService(repo, nil)

	_, err := svc.Pick(context.Background(), "ORD-404", []PickLine{{RecordID: 1, Qty: 1}}, warehouseActor())
	require.ErrorIs(t, err, orders.ErrNotFound)
}

func TestComputeAvailabilityRequiresPart(t *testing.T) {
	repo := newMemoryRepo()
	repo.seedRecord(1, "Wheel", "WAREHOUSE_B", 4)
	repo.seedRecord(2, "Wheel", "WAREHOUSE_A", 6)
	svc := NewService(repo, nil)

	_, err := svc.ComputeAvailability(context.Background(), "   ")
	require.ErrorIs(t, err, inventory.ErrPartRequired)

	entries, err := svc.ComputeAvailability(context.Background(), "wheel")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "WAREHOUSE_A", entries[0].Location)
	require.Equal(t, "WAREHOUSE_B", entries[1].Location)
}
