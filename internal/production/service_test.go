package production

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/shared"
)

type ledgerKey struct {
	part     string
	location string
}

type memoryRepo struct {
	nextID   int64
	inwards  map[int64]Inward
	balances map[ledgerKey]int64
	credits  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		nextID:   1,
		inwards:  map[int64]Inward{},
		balances: map[ledgerKey]int64{},
	}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snapshot := &memoryRepo{nextID: m.nextID, inwards: map[int64]Inward{}, balances: map[ledgerKey]int64{}, credits: m.credits}
	for k, v := range m.inwards {
		snapshot.inwards[k] = v
	}
	for k, v := range m.balances {
		snapshot.balances[k] = v
	}
	if err := fn(ctx, snapshot); err != nil {
		return err
	}
	m.nextID = snapshot.nextID
	m.inwards = snapshot.inwards
	m.balances = snapshot.balances
	m.credits = snapshot.credits
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Inward, error) {
	inward, ok := m.inwards[id]
	if !ok {
		return Inward{}, ErrNotFound
	}
	return inward, nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter) ([]Inward, error) {
	inwards := []Inward{}
	for _, inward := range m.inwards {
		if filter.Status != "" && inward.Status != filter.Status {
			continue
		}
		if filter.AssignedTo != 0 && inward.AssignedTo != filter.AssignedTo {
			continue
		}
		inwards = append(inwards, inward)
	}
	return inwards, nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, id int64) (Inward, error) {
	return m.Get(ctx, id)
}

func (m *memoryRepo) Insert(_ context.Context, inward Inward) (int64, error) {
	inward.ID = m.nextID
	inward.CreatedAt = time.Now()
	m.inwards[inward.ID] = inward
	m.nextID++
	return inward.ID, nil
}

func (m *memoryRepo) MarkAccepted(_ context.Context, id int64, acceptedBy int64, location string, at time.Time) error {
	inward, ok := m.inwards[id]
	if !ok {
		return ErrNotFound
	}
	inward.Status = InwardAccepted
	inward.AcceptedBy = &acceptedBy
	inward.Location = location
	inward.AcceptedAt = &at
	m.inwards[id] = inward
	return nil
}

func (m *memoryRepo) CreditRecord(_ context.Context, input inventory.CreditInput) (inventory.Record, error) {
	key := ledgerKey{part: input.PartName, location: input.Location}
	m.balances[key] += input.Qty
	m.credits++
	return inventory.Record{PartName: input.PartName, Location: input.Location, Qty: m.balances[key]}, nil
}

func productionActor(role shared.Role, location string) shared.Actor {
	return shared.Actor{ID: 7, Name: "Priya", Role: role, Location: location}
}

func TestAcceptCreditsActingUsersLocation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), productionActor(shared.RoleProduction, ""), CreateInput{
		PartName:   "wheel",
		Qty:        100,
		AssignedTo: 7,
	})
	require.NoError(t, err)
	require.Equal(t, InwardPending, created.Status)
	require.Equal(t, "Wheel", created.PartName)
	require.Empty(t, repo.balances)

	accepted, err := svc.Accept(context.Background(), productionActor(shared.RoleWarehouse, "WAREHOUSE_B"), created.ID)
	require.NoError(t, err)
	require.Equal(t, InwardAccepted, accepted.Status)
	require.Equal(t, "WAREHOUSE_B", accepted.Location)
	require.NotNil(t, accepted.AcceptedAt)
	require.Equal(t, int64(100), repo.balances[ledgerKey{part: "Wheel", location: "WAREHOUSE_B"}])
}

func TestAcceptDefaultsToWarehouse(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), productionActor(shared.RoleProduction, ""), CreateInput{
		PartName:   "Armrest",
		Qty:        40,
		AssignedTo: 7,
	})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), productionActor(shared.RoleWarehouse, ""), created.ID)
	require.NoError(t, err)
	require.Equal(t, int64(40), repo.balances[ledgerKey{part: "Armrest", location: inventory.LocationWarehouse}])
}

func TestDoubleAcceptLeavesLedgerUnchanged(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), productionActor(shared.RoleProduction, ""), CreateInput{
		PartName:   "Wheel",
		Qty:        100,
		AssignedTo: 7,
	})
	require.NoError(t, err)

	actor := productionActor(shared.RoleWarehouse, "WAREHOUSE")
	_, err = svc.Accept(context.Background(), actor, created.ID)
	require.NoError(t, err)
	require.Equal(t, 1, repo.credits)

	_, err = svc.Accept(context.Background(), actor, created.ID)
	require.ErrorIs(t, err, ErrAlreadyProcessed)
	require.Equal(t, 1, repo.credits)
	require.Equal(t, int64(100), repo.balances[ledgerKey{part: "Wheel", location: "WAREHOUSE"}])
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Create(context.Background(), productionActor(shared.RoleProduction, ""), CreateInput{PartName: "  ", Qty: 5, AssignedTo: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), productionActor(shared.RoleProduction, ""), CreateInput{PartName: "Wheel", Qty: 0, AssignedTo: 1})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), productionActor(shared.RoleProduction, ""), CreateInput{PartName: "Wheel", Qty: 5})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAcceptUnknownInward(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Accept(context.Background(), productionActor(shared.RoleWarehouse, ""), 99)
	require.ErrorIs(t, err, ErrNotFound)
}
