package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/slot"
	"ledger/internal/slot/memory"
)

type failingSlot struct {
	slot.Slot
	readErr  error
	writeErr error
}

func (f failingSlot) Read(ctx context.Context, key string) ([]byte, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.Slot.Read(ctx, key)
}

func (f failingSlot) Write(ctx context.Context, key string, value []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.Slot.Write(ctx, key, value)
}

var (
	salary = core.Submission{Kind: "income", Description: "Salary", Amount: "1000.00", Category: "Job", Date: "2024-01-01"}
	lunch  = core.Submission{Kind: "expense", Description: "Lunch", Amount: "12.50", Category: "Food", Date: "2024-01-02"}
)

func newStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	mem := memory.New()
	st, err := Open(context.Background(), mem, DefaultKey, WithIDSource(SequentialIDs(1)))
	require.NoError(t, err)
	return st, mem
}

func TestAddAppendsAndPersists(t *testing.T) {
	st, mem := newStore(t)
	ctx := context.Background()

	tx, err := st.Add(ctx, salary)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tx.ID)
	assert.Equal(t, 1, st.Len())

	tx, err = st.Add(ctx, lunch)
	require.NoError(t, err)
	assert.Equal(t, core.Expense, tx.Kind)
	assert.True(t, tx.Amount.IsPositive(), "expense amounts are stored as positive magnitudes")
	assert.Equal(t, 2, st.Len())
	assert.Equal(t, 2, mem.Writes())
	assert.Equal(t, uint64(2), st.Version())

	all := st.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Salary", all[0].Description)
	assert.Equal(t, "Lunch", all[1].Description)
}

func TestAddRejectsInvalidSubmissions(t *testing.T) {
	st, mem := newStore(t)
	ctx := context.Background()
	_, err := st.Add(ctx, salary)
	require.NoError(t, err)

	invalid := []core.Submission{
		{Kind: "expense", Description: "", Amount: "5", Category: "Food", Date: "2024-01-01"},
		{Kind: "expense", Description: "  ", Amount: "5", Category: "Food", Date: "2024-01-01"},
		{Kind: "expense", Description: "x", Amount: "0", Category: "Food", Date: "2024-01-01"},
		{Kind: "expense", Description: "x", Amount: "-3", Category: "Food", Date: "2024-01-01"},
		{Kind: "expense", Description: "x", Amount: "abc", Category: "Food", Date: "2024-01-01"},
	}
	for _, sub := range invalid {
		_, err := st.Add(ctx, sub)
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr, "submission %+v", sub)
	}
	assert.Equal(t, 1, st.Len())
	assert.Equal(t, 1, mem.Writes(), "rejected submissions must not touch the slot")
}

func TestAddKeepsStateWhenPersistFails(t *testing.T) {
	boom := errors.New("disk full")
	st, err := Open(context.Background(), failingSlot{Slot: memory.New(), writeErr: boom}, DefaultKey)
	require.NoError(t, err)

	_, err = st.Add(context.Background(), salary)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, st.Len())
	assert.Zero(t, st.Version())
}

func TestAddRedrawsCollidingIDs(t *testing.T) {
	draws := []int64{5, 5, 5, 9}
	ids := func() (int64, error) {
		id := draws[0]
		draws = draws[1:]
		return id, nil
	}
	st, err := Open(context.Background(), memory.New(), DefaultKey, WithIDSource(ids))
	require.NoError(t, err)

	first, err := st.Add(context.Background(), salary)
	require.NoError(t, err)
	second, err := st.Add(context.Background(), lunch)
	require.NoError(t, err)

	assert.Equal(t, int64(5), first.ID)
	assert.Equal(t, int64(9), second.ID)
}

func TestAddGivesUpOnExhaustedIDs(t *testing.T) {
	st, err := Open(context.Background(), memory.New(), DefaultKey, WithIDSource(func() (int64, error) { return 1, nil }))
	require.NoError(t, err)
	_, err = st.Add(context.Background(), salary)
	require.NoError(t, err)

	_, err = st.Add(context.Background(), lunch)
	assert.ErrorIs(t, err, ErrIDExhausted)
	assert.Equal(t, 1, st.Len())
}

func TestRemoveIsIdempotent(t *testing.T) {
	st, mem := newStore(t)
	ctx := context.Background()
	a, err := st.Add(ctx, salary)
	require.NoError(t, err)
	b, err := st.Add(ctx, lunch)
	require.NoError(t, err)
	c, err := st.Add(ctx, core.Submission{Kind: "expense", Description: "Bus", Amount: "2", Category: "Transport", Date: "2024-01-03"})
	require.NoError(t, err)

	removed, err := st.Remove(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	all := st.All()
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID, "remaining order is preserved")
	assert.Equal(t, c.ID, all[1].ID)

	version := st.Version()
	removed, err = st.Remove(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, all, st.All())
	assert.Equal(t, version, st.Version())
	assert.Equal(t, 5, mem.Writes(), "remove always rewrites the slot")

	for _, tx := range st.All() {
		assert.NotEqual(t, b.ID, tx.ID)
	}
}

func TestByCategory(t *testing.T) {
	st, _ := newStore(t)
	ctx := context.Background()
	_, err := st.Add(ctx, salary)
	require.NoError(t, err)
	l, err := st.Add(ctx, lunch)
	require.NoError(t, err)

	food := st.ByCategory("Food")
	require.Len(t, food, 1)
	assert.Equal(t, l, food[0])

	assert.Len(t, st.ByCategory(core.AllCategories), 2)
	assert.Len(t, st.ByCategory(""), 2)
	assert.Empty(t, st.ByCategory("Travel"))
}

func TestPersistReloadRoundTrip(t *testing.T) {
	st, mem := newStore(t)
	ctx := context.Background()
	_, err := st.Add(ctx, salary)
	require.NoError(t, err)
	_, err = st.Add(ctx, lunch)
	require.NoError(t, err)
	_, err = st.Add(ctx, core.Submission{Kind: "expense", Description: "Fine print", Amount: "0.005", Category: "Misc", Date: "2024-01-03"})
	require.NoError(t, err)

	reopened, err := Open(ctx, mem, DefaultKey)
	require.NoError(t, err)

	want, got := st.All(), reopened.All()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Kind, got[i].Kind)
		assert.Equal(t, want[i].Description, got[i].Description)
		assert.True(t, want[i].Amount.Equal(got[i].Amount), "amount %s != %s", want[i].Amount, got[i].Amount)
		assert.Equal(t, want[i].Category, got[i].Category)
		assert.True(t, want[i].Date.Equal(got[i].Date.Time))
	}
}

func TestOpenDegradesOnMalformedSlot(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Write(ctx, DefaultKey, []byte(`{not json`)))

	st, err := Open(ctx, mem, DefaultKey)
	require.NoError(t, err)
	assert.Zero(t, st.Len())

	tx, err := st.Add(ctx, salary)
	require.NoError(t, err)
	assert.Equal(t, []core.Transaction{tx}, st.All())
}

func TestOpenSurfacesReadErrors(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := Open(context.Background(), failingSlot{Slot: memory.New(), readErr: boom}, DefaultKey)
	assert.ErrorIs(t, err, boom)
}

func TestReloadPicksUpExternalWrites(t *testing.T) {
	st, mem := newStore(t)
	ctx := context.Background()

	other, err := Open(ctx, mem, DefaultKey, WithIDSource(SequentialIDs(100)))
	require.NoError(t, err)
	_, err = other.Add(ctx, lunch)
	require.NoError(t, err)

	before := st.Version()
	require.NoError(t, st.Reload(ctx))
	require.Len(t, st.All(), 1)
	assert.Equal(t, int64(100), st.All()[0].ID)
	assert.Greater(t, st.Version(), before)
}

func TestAllReturnsCopy(t *testing.T) {
	st, _ := newStore(t)
	_, err := st.Add(context.Background(), salary)
	require.NoError(t, err)

	all := st.All()
	all[0].Amount = decimal.NewFromInt(-1)
	assert.True(t, st.All()[0].Amount.IsPositive())
}
