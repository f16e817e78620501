package draft

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/het-labo/stixn-dewi/internal/contact"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

func newTestAccumulator(t *testing.T, store Store, opts Options) *Accumulator {
	t.Helper()
	return New(store, logging.New("error"), opts)
}

func TestRecordActivityClickIsIdempotent(t *testing.T) {
	ctx := context.Background()
	acc := newTestAccumulator(t, NewMemoryStore(), Options{})

	added, err := acc.RecordActivityClick(ctx, "Yoga")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = acc.RecordActivityClick(ctx, " Yoga ")
	require.NoError(t, err)
	assert.False(t, added)

	d, err := acc.Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contact.SelectionEntry{{Name: "Yoga", Source: contact.SourceClick}}, d.Activities)
}

func TestRecordActivityClickRejectsBlankLabel(t *testing.T) {
	acc := newTestAccumulator(t, NewMemoryStore(), Options{})
	_, err := acc.RecordActivityClick(context.Background(), "  ")
	assert.ErrorIs(t, err, contact.ErrEmptyActivity)
}

func TestRecordFilterSelectionRederivesFromSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	acc := newTestAccumulator(t, store, Options{})

	// Stale stored state that no longer matches the form.
	require.NoError(t, store.Set(ctx, KeyActivities, `[{"name":"Beta","type":"filter"},{"name":"Gamma","type":"filter"}]`))

	snap := StaticSnapshot{
		{ID: "a", Checked: true, Label: "Alpha"},
		{ID: "b", Checked: false, Label: "Beta"},
	}
	got, err := acc.RecordFilterSelection(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, []contact.SelectionEntry{{Name: "Alpha", Source: contact.SourceFilter}}, got)

	d, err := acc.Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contact.SelectionEntry{{Name: "Alpha", Source: contact.SourceFilter}}, d.BySource(contact.SourceFilter))
}

func TestRecordFilterSelectionKeepsClicksAfterFilters(t *testing.T) {
	ctx := context.Background()
	acc := newTestAccumulator(t, NewMemoryStore(), Options{})

	_, err := acc.RecordActivityClick(ctx, "Yoga")
	require.NoError(t, err)

	got, err := acc.RecordFilterSelection(ctx, StaticSnapshot{
		{ID: "a", Checked: true, Label: "Alpha"},
		{ID: "c", Checked: true, Label: ""},
	})
	require.NoError(t, err)
	assert.Equal(t, []contact.SelectionEntry{
		{Name: "Alpha", Source: contact.SourceFilter},
		{Name: "Yoga", Source: contact.SourceClick},
	}, got)

	got, err = acc.RecordFilterSelection(ctx, StaticSnapshot{{ID: "a", Checked: false, Label: "Alpha"}})
	require.NoError(t, err)
	assert.Equal(t, []contact.SelectionEntry{{Name: "Yoga", Source: contact.SourceClick}}, got)
}

func TestDedupKeyInterpretations(t *testing.T) {
	ctx := context.Background()

	strict := newTestAccumulator(t, NewMemoryStore(), Options{DedupKey: contact.DedupByNameAndSource})
	_, err := strict.RecordFilterSelection(ctx, StaticSnapshot{{ID: "y", Checked: true, Label: "Yoga"}})
	require.NoError(t, err)
	added, err := strict.RecordActivityClick(ctx, "Yoga")
	require.NoError(t, err)
	assert.True(t, added, "name+source keeps filter and click entries apart")

	d, err := strict.Draft(ctx)
	require.NoError(t, err)
	assert.Len(t, d.Activities, 2)

	byName := newTestAccumulator(t, NewMemoryStore(), Options{DedupKey: contact.DedupByName})
	_, err = byName.RecordFilterSelection(ctx, StaticSnapshot{{ID: "y", Checked: true, Label: "Yoga"}})
	require.NoError(t, err)
	added, err = byName.RecordActivityClick(ctx, "Yoga")
	require.NoError(t, err)
	assert.False(t, added, "name-only treats the click as a duplicate")

	d, err = byName.Draft(ctx)
	require.NoError(t, err)
	assert.Len(t, d.Activities, 1)
}

func TestRecordEmailAndNames(t *testing.T) {
	ctx := context.Background()
	acc := newTestAccumulator(t, NewMemoryStore(), Options{})

	assert.ErrorIs(t, acc.RecordEmail(ctx, "   "), contact.ErrMissingEmail)
	require.NoError(t, acc.RecordEmail(ctx, " jane@example.com "))
	require.NoError(t, acc.RecordNames(ctx, " Jane ", ""))

	d, err := acc.Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", d.Email)
	assert.Equal(t, "Jane", d.FirstName)
	assert.Equal(t, "", d.LastName)

	require.NoError(t, acc.RecordNames(ctx, "", "Doe"))
	d, err = acc.Draft(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", d.FirstName)
	assert.Equal(t, "Doe", d.LastName)
}

func TestSetFinalizedPolicies(t *testing.T) {
	ctx := context.Background()

	mono := newTestAccumulator(t, NewMemoryStore(), Options{FinalizePolicy: contact.FinalizeMonotonic})
	final, err := mono.SetFinalized(ctx, true)
	require.NoError(t, err)
	assert.True(t, final)
	final, err = mono.SetFinalized(ctx, false)
	require.NoError(t, err)
	assert.True(t, final, "a later next-step event must not revert completion")

	lastWrite := newTestAccumulator(t, NewMemoryStore(), Options{FinalizePolicy: contact.FinalizeLastWrite})
	_, err = lastWrite.SetFinalized(ctx, true)
	require.NoError(t, err)
	final, err = lastWrite.SetFinalized(ctx, false)
	require.NoError(t, err)
	assert.False(t, final)
}

func TestInitClearsExpiredStateBeforeRead(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	acc := newTestAccumulator(t, store, Options{TTL: DefaultTTL, Now: func() time.Time { return now }})

	past := now.Add(-time.Second).UnixMilli()
	require.NoError(t, store.Set(ctx, KeyExpiry, strconv.FormatInt(past, 10)))
	require.NoError(t, store.Set(ctx, KeyEmail, "jane@example.com"))
	require.NoError(t, store.Set(ctx, KeyActivities, `[{"name":"Yoga","type":"activity"}]`))

	expired, err := acc.Init(ctx)
	require.NoError(t, err)
	assert.True(t, expired)

	d, err := acc.Draft(ctx)
	require.NoError(t, err)
	assert.Empty(t, d.Email)
	assert.Empty(t, d.Activities)

	raw, ok, err := store.Get(ctx, KeyExpiry)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(now.Add(DefaultTTL).UnixMilli(), 10), raw)
}

func TestInitSetsExpiryOnlyOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	acc := newTestAccumulator(t, store, Options{TTL: DefaultTTL, Now: func() time.Time { return now }})

	_, err := acc.Init(ctx)
	require.NoError(t, err)
	first, _, _ := store.Get(ctx, KeyExpiry)

	now = now.Add(30 * time.Second)
	expired, err := acc.Init(ctx)
	require.NoError(t, err)
	assert.False(t, expired)
	second, _, _ := store.Get(ctx, KeyExpiry)
	assert.Equal(t, first, second, "expiry is fixed from first use, not sliding")

	now = now.Add(31 * time.Second)
	expired, err = acc.Init(ctx)
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestInitDisabledWithoutTTL(t *testing.T) {
	store := NewMemoryStore()
	acc := newTestAccumulator(t, store, Options{})
	expired, err := acc.Init(context.Background())
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, 0, store.Len())
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	acc := newTestAccumulator(t, store, Options{})
	require.NoError(t, acc.RecordEmail(ctx, "jane@example.com"))
	_, err := acc.RecordActivityClick(ctx, "Yoga")
	require.NoError(t, err)

	require.NoError(t, acc.ClearAll(ctx))
	assert.Equal(t, 0, store.Len())
}

type failingStore struct{ MemoryStore }

var errStoreDown = errors.New("store down")

func (f *failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errStoreDown
}

func TestStoreErrorsPropagate(t *testing.T) {
	acc := newTestAccumulator(t, &failingStore{}, Options{TTL: DefaultTTL})
	ctx := context.Background()

	_, err := acc.Init(ctx)
	assert.ErrorIs(t, err, errStoreDown)
	_, err = acc.Draft(ctx)
	assert.ErrorIs(t, err, errStoreDown)
	_, err = acc.RecordActivityClick(ctx, "Yoga")
	assert.ErrorIs(t, err, errStoreDown)
}
