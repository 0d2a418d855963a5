package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habit21API/internal/auth"
	"habit21API/internal/challenge"
	"habit21API/internal/store"
)

type memLocal struct {
	rec *challenge.Record
}

func (m *memLocal) Put(rec *challenge.Record) { m.rec = rec.Clone() }

func (m *memLocal) Get() (*challenge.Record, bool) { return m.rec.Clone(), m.rec != nil }

func (m *memLocal) Clear() { m.rec = nil }

type memRemote struct {
	rows      map[string]*challenge.Record
	fetchErr  error
	upsertErr error
	deleteErr error
	upserts   int
}

func newMemRemote() *memRemote {
	return &memRemote{rows: make(map[string]*challenge.Record)}
}

func (m *memRemote) Upsert(_ context.Context, userID string, rec *challenge.Record) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.rows[userID] = rec.Clone()
	return nil
}

func (m *memRemote) Fetch(_ context.Context, userID string) (*challenge.Record, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	rec, ok := m.rows[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *memRemote) Delete(_ context.Context, userID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.rows, userID)
	return nil
}

type fixedIdentity struct {
	id *auth.Identity
}

func (f *fixedIdentity) Current() (*auth.Identity, bool) {
	return f.id, f.id != nil
}

func record(t *testing.T, habit string, days ...int) *challenge.Record {
	t.Helper()
	now := time.Now()
	rec, err := challenge.NewRecord(habit, now)
	require.NoError(t, err)
	for _, d := range days {
		require.NoError(t, rec.MarkDay(d, now))
	}
	return rec
}

func TestLoad_AnonymousReadsLocal(t *testing.T) {
	local := &memLocal{}
	local.Put(record(t, "قراءة", 1, 2))

	c := NewCoordinator(local, newMemRemote(), &fixedIdentity{})

	rec, ok := c.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, rec.CompletedDays)
}

func TestLoad_AnonymousEmpty(t *testing.T) {
	c := NewCoordinator(&memLocal{}, newMemRemote(), &fixedIdentity{})

	rec, ok := c.Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestLoad_RemoteIsAuthoritativeAndOverwritesLocal(t *testing.T) {
	local := &memLocal{}
	local.Put(record(t, "قراءة", 1, 2, 3, 4, 5))

	remote := newMemRemote()
	remote.rows["user_1"] = record(t, "قراءة", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)

	c := NewCoordinator(local, remote, &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})

	rec, ok := c.Load(context.Background())
	require.True(t, ok)
	assert.Len(t, rec.CompletedDays, 10, "remote record wins over stale local")

	cached, ok := local.Get()
	require.True(t, ok)
	assert.Len(t, cached.CompletedDays, 10, "local slot must be overwritten with remote data")
}

func TestLoad_FirstSyncAfterLoginUploadsLocal(t *testing.T) {
	local := &memLocal{}
	local.Put(record(t, "قراءة", 1, 2, 3))

	remote := newMemRemote()
	c := NewCoordinator(local, remote, &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})

	rec, ok := c.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, rec.CompletedDays)

	uploaded, err := remote.Fetch(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, uploaded.CompletedDays)

	// Subsequent load serves the same record from remote.
	rec2, ok := c.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, rec2.CompletedDays)
}

func TestLoad_NoRemoteRowNoLocalRecord(t *testing.T) {
	c := NewCoordinator(&memLocal{}, newMemRemote(), &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})

	rec, ok := c.Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func TestLoad_TransportErrorFallsBackToLocal(t *testing.T) {
	local := &memLocal{}
	local.Put(record(t, "قراءة", 1))

	remote := newMemRemote()
	remote.fetchErr = errors.New("connection refused")

	c := NewCoordinator(local, remote, &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})

	rec, ok := c.Load(context.Background())
	require.True(t, ok, "transport errors must degrade to local data, not fail")
	assert.Equal(t, []int{1}, rec.CompletedDays)
}

func TestSave_AnonymousWritesLocalOnly(t *testing.T) {
	local := &memLocal{}
	remote := newMemRemote()
	c := NewCoordinator(local, remote, &fixedIdentity{})

	c.Save(context.Background(), record(t, "قراءة", 1))

	_, ok := local.Get()
	assert.True(t, ok)
	assert.Empty(t, remote.rows)
}

func TestSave_SignedInMirrorsToRemote(t *testing.T) {
	local := &memLocal{}
	remote := newMemRemote()
	c := NewCoordinator(local, remote, &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})

	c.Save(context.Background(), record(t, "قراءة", 1, 2))

	assert.Len(t, remote.rows["user_1"].CompletedDays, 2)
}

func TestSave_RemoteFailureKeepsLocalWrite(t *testing.T) {
	local := &memLocal{}
	remote := newMemRemote()
	remote.upsertErr = errors.New("network down")

	c := NewCoordinator(local, remote, &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})

	c.Save(context.Background(), record(t, "قراءة", 1))

	rec, ok := local.Get()
	require.True(t, ok, "local write must survive a remote failure")
	assert.Equal(t, []int{1}, rec.CompletedDays)
}

func TestClear_RemovesBothStores(t *testing.T) {
	local := &memLocal{}
	local.Put(record(t, "قراءة", 1))
	remote := newMemRemote()
	remote.rows["user_1"] = record(t, "قراءة", 1)

	c := NewCoordinator(local, remote, &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})
	c.Clear(context.Background())

	_, ok := local.Get()
	assert.False(t, ok)
	assert.Empty(t, remote.rows)
}

func TestClear_RemoteFailureIsNonFatal(t *testing.T) {
	local := &memLocal{}
	local.Put(record(t, "قراءة", 1))
	remote := newMemRemote()
	remote.deleteErr = errors.New("network down")

	c := NewCoordinator(local, remote, &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})
	c.Clear(context.Background())

	_, ok := local.Get()
	assert.False(t, ok, "local clear must still happen")
}

func TestNilRemoteBehavesAnonymous(t *testing.T) {
	local := &memLocal{}
	local.Put(record(t, "قراءة", 1))

	c := NewCoordinator(local, nil, &fixedIdentity{id: &auth.Identity{UserID: "user_1"}})

	rec, ok := c.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, []int{1}, rec.CompletedDays)

	c.Save(context.Background(), record(t, "قراءة", 1, 2))
	rec, _ = local.Get()
	assert.Equal(t, []int{1, 2}, rec.CompletedDays)
}
