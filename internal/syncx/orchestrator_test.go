package syncx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/ddanilovs/campuslink/internal/common"
	"github.com/ddanilovs/campuslink/internal/logging"
	"github.com/ddanilovs/campuslink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	docs     map[string]models.Document
	failures map[string]error
}

func newFakeCache(docs ...models.Document) *fakeCache {
	c := &fakeCache{docs: map[string]models.Document{}, failures: map[string]error{}}
	for _, d := range docs {
		c.docs[d.ID] = d
	}
	return c
}

func (c *fakeCache) GetAll(ctx context.Context, _ models.Collection) ([]models.Document, error) {
	if err := c.failures["GetAll"]; err != nil {
		return nil, err
	}
	var out []models.Document
	for _, d := range c.docs {
		out = append(out, d)
	}
	return out, nil
}

func (c *fakeCache) GetDirty(ctx context.Context, _ models.Collection) ([]models.Document, error) {
	if err := c.failures["GetDirty"]; err != nil {
		return nil, err
	}
	var out []models.Document
	for _, d := range c.docs {
		if d.Dirty {
			out = append(out, d)
		}
	}
	return out, nil
}

func (c *fakeCache) Upsert(ctx context.Context, d models.Document) error {
	if err := c.failures["Upsert"]; err != nil {
		return err
	}
	c.docs[d.ID] = d
	return nil
}

func (c *fakeCache) MarkSynced(ctx context.Context, _ models.Collection, id string, version int64, syncedAt int64) error {
	d, ok := c.docs[id]
	if !ok {
		return common.ErrNotFound
	}
	d.Dirty = false
	d.Version = version
	d.SyncedAt = &syncedAt
	c.docs[id] = d
	return nil
}

type fakeRemote struct {
	docs       []models.Document
	fetchErr   error
	writeErrs  map[string]error
	fetchCalls int
	writes     []string
}

func (r *fakeRemote) FetchAll(ctx context.Context, _ models.Collection) ([]models.Document, error) {
	r.fetchCalls++
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.docs, nil
}

func (r *fakeRemote) Write(ctx context.Context, _ models.Collection, d models.Document) (models.Document, error) {
	if err := r.writeErrs[d.ID]; err != nil {
		return models.Document{}, err
	}
	r.writes = append(r.writes, d.ID)
	d.Version = int64(len(r.writes))
	return d, nil
}

type fakeProbe struct{ online bool }

func (p fakeProbe) IsAvailable() bool { return p.online }

type fakeIdentity struct{ userID string }

func (i fakeIdentity) CurrentUserID() string { return i.userID }

func discardLogger() logging.Logger {
	return logging.NewJSON(io.Discard)
}

func newTestOrchestrator(c *fakeCache, r *fakeRemote, online bool, userID string) *Orchestrator {
	return NewOrchestrator(c, r, fakeProbe{online: online}, fakeIdentity{userID: userID},
		discardLogger(), WithClock(func() time.Time { return testNow }))
}

func TestRunPass_OfflineShortCircuits(t *testing.T) {
	remote := &fakeRemote{}
	orch := newTestOrchestrator(newFakeCache(), remote, false, "u1")

	out := orch.RunPass(context.Background(), models.CollectionNotes)

	assert.Equal(t, RetryableNetwork, out.Code)
	assert.ErrorIs(t, out.Err, common.ErrNetworkUnavailable)
	assert.Zero(t, remote.fetchCalls, "no remote call may be attempted while offline")
}

func TestRunPass_PushesDirtyAndReconciles(t *testing.T) {
	local := doc("n1", 2000, true)
	cache := newFakeCache(local)
	remote := &fakeRemote{docs: []models.Document{doc("n2", 1000, false)}}

	orch := newTestOrchestrator(cache, remote, true, "u1")
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	require.Equal(t, Success, out.Code, "outcome: %v", out)
	assert.Equal(t, []string{"n1"}, remote.writes)

	n1 := cache.docs["n1"]
	assert.False(t, n1.Dirty, "pushed record must be clean")
	require.NotNil(t, n1.SyncedAt)

	n2, ok := cache.docs["n2"]
	require.True(t, ok, "pulled record must land in the cache")
	assert.False(t, n2.Dirty)
	require.NotNil(t, n2.SyncedAt)
}

func TestRunPass_PushedEditSurvivesReconcile(t *testing.T) {
	local := doc("n1", 2000, true)
	local.Payload = json.RawMessage(`{"title":"new local edit"}`)

	stale := doc("n1", 1000, false)
	stale.Payload = json.RawMessage(`{"title":"old remote copy"}`)

	cache := newFakeCache(local)
	remote := &fakeRemote{docs: []models.Document{stale}}

	orch := newTestOrchestrator(cache, remote, true, "u1")
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	require.Equal(t, Success, out.Code, "outcome: %v", out)
	require.Equal(t, []string{"n1"}, remote.writes)

	// The pull happened before the push; the acked write, not the stale
	// pre-push copy, must be what ends up in the cache.
	n1 := cache.docs["n1"]
	assert.JSONEq(t, `{"title":"new local edit"}`, string(n1.Payload))
	assert.Equal(t, int64(2000), n1.ModifiedAt)
	assert.False(t, n1.Dirty)
	require.NotNil(t, n1.SyncedAt)
}

func TestRunPass_PushAckCarriesOwnerIntoCache(t *testing.T) {
	local := doc("n1", 2000, true)
	cache := newFakeCache(local)
	remote := &fakeRemote{docs: []models.Document{doc("n1", 1000, false)}}

	orch := newTestOrchestrator(cache, remote, true, "u1")
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	require.Equal(t, Success, out.Code, "outcome: %v", out)
	assert.Equal(t, "u1", cache.docs["n1"].Owner,
		"attribution assigned on push must be persisted locally")
}

func TestRunPass_PullFailureAbortsBeforeCacheWrites(t *testing.T) {
	cache := newFakeCache(doc("n1", 1000, false))
	remote := &fakeRemote{fetchErr: fmt.Errorf("boom: %w", common.ErrServerError)}

	orch := newTestOrchestrator(cache, remote, true, "u1")
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	assert.Equal(t, RetryableServer, out.Code)
	got := cache.docs["n1"]
	assert.Nil(t, got.SyncedAt, "no partial pull may be committed")
}

func TestRunPass_PerRecordPushFailureIsIsolated(t *testing.T) {
	n4 := doc("n4", 4000, true)
	n5 := doc("n5", 5000, true)
	cache := newFakeCache(n4, n5)
	remote := &fakeRemote{
		docs:      []models.Document{doc("n2", 1000, false)},
		writeErrs: map[string]error{"n4": fmt.Errorf("write: %w", common.ErrServerUnavailable)},
	}

	orch := newTestOrchestrator(cache, remote, true, "u1")
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	require.Equal(t, Success, out.Code, "outcome: %v", out)

	assert.True(t, cache.docs["n4"].Dirty, "failed push must stay dirty")
	assert.False(t, cache.docs["n5"].Dirty, "other pushes proceed")
	_, ok := cache.docs["n2"]
	assert.True(t, ok, "pull and reconcile proceed despite the push failure")
}

func TestRunPass_AuthFailureAbortsPush(t *testing.T) {
	cache := newFakeCache(doc("n1", 1000, true))
	remote := &fakeRemote{
		docs:      []models.Document{},
		writeErrs: map[string]error{"n1": common.ErrUnauthorized},
	}

	orch := newTestOrchestrator(cache, remote, true, "u1")
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	assert.Equal(t, FatalAuth, out.Code)
	assert.True(t, cache.docs["n1"].Dirty)
}

func TestRunPass_NoUserSkipsPushNotAnError(t *testing.T) {
	cache := newFakeCache(doc("n1", 1000, true))
	remote := &fakeRemote{docs: []models.Document{}}

	orch := newTestOrchestrator(cache, remote, true, "")
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	require.Equal(t, Success, out.Code)
	assert.Empty(t, remote.writes)
	assert.True(t, cache.docs["n1"].Dirty, "unpushed record stays dirty for the next pass")
}

func TestRunPass_ManualStrategySurfacesConflict(t *testing.T) {
	cache := newFakeCache(doc("n1", 2000, true))
	remote := &fakeRemote{
		docs:      []models.Document{doc("n1", 1000, false)},
		writeErrs: map[string]error{"n1": fmt.Errorf("write: %w", common.ErrServerUnavailable)},
	}

	orch := NewOrchestrator(cache, remote, fakeProbe{online: true}, fakeIdentity{userID: "u1"},
		discardLogger(), WithStrategy(Manual), WithClock(func() time.Time { return testNow }))
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	assert.Equal(t, ManualConflict, out.Code)
	var conflict *ConflictError
	require.ErrorAs(t, out.Err, &conflict)
	assert.Equal(t, "n1", conflict.Local.ID)
}

func TestRunPass_LocalStoreFailureIsFatal(t *testing.T) {
	cache := newFakeCache()
	cache.failures["GetDirty"] = errors.New("disk gone")
	remote := &fakeRemote{docs: []models.Document{}}

	orch := newTestOrchestrator(cache, remote, true, "u1")
	out := orch.RunPass(context.Background(), models.CollectionNotes)

	assert.Equal(t, FatalSchema, out.Code)
	assert.ErrorIs(t, out.Err, common.ErrLocalStore)
}

func TestRunPass_PublishesUpdateForSubscribers(t *testing.T) {
	cache := newFakeCache()
	remote := &fakeRemote{docs: []models.Document{doc("n1", 1000, false)}}

	orch := newTestOrchestrator(cache, remote, true, "u1")
	ch, cancel := orch.Updates().Subscribe(1)
	defer cancel()

	out := orch.RunPass(context.Background(), models.CollectionNotes)
	require.Equal(t, Success, out.Code)

	select {
	case update := <-ch:
		assert.Equal(t, models.CollectionNotes, update.Collection)
		assert.Equal(t, 1, update.Documents)
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
}

func TestCodeRetryable(t *testing.T) {
	assert.True(t, RetryableNetwork.Retryable())
	assert.True(t, RetryableServer.Retryable())
	assert.False(t, Success.Retryable())
	assert.False(t, FatalAuth.Retryable())
	assert.False(t, FatalSchema.Retryable())
	assert.False(t, ManualConflict.Retryable())
}
