package syncx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/ddanilovs/campuslink/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.UnixMilli(5000)

func doc(id string, modified int64, dirty bool) models.Document {
	return models.Document{
		ID:         id,
		Collection: models.CollectionNotes,
		Payload:    json.RawMessage(`{"title":"` + id + `"}`),
		ModifiedAt: modified,
		Dirty:      dirty,
	}
}

func TestResolve_CleanLocalAlwaysTakesRemote(t *testing.T) {
	local := doc("n1", 9000, false)
	remote := doc("n1", 1000, false)
	remote.Version = 7

	for _, strategy := range []Strategy{ServerWins, ClientWins, LastWriteWins, Manual} {
		t.Run(strategy.String(), func(t *testing.T) {
			got, err := Resolve(local, remote, strategy, testNow)
			require.NoError(t, err)
			assert.False(t, got.Dirty)
			assert.Equal(t, remote.Payload, got.Payload)
			assert.Equal(t, remote.Version, got.Version)
			require.NotNil(t, got.SyncedAt)
			assert.Equal(t, testNow.UnixMilli(), *got.SyncedAt)
		})
	}
}

func TestResolve_ServerWins(t *testing.T) {
	local := doc("n1", 9000, true)
	remote := doc("n1", 1000, false)

	got, err := Resolve(local, remote, ServerWins, testNow)
	require.NoError(t, err)
	assert.Equal(t, remote.Payload, got.Payload)
	assert.False(t, got.Dirty)
	require.NotNil(t, got.SyncedAt)
}

func TestResolve_ClientWins(t *testing.T) {
	local := doc("n1", 1000, true)
	remote := doc("n1", 9000, false)

	got, err := Resolve(local, remote, ClientWins, testNow)
	require.NoError(t, err)
	assert.Equal(t, local.Payload, got.Payload)
	assert.True(t, got.Dirty, "client-wins result still needs a push")
	assert.Nil(t, got.SyncedAt)
}

func TestResolve_LastWriteWins(t *testing.T) {
	tests := []struct {
		name          string
		localModified int64
		remoteModifed int64
		wantLocal     bool
	}{
		{"local newer", 2000, 1000, true},
		{"remote newer", 1000, 2000, false},
		{"tie goes to remote", 1500, 1500, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local := doc("n1", tt.localModified, true)
			remote := doc("n1", tt.remoteModifed, false)

			got, err := Resolve(local, remote, LastWriteWins, testNow)
			require.NoError(t, err)

			if tt.wantLocal {
				assert.Equal(t, local.Payload, got.Payload)
				assert.True(t, got.Dirty)
				assert.Nil(t, got.SyncedAt)
			} else {
				assert.Equal(t, remote.Payload, got.Payload)
				assert.False(t, got.Dirty)
				require.NotNil(t, got.SyncedAt)
			}
		})
	}
}

func TestResolve_ManualReturnsBothVersions(t *testing.T) {
	local := doc("n1", 2000, true)
	remote := doc("n1", 1000, false)

	_, err := Resolve(local, remote, Manual, testNow)
	require.Error(t, err)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, local, conflict.Local)
	assert.Equal(t, remote, conflict.Remote)
}

func TestMerge_DisjointAndOverlappingSets(t *testing.T) {
	local := []models.Document{doc("n1", 2000, true), doc("n2", 1000, false)}
	remote := []models.Document{doc("n2", 3000, false), doc("n3", 500, false)}

	merged, err := Merge(local, remote, LastWriteWins, testNow)
	require.NoError(t, err)
	require.Len(t, merged, 3)

	byID := map[string]models.Document{}
	for _, d := range merged {
		byID[d.ID] = d
	}

	// n1 is local-only: retained unchanged, still pending push.
	assert.True(t, byID["n1"].Dirty)
	assert.Nil(t, byID["n1"].SyncedAt)

	// n2's local copy is clean, so the remote one wins and is synced.
	assert.False(t, byID["n2"].Dirty)
	assert.Equal(t, int64(3000), byID["n2"].ModifiedAt)
	require.NotNil(t, byID["n2"].SyncedAt)

	// n3 is remote-only: included and synced.
	assert.False(t, byID["n3"].Dirty)
	require.NotNil(t, byID["n3"].SyncedAt)
}

func TestMerge_NoDuplicateIDs(t *testing.T) {
	local := []models.Document{doc("a", 1, true), doc("b", 2, false), doc("c", 3, true)}
	remote := []models.Document{doc("b", 5, false), doc("c", 1, false), doc("d", 9, false)}

	merged, err := Merge(local, remote, LastWriteWins, testNow)
	require.NoError(t, err)
	require.Len(t, merged, 4)

	seen := map[string]bool{}
	for _, d := range merged {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
	}
}

func TestMerge_EmptyLocalEqualsRemoteSynced(t *testing.T) {
	remote := []models.Document{doc("n1", 100, false), doc("n2", 200, false)}

	merged, err := Merge(nil, remote, LastWriteWins, testNow)
	require.NoError(t, err)
	require.Len(t, merged, 2)
	for _, d := range merged {
		assert.False(t, d.Dirty)
		require.NotNil(t, d.SyncedAt)
	}
}

func TestMerge_EmptyRemoteKeepsLocalUnchanged(t *testing.T) {
	local := []models.Document{doc("n1", 100, true), doc("n2", 200, false)}

	merged, err := Merge(local, nil, LastWriteWins, testNow)
	require.NoError(t, err)
	assert.Equal(t, local, merged)
}

func TestMerge_Idempotent(t *testing.T) {
	local := []models.Document{doc("n1", 2000, true), doc("n2", 1000, false)}
	remote := []models.Document{doc("n2", 3000, false), doc("n3", 500, false)}

	once, err := Merge(local, remote, LastWriteWins, testNow)
	require.NoError(t, err)

	twice, err := Merge(once, remote, LastWriteWins, testNow)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestMerge_ManualConflictPropagates(t *testing.T) {
	local := []models.Document{doc("n1", 2000, true)}
	remote := []models.Document{doc("n1", 1000, false)}

	_, err := Merge(local, remote, Manual, testNow)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "n1", conflict.Local.ID)
}

func TestResolve_ScenarioDirtyLocalNewerUnderLWW(t *testing.T) {
	local := doc("n1", 2000, true)
	remote := doc("n1", 1000, false)

	got, err := Resolve(local, remote, LastWriteWins, testNow)
	require.NoError(t, err)
	assert.Equal(t, local.Payload, got.Payload)
	assert.True(t, got.Dirty)
}
