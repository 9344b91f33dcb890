package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cschnabel/scorekeeper/internal/db"
	"github.com/cschnabel/scorekeeper/internal/derive"
	"github.com/cschnabel/scorekeeper/internal/model"
)

type memEntry struct {
	value   string
	version int64
}

type memBlobs struct {
	entries map[string]memEntry
	failPut bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{entries: map[string]memEntry{}}
}

func (m *memBlobs) GetBlob(_ context.Context, key string) (string, int64, error) {
	e := m.entries[key]
	return e.value, e.version, nil
}

func (m *memBlobs) PutBlob(_ context.Context, key, value string, version int64) (int64, bool, error) {
	if m.failPut {
		return 0, false, errors.New("disk full")
	}
	if m.entries[key].version != version {
		return 0, false, nil
	}
	m.entries[key] = memEntry{value: value, version: version + 1}
	return version + 1, true, nil
}

func draft(game, winner string, names ...string) model.Draft {
	rows := make([]model.PlayerRow, 0, len(names))
	for _, n := range names {
		rows = append(rows, model.PlayerRow{Name: n})
	}
	return model.Draft{Game: game, Winner: winner, Players: rows, Date: "2024-01-01"}
}

func games(s *Store) []string {
	var out []string
	for _, m := range s.Snapshot().Matches {
		out = append(out, m.Game)
	}
	return out
}

func TestSaveRejectsSinglePlayer(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBlobs())
	require.NoError(t, s.Load(ctx))

	_, err := s.Save(ctx, s.NewSession(), draft("chess", "Ann", "Ann"))
	assert.ErrorIs(t, err, derive.ErrTooFewPlayers)
	assert.Equal(t, 0, s.Len())
}

func TestStaleDeleteDoesNotRemoveAnotherRecord(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBlobs())
	require.NoError(t, s.Load(ctx))
	for _, g := range []string{"a", "b", "c"} {
		_, err := s.Save(ctx, s.NewSession(), draft(g, "", "Ann", "Bob"))
		require.NoError(t, err)
	}

	sess, d, err := s.Edit(1)
	require.NoError(t, err)
	assert.Equal(t, "b", d.Game)

	require.NoError(t, s.Delete(ctx, sess))
	assert.Equal(t, []string{"a", "c"}, games(s))

	err = s.Delete(ctx, sess)
	assert.ErrorIs(t, err, ErrStaleSession)
	assert.Equal(t, []string{"a", "c"}, games(s))

	_, err = s.Save(ctx, sess, draft("z", "", "Ann", "Bob"))
	assert.ErrorIs(t, err, ErrStaleSession)
	assert.Equal(t, []string{"a", "c"}, games(s))
}

func TestSaveThroughEditSessionReplaces(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBlobs())
	require.NoError(t, s.Load(ctx))
	_, err := s.Save(ctx, s.NewSession(), draft("a", "", "Ann", "Bob"))
	require.NoError(t, err)

	sess, d, err := s.Edit(0)
	require.NoError(t, err)
	d.Winner = "Bob"
	m, err := s.Save(ctx, sess, d)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ann"}, m.Losers)

	snap := s.Snapshot()
	require.Len(t, snap.Matches, 1)
	assert.Equal(t, "Bob", snap.Matches[0].Winner)

	_, _, err = s.Edit(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.NoError(t, s.Delete(ctx, s.NewSession()))
	assert.Equal(t, 1, s.Len())
}

func TestIndexOperationsOutOfRangeAreNoOps(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBlobs())
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Add(ctx, model.Match{Game: "a"}))
	before := s.Version()

	assert.ErrorIs(t, s.Replace(ctx, 1, model.Match{Game: "x"}), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.RemoveAt(ctx, -1), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.RemoveAt(ctx, 1), ErrIndexOutOfRange)
	assert.Equal(t, []string{"a"}, games(s))
	assert.Equal(t, before, s.Version())
}

func TestRemoveAtShifts(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBlobs())
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.ReplaceAll(ctx, []model.Match{{Game: "a"}, {Game: "b"}, {Game: "c"}}))

	require.NoError(t, s.RemoveAt(ctx, 0))
	assert.Equal(t, []string{"b", "c"}, games(s))
	require.NoError(t, s.Replace(ctx, 1, model.Match{Game: "d"}))
	assert.Equal(t, []string{"b", "d"}, games(s))
}

func TestPersistFailureLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	blobs := newMemBlobs()
	s := New(blobs)
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Add(ctx, model.Match{Game: "a"}))

	blobs.failPut = true
	assert.Error(t, s.Add(ctx, model.Match{Game: "b"}))
	assert.Error(t, s.ReplaceAll(ctx, nil))
	assert.Equal(t, []string{"a"}, games(s))
}

func TestLoadTreatsMalformedBlobAsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{`{"game":"x"}`, `not json`, `null`, ``} {
		blobs := newMemBlobs()
		blobs.entries[BlobKey] = memEntry{value: raw, version: 1}
		s := New(blobs)
		require.NoError(t, s.Load(ctx), raw)
		assert.Equal(t, 0, s.Len(), raw)
		require.NoError(t, s.Add(ctx, model.Match{Game: "a"}), raw)
		assert.Equal(t, uint64(2), s.Version(), raw)
	}
}

func TestSubscribersSeeEveryMutation(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBlobs())
	var seen []uint64
	s.Subscribe(func(v uint64) { seen = append(seen, v) })

	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Add(ctx, model.Match{Game: "a"}))
	_ = s.RemoveAt(ctx, 3)
	require.NoError(t, s.RemoveAt(ctx, 0))

	assert.Equal(t, []uint64{0, 1, 2}, seen)
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New(newMemBlobs())
	require.NoError(t, s.Add(ctx, model.Match{Game: "a", Players: []string{"Ann", "Bob"}}))

	snap := s.Snapshot()
	snap.Matches[0].Players[0] = "Zed"
	assert.Equal(t, "Ann", s.Snapshot().Matches[0].Players[0])
}

func TestPersistsThroughSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scorekeeper.db")

	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, db.Init(ctx, database))

	s := New(db.NewStore(database))
	require.NoError(t, s.Load(ctx))
	_, err = s.Save(ctx, s.NewSession(), model.Draft{
		Game:    "Catan",
		Players: []model.PlayerRow{{Name: "Ann", Points: "10"}, {Name: "Bob", Points: "8"}},
		Winner:  "Ann",
		Date:    "2024-06-01",
	})
	require.NoError(t, err)

	reloaded := New(db.NewStore(database))
	require.NoError(t, reloaded.Load(ctx))
	snap := reloaded.Snapshot()
	require.Len(t, snap.Matches, 1)
	assert.Equal(t, 2.0, snap.Matches[0].PointsWon)
	assert.Equal(t, []string{"Bob"}, snap.Matches[0].Losers)
	assert.Equal(t, s.Version(), reloaded.Version())
}

func openSQLiteStore(t *testing.T, path string) *Store {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.Init(ctx, database))

	s := New(db.NewStore(database))
	require.NoError(t, s.Load(ctx))
	return s
}

func TestStoresSharingADatabaseKeepEachOthersWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	cli := openSQLiteStore(t, path)
	server := openSQLiteStore(t, path)

	require.NoError(t, cli.Add(ctx, model.Match{Game: "from-cli"}))
	require.NoError(t, server.Add(ctx, model.Match{Game: "from-server"}))
	assert.Equal(t, []string{"from-cli", "from-server"}, games(server))

	reloaded := openSQLiteStore(t, path)
	assert.Equal(t, []string{"from-cli", "from-server"}, games(reloaded))

	require.NoError(t, cli.Refresh(ctx))
	assert.Equal(t, []string{"from-cli", "from-server"}, games(cli))
}

func TestSessionGoesStaleWhenAnotherStoreWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shared.db")
	cli := openSQLiteStore(t, path)
	server := openSQLiteStore(t, path)

	require.NoError(t, server.ReplaceAll(ctx, []model.Match{{Game: "a"}, {Game: "b"}}))
	require.NoError(t, server.Refresh(ctx))
	sess, _, err := server.Edit(1)
	require.NoError(t, err)

	require.NoError(t, cli.RemoveAt(ctx, 0))

	assert.ErrorIs(t, server.Delete(ctx, sess), ErrStaleSession)
	assert.Equal(t, []string{"b"}, games(server))
}

func TestVersionSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "restart.db")
	before := openSQLiteStore(t, path)
	require.NoError(t, before.ReplaceAll(ctx, []model.Match{{Game: "a"}, {Game: "b"}}))
	sess, _, err := before.Edit(1)
	require.NoError(t, err)
	require.NoError(t, before.RemoveAt(ctx, 0))

	after := openSQLiteStore(t, path)
	assert.Equal(t, before.Version(), after.Version())
	assert.ErrorIs(t, after.Delete(ctx, sess), ErrStaleSession)
	assert.Equal(t, []string{"b"}, games(after))
}

func TestMutationAppliesToLatestPersistedList(t *testing.T) {
	ctx := context.Background()
	blobs := newMemBlobs()
	s := New(blobs)
	require.NoError(t, s.Load(ctx))
	require.NoError(t, s.Add(ctx, model.Match{Game: "a"}))

	blobs.entries[BlobKey] = memEntry{value: `[{"game":"a"},{"game":"x"}]`, version: 5}
	require.NoError(t, s.Add(ctx, model.Match{Game: "b"}))
	assert.Equal(t, []string{"a", "x", "b"}, games(s))
	assert.Equal(t, uint64(6), s.Version())
}
