package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Connect(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestSessionAndMoveRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	session, err := db.CreateSession(ctx, "/vault/INBOX", false)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)

	require.NoError(t, db.RecordMove(ctx, session.ID, Move{
		Src:      "/vault/INBOX/a.pdf",
		Dest:     "/vault/Documents/Finance/a.pdf",
		DestRoot: "Documents",
		Subpath:  "Finance",
		Owner:    "Ana",
	}))
	require.NoError(t, db.RecordMove(ctx, session.ID, Move{
		Src:      "/vault/INBOX/b.jpg",
		Dest:     "/vault/Media/Images/b.jpg",
		DestRoot: "Media",
		Subpath:  "Images",
	}))

	moves, err := db.ListMoves(ctx, 10)
	require.NoError(t, err)
	require.Len(t, moves, 2)

	// Newest first.
	assert.Equal(t, "/vault/INBOX/b.jpg", moves[0].Src)
	assert.Equal(t, "Ana", moves[1].Owner)
	assert.Equal(t, session.ID, moves[0].SessionID)
	assert.False(t, moves[0].CreatedAt.IsZero())
}

func TestListMovesLimit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	session, err := db.CreateSession(ctx, "/vault/INBOX", true)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.RecordMove(ctx, session.ID, Move{Src: "/a", Dest: "/b"}))
	}

	moves, err := db.ListMoves(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, moves, 3)
}

func TestConnectMigratesTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := Connect(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	again, err := Connect(path)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
