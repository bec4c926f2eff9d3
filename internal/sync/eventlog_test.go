package syncx_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/proctored-quiz/internal/db"
	syncx "github.com/mind-engage/proctored-quiz/internal/sync"
)

func TestEventRepo_AppendAndList(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:eventlog_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer dbh.Close()

	repo := syncx.NewEventRepo(dbh)
	e, err := syncx.NewEvent(syncx.TypeAttemptSubmitted, "user_1", map[string]int{"score": 2})
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, e))

	other, err := syncx.NewEvent(syncx.TypeAttemptSubmitted, "user_2", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, other))

	got, err := repo.List(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, syncx.TypeAttemptSubmitted, got[0].Type)
	assert.Equal(t, "local", got[0].SiteID)
	assert.JSONEq(t, `{"score":2}`, got[0].DataJSON)
	assert.NotZero(t, got[0].CreatedAt)
}

func TestMemoryLog(t *testing.T) {
	var l syncx.MemoryLog
	require.NoError(t, l.Append(context.Background(), syncx.Event{Type: "a"}))
	require.NoError(t, l.Append(context.Background(), syncx.Event{Type: "b"}))

	evs := l.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, int64(2), evs[1].Seq)
}
