package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-table/internal/domain/user"
	"user-table/internal/usertable"
)

func TestTableStore_SaveAndLoad(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewTableStore(client, time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	state, ok := usertable.State{
		Users: []domain.User{
			{ID: 1, FirstName: "Emily", Email: "emily@x.com"},
			{ID: 5, FirstName: "Eve", Email: "eve@x.com"},
		},
		Mounted: true,
	}.Edit(5)
	require.True(t, ok)

	require.NoError(t, store.Save(ctx, "abc", state))
	assert.True(t, mr.Exists("usertable:state:abc"))
	assert.Equal(t, time.Hour, mr.TTL("usertable:state:abc"))

	loaded, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.True(t, loaded.Mounted)
	assert.Len(t, loaded.Users, 2)
	require.NotNil(t, loaded.Editing)
	assert.Equal(t, int64(5), loaded.Editing.ID)
	assert.Equal(t, usertable.FormState{FirstName: "Eve", Email: "eve@x.com"}, loaded.Form)
	assert.Equal(t, usertable.LabelUpdate, loaded.SubmitLabel())
}

func TestTableStore_LoadMissing(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewTableStore(client, time.Hour, zaptest.NewLogger(t))

	loaded, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestTableStore_ExpiresAndDeletes(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewTableStore(client, time.Minute, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", usertable.NewState()))
	require.NoError(t, store.Save(ctx, "b", usertable.NewState()))

	require.NoError(t, store.Delete(ctx, "a"))
	assert.False(t, mr.Exists("usertable:state:a"))

	mr.FastForward(2 * time.Minute)
	loaded, err := store.Load(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
