package database

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/room-chat/internal/models"
	"github.com/thereayou/room-chat/internal/services"
)

// runStoreContract exercises behaviour every MessageStore must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) services.MessageStore) {
	ctx := context.Background()

	t.Run("append then list returns the stored message once", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		saved, err := store.Append(ctx, "alice", "hello", "general")
		req.NoError(err)
		req.NotEqual(uuid.Nil, saved.ID)
		req.False(saved.CreatedAt.IsZero())
		req.Equal("general", saved.Room)

		messages, err := store.ListByRoom(ctx, "general")
		req.NoError(err)
		req.Len(messages, 1)
		req.Equal(saved.ID, messages[0].ID)
		req.Equal("alice", messages[0].Author)
		req.Equal("hello", messages[0].Text)
		req.True(saved.CreatedAt.Equal(messages[0].CreatedAt))
	})

	t.Run("ids are unique and history keeps insertion order", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		seen := make(map[uuid.UUID]bool)
		var want []uuid.UUID
		for _, text := range []string{"one", "two", "three", "four", "five"} {
			saved, err := store.Append(ctx, "bob", text, "general")
			req.NoError(err)
			req.False(seen[saved.ID], "duplicate id %s", saved.ID)
			seen[saved.ID] = true
			want = append(want, saved.ID)
		}

		messages, err := store.ListByRoom(ctx, "general")
		req.NoError(err)
		req.Len(messages, len(want))
		for i, m := range messages {
			req.Equal(want[i], m.ID)
			if i > 0 {
				req.False(m.CreatedAt.Before(messages[i-1].CreatedAt))
			}
		}
	})

	t.Run("rooms are isolated", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		_, err := store.Append(ctx, "alice", "in a", "a")
		req.NoError(err)
		_, err = store.Append(ctx, "alice", "in a:b", "a:b")
		req.NoError(err)

		messages, err := store.ListByRoom(ctx, "a")
		req.NoError(err)
		req.Len(messages, 1)
		req.Equal("in a", messages[0].Text)

		messages, err = store.ListByRoom(ctx, "random")
		req.NoError(err)
		req.NotNil(messages)
		req.Empty(messages)
	})

	t.Run("empty room falls back to the default room", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		saved, err := store.Append(ctx, "alice", "hi", "")
		req.NoError(err)
		req.Equal(models.DefaultRoom, saved.Room)
	})

	t.Run("empty author or text is rejected and not persisted", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		_, err := store.Append(ctx, "", "hello", "general")
		req.ErrorIs(err, services.ErrValidation)
		_, err = store.Append(ctx, "alice", "   ", "general")
		req.ErrorIs(err, services.ErrValidation)

		messages, err := store.ListByRoom(ctx, "general")
		req.NoError(err)
		req.Empty(messages)
	})

	t.Run("delete is idempotent and leaves other records alone", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		first, err := store.Append(ctx, "alice", "first", "general")
		req.NoError(err)
		second, err := store.Append(ctx, "alice", "second", "general")
		req.NoError(err)

		removed, err := store.DeleteByID(ctx, first.ID)
		req.NoError(err)
		req.True(removed)

		removed, err = store.DeleteByID(ctx, first.ID)
		req.NoError(err)
		req.False(removed)

		_, err = store.FindByID(ctx, first.ID)
		req.ErrorIs(err, services.ErrMessageNotFound)

		messages, err := store.ListByRoom(ctx, "general")
		req.NoError(err)
		req.Len(messages, 1)
		req.Equal(second.ID, messages[0].ID)
	})

	t.Run("find returns the stored record", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		saved, err := store.Append(ctx, "carol", "find me", "random")
		req.NoError(err)

		found, err := store.FindByID(ctx, saved.ID)
		req.NoError(err)
		req.Equal(saved.ID, found.ID)
		req.Equal("carol", found.Author)
		req.Equal("random", found.Room)

		_, err = store.FindByID(ctx, uuid.New())
		req.ErrorIs(err, services.ErrMessageNotFound)
	})

	t.Run("edit changes text only", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		saved, err := store.Append(ctx, "alice", "draft", "general")
		req.NoError(err)
		req.False(saved.Edited())

		edited, err := store.EditText(ctx, saved.ID, "final")
		req.NoError(err)
		req.Equal("final", edited.Text)
		req.True(edited.Edited())
		req.Equal(saved.ID, edited.ID)
		req.Equal(saved.Author, edited.Author)
		req.Equal(saved.Room, edited.Room)
		req.True(saved.CreatedAt.Equal(edited.CreatedAt))

		messages, err := store.ListByRoom(ctx, "general")
		req.NoError(err)
		req.Len(messages, 1)
		req.Equal("final", messages[0].Text)

		_, err = store.EditText(ctx, saved.ID, "")
		req.ErrorIs(err, services.ErrValidation)
		_, err = store.EditText(ctx, uuid.New(), "ghost")
		req.ErrorIs(err, services.ErrMessageNotFound)
	})

	t.Run("canceled context fails the call", func(t *testing.T) {
		req := require.New(t)
		store := newStore(t)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Append(canceled, "alice", "late", "general")
		req.Error(err)
	})
}
