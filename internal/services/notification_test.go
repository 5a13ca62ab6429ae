package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.createBareUser(t, "alice")
	bob := f.createBareUser(t, "bob")
	notifications := NewNotificationService(f.db)

	first, err := f.dispatcher.Notify(ctx, alice.ID, "match", "You matched with bob!", "/profiles/2", nil)
	require.NoError(t, err)
	second, err := f.dispatcher.Notify(ctx, alice.ID, "booking", "New booking", "/messages/2", map[string]string{"booking_id": "1"})
	require.NoError(t, err)
	_, err = f.dispatcher.Notify(ctx, alice.ID, "message", "New message", "/messages/2", nil)
	require.NoError(t, err)

	count, err := notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	link, err := notifications.Open(ctx, alice.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "/profiles/2", link)

	assert.ErrorIs(t, notifications.Dismiss(ctx, bob.ID, second.ID), ErrNotFound)
	require.NoError(t, notifications.Dismiss(ctx, alice.ID, second.ID))

	unread, err := notifications.ListUnread(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "message", unread[0].Type)

	updated, err := notifications.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated)

	count, err = notifications.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
