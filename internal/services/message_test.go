package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageBetweenMatchedUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceProfile := f.createUser(t, "alice")
	bob, bobProfile := f.createUser(t, "bob")
	f.match(t, aliceProfile, bobProfile)
	messages := NewMessageService(f.db, f.matches, f.dispatcher)

	_, err := messages.Send(ctx, SendMessageInput{SenderID: alice.ID, RecipientID: bob.ID, Content: "Hi Bob"})
	require.NoError(t, err)
	_, err = messages.Send(ctx, SendMessageInput{SenderID: bob.ID, RecipientID: alice.ID, Content: "Hi Alice"})
	require.NoError(t, err)

	conversation, err := messages.Conversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	assert.Equal(t, "Hi Bob", conversation[0].Content)
	assert.Equal(t, "Hi Alice", conversation[1].Content)

	notes := f.notificationsOfType(t, bob.ID, "message")
	require.Len(t, notes, 1)
	assert.Equal(t, "/messages/1", notes[0].Link)
}

func TestSendMessageRequiresMatchAndContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, aliceProfile := f.createUser(t, "alice")
	bob, bobProfile := f.createUser(t, "bob")
	carol, _ := f.createUser(t, "carol")
	f.match(t, aliceProfile, bobProfile)
	messages := NewMessageService(f.db, f.matches, f.dispatcher)

	_, err := messages.Send(ctx, SendMessageInput{SenderID: alice.ID, RecipientID: carol.ID, Content: "Hello"})
	assert.ErrorIs(t, err, ErrNotMatched)

	_, err = messages.Send(ctx, SendMessageInput{SenderID: alice.ID, RecipientID: bob.ID, Content: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = messages.Send(ctx, SendMessageInput{SenderID: alice.ID, RecipientID: alice.ID, Content: "me"})
	assert.ErrorIs(t, err, ErrSelfAction)
}
