package services

import (
	"context"
	"testing"
	"time"

	"house-swap-app/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingPair struct {
	alice, bob models.User
}

func newBookingPair(t *testing.T, f *fixture) bookingPair {
	t.Helper()
	alice, aliceProfile := f.createUser(t, "alice")
	bob, bobProfile := f.createUser(t, "bob")
	f.match(t, aliceProfile, bobProfile)
	f.bookings.now = steppingClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	return bookingPair{alice: alice, bob: bob}
}

func (p bookingPair) create(t *testing.T, f *fixture, dates string) *models.BookingRequest {
	t.Helper()
	booking, err := f.bookings.Create(context.Background(), CreateBookingInput{
		SenderID:       p.alice.ID,
		RecipientID:    p.bob.ID,
		RequestedDates: dates,
		Message:        "Swap for the summer?",
	})
	require.NoError(t, err)
	return booking
}

func TestBookingCreateNotifiesRecipient(t *testing.T) {
	f := newFixture(t)
	p := newBookingPair(t, f)

	booking := p.create(t, f, "2025-08-01 to 2025-08-10")

	assert.Equal(t, models.BookingPending, booking.Status)
	require.NotNil(t, booking.LastActionByID)
	assert.Equal(t, p.alice.ID, *booking.LastActionByID)
	assert.Nil(t, booking.RespondedAt)

	notes := f.notificationsOfType(t, p.bob.ID, "booking")
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "2025-08-01 to 2025-08-10")
	assert.Equal(t, "/messages/1", notes[0].Link)
	assert.Empty(t, f.notificationsOfType(t, p.alice.ID, "booking"))

	mails := f.mailer.to(p.bob.Email)
	require.NotEmpty(t, mails)
	assert.Equal(t, "New booking request", mails[len(mails)-1].Subject)
	assert.Len(t, f.events.ofType(EventBookingCreated), 1)
}

func TestBookingCreateValidation(t *testing.T) {
	f := newFixture(t)
	p := newBookingPair(t, f)
	ctx := context.Background()

	_, err := f.bookings.Create(ctx, CreateBookingInput{SenderID: p.alice.ID, RecipientID: p.alice.ID, RequestedDates: "2025-08-01 to 2025-08-10"})
	assert.ErrorIs(t, err, ErrSelfAction)

	_, err = f.bookings.Create(ctx, CreateBookingInput{SenderID: p.alice.ID, RecipientID: p.bob.ID, RequestedDates: "   "})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBookingAmendThenAccept(t *testing.T) {
	f := newFixture(t)
	p := newBookingPair(t, f)
	ctx := context.Background()
	booking := p.create(t, f, "2025-08-01 to 2025-08-10")

	amended, err := f.bookings.Respond(ctx, p.bob.ID, booking.ID, ActionAmend, "2025-08-15 to 2025-08-20")
	require.NoError(t, err)
	assert.Equal(t, models.BookingAmended, amended.Status)
	assert.Equal(t, "2025-08-15 to 2025-08-20", amended.RequestedDates)
	assert.Nil(t, amended.RespondedAt)
	assert.Equal(t, p.bob.ID, *amended.LastActionByID)

	aliceNotes := f.notificationsOfType(t, p.alice.ID, "booking")
	require.Len(t, aliceNotes, 1)
	assert.Contains(t, aliceNotes[0].Message, "2025-08-15 to 2025-08-20")

	accepted, err := f.bookings.Respond(ctx, p.alice.ID, booking.ID, ActionAccept, "")
	require.NoError(t, err)
	assert.Equal(t, models.BookingAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)
	assert.Equal(t, p.alice.ID, *accepted.LastActionByID)

	var stored models.BookingRequest
	require.NoError(t, f.db.First(&stored, booking.ID).Error)
	assert.Equal(t, models.BookingAccepted, stored.Status)
	assert.Equal(t, "2025-08-15 to 2025-08-20", stored.RequestedDates)
	assert.NotNil(t, stored.RespondedAt)
	assert.Equal(t, p.alice.ID, *stored.LastActionByID)

	assert.Len(t, f.notificationsOfType(t, p.bob.ID, "booking"), 2)
	assert.Len(t, f.events.ofType(EventBookingResponded), 2)
}

func TestBookingAmendCanRepeatAndDeny(t *testing.T) {
	f := newFixture(t)
	p := newBookingPair(t, f)
	ctx := context.Background()
	booking := p.create(t, f, "2025-08-01 to 2025-08-10")

	_, err := f.bookings.Respond(ctx, p.bob.ID, booking.ID, ActionAmend, "2025-08-02 to 2025-08-11")
	require.NoError(t, err)
	_, err = f.bookings.Respond(ctx, p.alice.ID, booking.ID, ActionAmend, "2025-08-03 to 2025-08-12")
	require.NoError(t, err)

	denied, err := f.bookings.Respond(ctx, p.bob.ID, booking.ID, ActionDeny, "")
	require.NoError(t, err)
	assert.Equal(t, models.BookingDenied, denied.Status)
	assert.NotNil(t, denied.RespondedAt)
	assert.Equal(t, "2025-08-03 to 2025-08-12", denied.RequestedDates)
}

func TestBookingRespondRejections(t *testing.T) {
	f := newFixture(t)
	p := newBookingPair(t, f)
	ctx := context.Background()
	outsider, _ := f.createUser(t, "mallory")
	booking := p.create(t, f, "2025-08-01 to 2025-08-10")

	_, err := f.bookings.Respond(ctx, outsider.ID, booking.ID, ActionAccept, "")
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.bookings.Respond(ctx, p.bob.ID, 9999, ActionAccept, "")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = f.bookings.Respond(ctx, p.bob.ID, booking.ID, ActionAmend, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.bookings.Respond(ctx, p.bob.ID, booking.ID, BookingAction("maybe"), "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.bookings.Respond(ctx, p.bob.ID, booking.ID, ActionAccept, "")
	require.NoError(t, err)
	_, err = f.bookings.Respond(ctx, p.alice.ID, booking.ID, ActionDeny, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.Error(t, f.bookings.Cancel(ctx, outsider.ID, booking.ID))
}

func TestBookingCancelAcceptedRemovesRowAndNotifiesCounterpart(t *testing.T) {
	f := newFixture(t)
	p := newBookingPair(t, f)
	ctx := context.Background()
	booking := p.create(t, f, "2025-08-01 to 2025-08-10")
	_, err := f.bookings.Respond(ctx, p.bob.ID, booking.ID, ActionAccept, "")
	require.NoError(t, err)

	before := len(f.notificationsFor(t, p.bob.ID))
	require.NoError(t, f.bookings.Cancel(ctx, p.alice.ID, booking.ID))

	var count int64
	require.NoError(t, f.db.Model(&models.BookingRequest{}).Where("id = ?", booking.ID).Count(&count).Error)
	assert.Zero(t, count)

	after := f.notificationsFor(t, p.bob.ID)
	require.Len(t, after, before+1)
	assert.Contains(t, after[len(after)-1].Message, "2025-08-01 to 2025-08-10")
	assert.Contains(t, after[len(after)-1].Message, "cancelled")

	mails := f.mailer.to(p.bob.Email)
	assert.Equal(t, "Booking cancelled", mails[len(mails)-1].Subject)
	assert.Len(t, f.events.ofType(EventBookingCancelled), 1)

	assert.ErrorIs(t, f.bookings.Cancel(ctx, p.alice.ID, booking.ID), ErrBookingNotFound)
}

func TestBookingGetCurrentReturnsLatest(t *testing.T) {
	f := newFixture(t)
	p := newBookingPair(t, f)
	ctx := context.Background()

	current, err := f.bookings.GetCurrent(ctx, p.alice.ID, p.bob.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	first := p.create(t, f, "2025-08-01 to 2025-08-10")
	_, err = f.bookings.Respond(ctx, p.bob.ID, first.ID, ActionDeny, "")
	require.NoError(t, err)
	second := p.create(t, f, "2025-09-01 to 2025-09-10")

	current, err = f.bookings.GetCurrent(ctx, p.bob.ID, p.alice.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)
}
