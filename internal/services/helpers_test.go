package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"house-swap-app/internal/database"
	"house-swap-app/internal/models"
	"house-swap-app/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "correct-horse"

var (
	passwordHashOnce sync.Once
	passwordHash     string
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *recordingMailer) to(address string) []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sentMail
	for _, s := range m.sent {
		if s.To == address {
			out = append(out, s)
		}
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event DomainEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) ofType(kind string) []DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []DomainEvent
	for _, e := range p.events {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	log        *logrus.Logger
	logs       *test.Hook
	mailer     *recordingMailer
	events     *recordingPublisher
	dispatcher *Dispatcher
	matches    *MatchService
	bookings   *BookingService
	reviews    *ReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	f := &fixture{
		db:     newTestDB(t),
		log:    log,
		logs:   hook,
		mailer: &recordingMailer{},
		events: &recordingPublisher{},
	}
	f.dispatcher = NewDispatcher(f.db, f.mailer, log)
	f.matches = NewMatchService(f.db, f.dispatcher, f.events, log)
	f.bookings = NewBookingService(f.db, f.dispatcher, f.events, log)
	f.reviews = NewReviewService(f.db, f.matches)
	return f
}

// createUser inserts a user with a visible, empty profile.
func (f *fixture) createUser(t *testing.T, username string) (models.User, models.Profile) {
	t.Helper()
	user := f.createBareUser(t, username)
	profile := f.createProfile(t, user.ID, nil)
	return user, profile
}

func (f *fixture) createBareUser(t *testing.T, username string) models.User {
	t.Helper()

	passwordHashOnce.Do(func() {
		hash, err := utils.HashPassword(testPassword)
		if err != nil {
			panic(err)
		}
		passwordHash = hash
	})

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *fixture) createProfile(t *testing.T, userID uint, mutate func(*models.Profile)) models.Profile {
	t.Helper()
	profile := models.Profile{UserID: userID, IsVisible: true}
	if mutate != nil {
		mutate(&profile)
	}
	require.NoError(t, f.db.Create(&profile).Error)
	return profile
}

func (f *fixture) match(t *testing.T, a, b models.Profile) {
	t.Helper()
	ctx := context.Background()
	_, err := f.matches.Like(ctx, a.UserID, b.ID)
	require.NoError(t, err)
	outcome, err := f.matches.Like(ctx, b.UserID, a.ID)
	require.NoError(t, err)
	require.True(t, outcome.IsMutual)
}

func (f *fixture) notificationsFor(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	var out []models.Notification
	require.NoError(t, f.db.Where("user_id = ?", userID).Order("id").Find(&out).Error)
	return out
}

func (f *fixture) notificationsOfType(t *testing.T, userID uint, kind string) []models.Notification {
	t.Helper()
	var out []models.Notification
	for _, n := range f.notificationsFor(t, userID) {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

// steppingClock returns increasing instants one minute apart.
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Minute)
		return current
	}
}
