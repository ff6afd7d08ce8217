package service

import (
	"context"
	"sync"
	"testing"
	"time"

	gevent "github.com/gookit/event"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.ule.co/platform/config"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db/dbtest"
	"go.ule.co/platform/db/models"
	"go.ule.co/platform/event"
	"gorm.io/gorm"
)

var testEpoch = time.Date(1984, time.April, 4, 0, 0, 0, 0, time.UTC)

type staticConfig struct {
	cfg *config.Config
}

func (s staticConfig) Init() error { return nil }
func (s staticConfig) Config() *config.Config { return s.cfg }
func (s staticConfig) Save() error { return nil }
func (s staticConfig) ConfigFile() string { return "" }

func newStaticConfig(workers int) staticConfig {
	return staticConfig{cfg: &config.Config{Core: config.CoreConfig{
		Domain:  "ule.test",
		AppName: "Ule",
		Cron: config.CronConfig{
			LockBackend: config.LockBackendDatabase,
			Workers:     workers,
		},
	}}}
}

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	err     error
}

func (f *fakeStorage) DeleteObjects(_ context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}

	f.deleted = append(f.deleted, keys...)
	return nil
}

type testEnv struct {
	db         *gorm.DB
	clock      clockwork.FakeClock
	logger     *core.Logger
	events     *gevent.Manager
	storage    *fakeStorage
	users      *UserServiceDefault
	privacyLog *PrivacyLogServiceDefault
	deletion   *DeletionServiceDefault
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		db:      dbtest.Open(t),
		clock:   clockwork.NewFakeClockAt(testEpoch),
		logger:  core.NewNopLogger(),
		events:  event.NewManager(),
		storage: &fakeStorage{},
	}

	env.users = NewUserService(UserServiceParams{Db: env.db})
	env.privacyLog = NewPrivacyLogService(PrivacyLogServiceParams{Db: env.db, Clock: env.clock})
	env.deletion = NewDeletionService(DeletionServiceParams{
		Db:         env.db,
		Clock:      env.clock,
		Logger:     env.logger,
		Users:      env.users,
		Storage:    env.storage,
		PrivacyLog: env.privacyLog,
		Events:     env.events,
	})

	return env
}

func (e *testEnv) locker() *DatabaseLocker {
	return NewDatabaseLocker(DatabaseLockerParams{Db: e.db, Clock: e.clock, Logger: e.logger})
}

func (e *testEnv) job(workers int) *DeletionJobDefault {
	return NewDeletionJob(DeletionJobParams{
		Db:       e.db,
		Config:   newStaticConfig(workers),
		Clock:    e.clock,
		Logger:   e.logger,
		Locker:   e.locker(),
		Deletion: e.deletion,
		Metrics:  NewMetrics(),
	})
}

func (e *testEnv) createUser(t *testing.T, email string) models.User {
	t.Helper()

	user := models.User{FirstName: "Ana", LastName: "Gómez", Email: email}
	require.NoError(t, e.db.Create(&user).Error)

	return user
}

func (e *testEnv) addDocument(t *testing.T, userID uint, key string) {
	t.Helper()

	require.NoError(t, e.db.Create(&models.Document{
		UserID:      userID,
		Name:        key,
		StorageKey:  key,
		ContentType: "application/pdf",
		Size:        1024,
	}).Error)
}

// confirmedRequest walks userID through request and confirm.
func (e *testEnv) confirmedRequest(t *testing.T, userID uint) models.DeletionRequest {
	t.Helper()
	ctx := context.Background()

	token, err := e.deletion.RequestDeletion(ctx, userID, nil, "10.0.0.1")
	require.NoError(t, err)

	_, err = e.deletion.ConfirmDeletion(ctx, userID, token, "10.0.0.1")
	require.NoError(t, err)

	request, err := e.deletion.GetStatus(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, request)

	return *request
}

func (e *testEnv) logActions(t *testing.T, userID uint) []models.PrivacyAction {
	t.Helper()

	var actions []models.PrivacyAction
	require.NoError(t, e.db.Model(&models.PrivacyLog{}).
		Where("user_id = ?", userID).
		Order("id asc").
		Pluck("action", &actions).Error)

	return actions
}
