package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.ule.co/platform/core"
	"go.ule.co/platform/db/models"
	"go.ule.co/platform/event"
)

func TestRequestDeletion(t *testing.T) {
	ctx := context.Background()

	t.Run("creates one pending request with a strong token", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")
		reason := "ya no uso la aplicación"

		token, err := env.deletion.RequestDeletion(ctx, user.ID, &reason, "10.0.0.1")
		require.NoError(t, err)
		assert.Len(t, token, core.DeletionTokenBytes*2)

		var requests []models.DeletionRequest
		require.NoError(t, env.db.Where("user_id = ?", user.ID).Find(&requests).Error)
		require.Len(t, requests, 1)
		assert.Equal(t, models.DeletionStatePending, requests[0].State)
		assert.Equal(t, token, requests[0].Token)
		assert.Equal(t, testEpoch, requests[0].RequestedAt.UTC())
		assert.Equal(t, reason, *requests[0].Reason)

		assert.Equal(t, []models.PrivacyAction{models.PrivacyActionDeletionRequested}, env.logActions(t, user.ID))
	})

	t.Run("tokens differ between users", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.createUser(t, "a@ule.co")
		b := env.createUser(t, "b@ule.co")

		tokenA, err := env.deletion.RequestDeletion(ctx, a.ID, nil, "")
		require.NoError(t, err)
		tokenB, err := env.deletion.RequestDeletion(ctx, b.ID, nil, "")
		require.NoError(t, err)

		assert.NotEqual(t, tokenA, tokenB)
	})

	t.Run("active request returns its existing token", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")

		first, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
		require.NoError(t, err)

		second, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
		require.NoError(t, err)
		assert.Equal(t, first, second)

		_, err = env.deletion.ConfirmDeletion(ctx, user.ID, first, "")
		require.NoError(t, err)

		third, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
		require.NoError(t, err)
		assert.Equal(t, first, third)

		var count int64
		require.NoError(t, env.db.Model(&models.DeletionRequest{}).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("concurrent requests converge on one token", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")

		const callers = 4
		tokens := make([]string, callers)
		errs := make([]error, callers)

		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				tokens[i], errs[i] = env.deletion.RequestDeletion(ctx, user.ID, nil, "")
			}()
		}
		wg.Wait()

		for i := 0; i < callers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, tokens[0], tokens[i])
		}

		var count int64
		require.NoError(t, env.db.Model(&models.DeletionRequest{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.deletion.RequestDeletion(ctx, 999, nil, "")
		assert.True(t, core.IsPrivacyErrorType(err, core.ErrKeyUserNotFound))
	})
}

func TestConfirmDeletion(t *testing.T) {
	ctx := context.Background()

	t.Run("schedules execution thirty days out", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")

		token, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
		require.NoError(t, err)

		env.clock.Advance(90 * time.Minute)
		confirmedAt := env.clock.Now().UTC()

		executionDate, err := env.deletion.ConfirmDeletion(ctx, user.ID, token, "10.0.0.2")
		require.NoError(t, err)
		assert.Equal(t, confirmedAt.Add(30*24*time.Hour), executionDate)
		assert.Equal(t, time.UTC, executionDate.Location())

		request, err := env.deletion.GetStatus(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, request)
		assert.Equal(t, models.DeletionStateGracePeriod, request.State)
		require.NotNil(t, request.ConfirmedAt)
		require.NotNil(t, request.ExecutionDate)
		assert.Equal(t, core.DeletionGracePeriod, request.ExecutionDate.Sub(*request.ConfirmedAt))

		var entry models.PrivacyLog
		require.NoError(t, env.db.Where("user_id = ? AND action = ?", user.ID, models.PrivacyActionDeletionConfirmed).First(&entry).Error)
		assert.Equal(t, confirmedAt, entry.CreatedAt.UTC())
		assert.Equal(t, "10.0.0.2", entry.SourceIP)
		require.NotNil(t, entry.Metadata.Data().Confirmed)
		assert.Equal(t, request.ID, entry.Metadata.Data().Confirmed.RequestID)
	})

	t.Run("rejects every mismatched pairing", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.createUser(t, "a@ule.co")
		b := env.createUser(t, "b@ule.co")

		tokenA, err := env.deletion.RequestDeletion(ctx, a.ID, nil, "")
		require.NoError(t, err)
		tokenB, err := env.deletion.RequestDeletion(ctx, b.ID, nil, "")
		require.NoError(t, err)

		tests := []struct {
			name   string
			userID uint
			token  string
		}{
			{"token of another user", a.ID, tokenB},
			{"wrong token", a.ID, "00" + tokenA[2:]},
			{"empty token", a.ID, ""},
			{"unknown user", 999, tokenA},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := env.deletion.ConfirmDeletion(ctx, tt.userID, tt.token, "")
				assert.True(t, core.IsPrivacyErrorType(err, core.ErrKeyDeletionRequestNotFound))
			})
		}

		request, err := env.deletion.GetStatus(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DeletionStatePending, request.State)
	})

	t.Run("cannot confirm twice", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")

		token, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
		require.NoError(t, err)

		first, err := env.deletion.ConfirmDeletion(ctx, user.ID, token, "")
		require.NoError(t, err)

		env.clock.Advance(24 * time.Hour)

		_, err = env.deletion.ConfirmDeletion(ctx, user.ID, token, "")
		assert.True(t, core.IsPrivacyErrorType(err, core.ErrKeyDeletionRequestNotFound))

		request, err := env.deletion.GetStatus(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, first, request.ExecutionDate.UTC())
	})
}

func TestCancelDeletion(t *testing.T) {
	ctx := context.Background()

	for _, confirm := range []bool{false, true} {
		name := "pending"
		if confirm {
			name = "grace period"
		}

		t.Run(name+" request is removed and cancel is idempotent", func(t *testing.T) {
			env := newTestEnv(t)
			user := env.createUser(t, "ana@ule.co")

			token, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
			require.NoError(t, err)

			previous := models.DeletionStatePending
			if confirm {
				_, err = env.deletion.ConfirmDeletion(ctx, user.ID, token, "")
				require.NoError(t, err)
				previous = models.DeletionStateGracePeriod
			}

			require.NoError(t, env.deletion.CancelDeletion(ctx, user.ID, ""))
			require.NoError(t, env.deletion.CancelDeletion(ctx, user.ID, ""))

			request, err := env.deletion.GetStatus(ctx, user.ID)
			require.NoError(t, err)
			assert.Nil(t, request)

			var entries []models.PrivacyLog
			require.NoError(t, env.db.Where("user_id = ? AND action = ?", user.ID, models.PrivacyActionDeletionCancelled).Find(&entries).Error)
			require.Len(t, entries, 1)
			assert.Equal(t, previous, entries[0].Metadata.Data().Cancelled.PreviousState)
		})
	}

	t.Run("without any request", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")

		require.NoError(t, env.deletion.CancelDeletion(ctx, user.ID, ""))
		assert.Empty(t, env.logActions(t, user.ID))
	})

	t.Run("a new request after cancel gets a new token", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")

		first, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
		require.NoError(t, err)
		require.NoError(t, env.deletion.CancelDeletion(ctx, user.ID, ""))

		second, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestExecuteDeletion(t *testing.T) {
	ctx := context.Background()

	t.Run("purges the account and its objects", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")
		other := env.createUser(t, "otro@ule.co")
		env.addDocument(t, user.ID, "docs/ana/rut.pdf")
		env.addDocument(t, user.ID, "docs/ana/cedula.pdf")
		env.addDocument(t, other.ID, "docs/otro/rut.pdf")
		require.NoError(t, env.db.Create(&models.CalendarReminder{UserID: user.ID, Title: "PILA"}).Error)

		request := env.confirmedRequest(t, user.ID)
		env.clock.Advance(core.DeletionGracePeriod)

		require.NoError(t, env.deletion.ExecuteDeletion(ctx, request.ID))

		exists, _, err := env.users.AccountExists(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		var count int64
		require.NoError(t, env.db.Unscoped().Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error)
		assert.Zero(t, count, "user must be hard deleted")
		require.NoError(t, env.db.Unscoped().Model(&models.Document{}).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Zero(t, count)
		require.NoError(t, env.db.Unscoped().Model(&models.CalendarReminder{}).Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Zero(t, count)
		require.NoError(t, env.db.Model(&models.Document{}).Where("user_id = ?", other.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		assert.ElementsMatch(t, []string{"docs/ana/rut.pdf", "docs/ana/cedula.pdf"}, env.storage.deleted)

		status, err := env.deletion.GetStatus(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, status)

		assert.Equal(t, []models.PrivacyAction{
			models.PrivacyActionDeletionRequested,
			models.PrivacyActionDeletionConfirmed,
			models.PrivacyActionDeletionStarted,
			models.PrivacyActionDeletionExecuted,
		}, env.logActions(t, user.ID))
	})

	t.Run("refuses requests that are not due", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")

		token, err := env.deletion.RequestDeletion(ctx, user.ID, nil, "")
		require.NoError(t, err)
		pending, err := env.deletion.GetStatus(ctx, user.ID)
		require.NoError(t, err)

		err = env.deletion.ExecuteDeletion(ctx, pending.ID)
		assert.True(t, core.IsPrivacyErrorType(err, core.ErrKeyDeletionNotDue))

		_, err = env.deletion.ConfirmDeletion(ctx, user.ID, token, "")
		require.NoError(t, err)
		env.clock.Advance(core.DeletionGracePeriod - time.Second)

		err = env.deletion.ExecuteDeletion(ctx, pending.ID)
		assert.True(t, core.IsPrivacyErrorType(err, core.ErrKeyDeletionNotDue))

		exists, _, err := env.users.AccountExists(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("unknown request", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.deletion.ExecuteDeletion(ctx, "missing")
		assert.True(t, core.IsPrivacyErrorType(err, core.ErrKeyDeletionRequestNotFound))
	})

	t.Run("object purge failure keeps the account and logs the failure", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")
		env.addDocument(t, user.ID, "docs/ana/rut.pdf")
		env.storage.err = core.NewPrivacyError(core.ErrKeyObjectPurgeFailed, errors.New("s3 down"))

		request := env.confirmedRequest(t, user.ID)
		env.clock.Advance(core.DeletionGracePeriod)

		err := env.deletion.ExecuteDeletion(ctx, request.ID)
		assert.True(t, core.IsPrivacyErrorType(err, core.ErrKeyObjectPurgeFailed))

		exists, _, err := env.users.AccountExists(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		status, err := env.deletion.GetStatus(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, status)

		actions := env.logActions(t, user.ID)
		assert.Equal(t, []models.PrivacyAction{
			models.PrivacyActionDeletionStarted,
			models.PrivacyActionDeletionFailed,
		}, actions[len(actions)-2:])
		assert.NotContains(t, actions, models.PrivacyActionDeletionExecuted, "a failed attempt must not read as executed")

		env.storage.err = nil
		require.NoError(t, env.deletion.ExecuteDeletion(ctx, request.ID))

		assert.Equal(t, []models.PrivacyAction{
			models.PrivacyActionDeletionRequested,
			models.PrivacyActionDeletionConfirmed,
			models.PrivacyActionDeletionStarted,
			models.PrivacyActionDeletionFailed,
			models.PrivacyActionDeletionStarted,
			models.PrivacyActionDeletionExecuted,
		}, env.logActions(t, user.ID))
	})

	t.Run("fires the executed event with the removed user", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "ana@ule.co")

		var got *models.User
		event.OnDeletion(env.events, event.EVENT_DELETION_EXECUTED, func(evt *event.DeletionEvent) error {
			got = evt.User()
			return errors.New("listener failures are not fatal")
		})

		request := env.confirmedRequest(t, user.ID)
		env.clock.Advance(core.DeletionGracePeriod)

		require.NoError(t, env.deletion.ExecuteDeletion(ctx, request.ID))
		require.NotNil(t, got)
		assert.Equal(t, "ana@ule.co", got.Email)
	})
}

func TestDueRequests(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	early := env.createUser(t, "early@ule.co")
	late := env.createUser(t, "late@ule.co")
	pending := env.createUser(t, "pending@ule.co")

	env.confirmedRequest(t, early.ID)
	env.clock.Advance(10 * 24 * time.Hour)
	env.confirmedRequest(t, late.ID)
	_, err := env.deletion.RequestDeletion(ctx, pending.ID, nil, "")
	require.NoError(t, err)

	env.clock.Advance(25 * 24 * time.Hour)

	due, err := env.deletion.DueRequests(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, early.ID, due[0].UserID)

	env.clock.Advance(10 * 24 * time.Hour)

	due, err = env.deletion.DueRequests(ctx)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID, due[0].UserID)
	assert.Equal(t, late.ID, due[1].UserID)
}
