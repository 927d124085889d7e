package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skyready/logbook-sync/internal/common"
	"github.com/skyready/logbook-sync/internal/server/models"
)

func newPullHarness(t *testing.T) (*PullService, *fakeEntriesRepo) {
	t.Helper()
	er := newFakeEntriesRepo()
	svc := NewPullService(nil, &fakeRepoManager{entries: er, outbox: newFakeOutboxRepo()}, testLogger(t))
	return svc, er
}

func TestPull_ClassifiesRows(t *testing.T) {
	svc, er := newPullHarness(t)
	last := int64(1000)

	er.selChanged = []*models.Entry{
		{EntryID: "new", CreatedAt: 1500, UpdatedAt: 1500},
		{EntryID: "edited", CreatedAt: 500, UpdatedAt: 1500},
		{EntryID: "removed", CreatedAt: 500, UpdatedAt: 500, DeletedAt: 1500},
	}

	result, err := svc.Pull(context.Background(), "u1", PullRequest{LastPulledAt: last})
	require.NoError(t, err)

	require.Len(t, result.Created, 1)
	require.Equal(t, "new", result.Created[0].EntryID)
	require.Len(t, result.Updated, 1)
	require.Equal(t, "edited", result.Updated[0].EntryID)
	require.Equal(t, []string{"removed"}, result.Deleted)

	require.False(t, result.HasMore)
	require.Equal(t, "3", result.Cursor)
	require.Positive(t, result.Timestamp)
}

func TestPull_DeletedWinsOverEdited(t *testing.T) {
	svc, er := newPullHarness(t)

	// a row both edited and deleted after the watermark reports as deleted
	er.selChanged = []*models.Entry{
		{EntryID: "e1", CreatedAt: 500, UpdatedAt: 1500, DeletedAt: 1600},
	}

	result, err := svc.Pull(context.Background(), "u1", PullRequest{LastPulledAt: 1000})
	require.NoError(t, err)
	require.Empty(t, result.Updated)
	require.Equal(t, []string{"e1"}, result.Deleted)
}

func TestPull_Pagination(t *testing.T) {
	svc, er := newPullHarness(t)

	for i := 0; i < 150; i++ {
		er.selChanged = append(er.selChanged, &models.Entry{
			EntryID:   "e" + strconv.Itoa(i),
			CreatedAt: 2000,
			UpdatedAt: 2000,
		})
	}

	first, err := svc.Pull(context.Background(), "u1", PullRequest{LastPulledAt: 1000})
	require.NoError(t, err)
	require.Len(t, first.Created, 100)
	require.True(t, first.HasMore)
	require.Equal(t, "100", first.Cursor)

	second, err := svc.Pull(context.Background(), "u1", PullRequest{LastPulledAt: 1000, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Created, 50)
	require.False(t, second.HasMore)
	require.Equal(t, "150", second.Cursor)
	require.Equal(t, 100, er.gotOffset)
}

func TestPull_LimitIsClamped(t *testing.T) {
	svc, er := newPullHarness(t)

	_, err := svc.Pull(context.Background(), "u1", PullRequest{Limit: 5000})
	require.NoError(t, err)
	require.Equal(t, MaxPageSize, er.gotLimit)

	_, err = svc.Pull(context.Background(), "u1", PullRequest{Limit: -3})
	require.NoError(t, err)
	require.Equal(t, MaxPageSize, er.gotLimit)

	_, err = svc.Pull(context.Background(), "u1", PullRequest{Limit: 25})
	require.NoError(t, err)
	require.Equal(t, 25, er.gotLimit)
}

func TestPull_BadCursor(t *testing.T) {
	svc, _ := newPullHarness(t)

	for _, cursor := range []string{"abc", "-1", "1.5"} {
		_, err := svc.Pull(context.Background(), "u1", PullRequest{Cursor: cursor})
		require.ErrorIs(t, err, common.ErrValidation, "cursor %q", cursor)
	}
}

func TestPull_WatermarkIsPassedAsSince(t *testing.T) {
	svc, er := newPullHarness(t)
	last := time.Now().UnixMilli()

	_, err := svc.Pull(context.Background(), "u1", PullRequest{LastPulledAt: last})
	require.NoError(t, err)
	require.Equal(t, last, er.gotSince.UnixMilli())
}

func TestPull_StoreErrorPropagates(t *testing.T) {
	svc, er := newPullHarness(t)
	er.selErr = errors.New("connection reset")

	_, err := svc.Pull(context.Background(), "u1", PullRequest{})
	require.Error(t, err)
}
