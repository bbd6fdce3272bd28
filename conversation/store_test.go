package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "applicant-1")
	assert.ErrorIs(t, err, ErrStateNotFound)

	state := State{ApplicationID: "app_test_1", ApplicantID: "applicant-1", QuestionIndex: 2}
	require.NoError(t, store.Put(ctx, "applicant-1", state))

	got, err := store.Get(ctx, "applicant-1")
	require.NoError(t, err)
	assert.Equal(t, state, got)

	require.NoError(t, store.Delete(ctx, "applicant-1"))
	_, err = store.Get(ctx, "applicant-1")
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestMemoryStore_OneStatePerApplicant(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "applicant-1", State{ApplicationID: "app_test_1"}))
	require.NoError(t, store.Put(ctx, "applicant-1", State{ApplicationID: "app_test_2"}))

	got, err := store.Get(ctx, "applicant-1")
	require.NoError(t, err)
	assert.Equal(t, "app_test_2", got.ApplicationID)
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), srv
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	state := State{
		ApplicationID:      "app_test_1",
		ApplicantID:        "applicant-1",
		ApplicantName:      "Applicant One",
		QuestionIndex:      1,
		Fragments:          []string{"Q: Q1?\nA: yes\n"},
		OutboundMessageIDs: []string{"msg-1", "msg-2"},
		StartedAt:          started,
		LastStart:          started,
	}
	require.NoError(t, store.Put(ctx, "applicant-1", state))

	got, err := store.Get(ctx, "applicant-1")
	require.NoError(t, err)
	assert.Equal(t, state, got)
}

func TestRedisStore_MissingState(t *testing.T) {
	store, _ := newRedisStore(t)

	_, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStore_DeleteIsIdempotent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "applicant-1", State{ApplicationID: "app_test_1"}))
	require.NoError(t, store.Delete(ctx, "applicant-1"))
	require.NoError(t, store.Delete(ctx, "applicant-1"))

	_, err := store.Get(ctx, "applicant-1")
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestRedisStore_AbandonedStateExpires(t *testing.T) {
	store, srv := newRedisStore(t)
	store.WithTTL(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "applicant-1", State{ApplicationID: "app_test_1"}))

	srv.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "applicant-1")
	assert.ErrorIs(t, err, ErrStateNotFound)
}
