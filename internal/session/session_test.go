package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/platform"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestMemory_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(platform.NewFakeClock(epoch), time.Hour)

	s, err := m.Create(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, s.Token, tokenBytes*2)
	assert.Equal(t, epoch.Add(time.Hour), s.ExpiresAt)

	got, err := m.Get(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.UserID)

	require.NoError(t, m.Delete(ctx, s.Token))
	_, err = m.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)

	// idempotent
	assert.NoError(t, m.Delete(ctx, s.Token))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := platform.NewFakeClock(epoch)
	m := NewMemory(clock, time.Hour)

	s, err := m.Create(ctx, 1)
	require.NoError(t, err)

	clock.Advance(59 * time.Minute)
	_, err = m.Get(ctx, s.Token)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = m.Get(ctx, s.Token)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TokensAreUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(platform.NewFakeClock(epoch), time.Hour)

	a, _ := m.Create(ctx, 1)
	b, _ := m.Create(ctx, 1)
	assert.NotEqual(t, a.Token, b.Token)
}

type mockRedis struct {
	mock.Mock
}

func (m *mockRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return args.Get(0).(*redis.StatusCmd)
}

func (m *mockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return args.Get(0).(*redis.StringCmd)
}

func (m *mockRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	args := m.Called(ctx, keys)
	return args.Get(0).(*redis.IntCmd)
}

func TestRedis_CreateSetsTTL(t *testing.T) {
	ctx := context.Background()
	client := &mockRedis{}
	r := NewRedis(client, platform.NewFakeClock(epoch), 2*time.Hour)

	client.On("Set", ctx, mock.MatchedBy(func(k string) bool { return len(k) > len(keyPrefix) }),
		mock.Anything, 2*time.Hour).Return(redis.NewStatusResult("OK", nil))

	s, err := r.Create(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.UserID)
	client.AssertExpectations(t)
}

func TestRedis_GetDecodes(t *testing.T) {
	ctx := context.Background()
	client := &mockRedis{}
	r := NewRedis(client, platform.NewFakeClock(epoch), time.Hour)

	stored, err := json.Marshal(Session{Token: "abc", UserID: 9, CreatedAt: epoch, ExpiresAt: epoch.Add(time.Hour)})
	require.NoError(t, err)
	client.On("Get", ctx, keyPrefix+"abc").Return(redis.NewStringResult(string(stored), nil))

	s, err := r.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.UserID)
}

func TestRedis_GetMissing(t *testing.T) {
	ctx := context.Background()
	client := &mockRedis{}
	r := NewRedis(client, platform.NewFakeClock(epoch), time.Hour)

	client.On("Get", ctx, keyPrefix+"gone").Return(redis.NewStringResult("", redis.Nil))

	_, err := r.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedis_GetError(t *testing.T) {
	ctx := context.Background()
	client := &mockRedis{}
	r := NewRedis(client, platform.NewFakeClock(epoch), time.Hour)

	client.On("Get", ctx, keyPrefix+"x").Return(redis.NewStringResult("", errors.New("connection refused")))

	_, err := r.Get(ctx, "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "get session")
}

func TestRedis_Delete(t *testing.T) {
	ctx := context.Background()
	client := &mockRedis{}
	r := NewRedis(client, platform.NewFakeClock(epoch), time.Hour)

	client.On("Del", ctx, []string{keyPrefix + "abc"}).Return(redis.NewIntResult(0, nil))

	assert.NoError(t, r.Delete(ctx, "abc"))
	client.AssertExpectations(t)
}
