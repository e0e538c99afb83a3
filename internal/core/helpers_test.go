package core

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/crypto"
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/session"
	"github.com/edvin/hostpanel/internal/store"
)

func TestMain(m *testing.M) {
	crypto.DefaultParams = crypto.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	os.Exit(m.Run())
}

var testEpoch = time.Date(2026, 3, 1, 12, 0, 15, 0, time.UTC)

type recordingPublisher struct {
	mu  sync.Mutex
	got []model.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n *model.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, *n)
}

func (p *recordingPublisher) published() []model.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.Notification(nil), p.got...)
}

type memArchiver struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemArchiver() *memArchiver {
	return &memArchiver{objects: make(map[string][]byte)}
}

func (a *memArchiver) Put(_ context.Context, key string, data []byte) error {
	if a.putErr != nil {
		return a.putErr
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objects[key] = append([]byte(nil), data...)
	return nil
}

func (a *memArchiver) Get(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (a *memArchiver) Delete(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.objects, key)
	return nil
}

type fixture struct {
	ctx      context.Context
	svc      *Services
	store    *store.Memory
	clock    *platform.FakeClock
	pub      *recordingPublisher
	archiver *memArchiver
	key      []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	f := &fixture{
		ctx:      context.Background(),
		store:    store.NewMemory(platform.NewSequence()),
		clock:    platform.NewFakeClock(testEpoch),
		pub:      &recordingPublisher{},
		archiver: newMemArchiver(),
		key:      key,
	}
	f.svc = NewServices(Deps{
		Store:               f.store,
		Sessions:            session.NewMemory(f.clock, time.Hour),
		Clock:               f.clock,
		Logger:              zerolog.Nop(),
		Publisher:           f.pub,
		Archiver:            f.archiver,
		SecretsKey:          key,
		TOTPIssuer:          "TestPanel",
		DefaultPackageID:    1,
		StatsAlertThreshold: 90,
	})
	return f
}

// user stores an active account directly and returns it with its actor.
func (f *fixture) user(t *testing.T, username, role string) (*model.User, Actor) {
	t.Helper()
	hash, err := crypto.HashPassword("secret123")
	require.NoError(t, err)
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		Status:       model.StatusActive,
		CreatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.store.CreateUser(f.ctx, u))
	return u, ActorFor(u)
}

func (f *fixture) domain(t *testing.T, actor Actor, name string) *model.Domain {
	t.Helper()
	d, err := f.svc.Domain.Create(f.ctx, actor, DomainInput{Domain: name, Type: model.DomainTypePrimary})
	require.NoError(t, err)
	return d
}

func requireKind(t *testing.T, err error, want Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, KindOf(err), "error: %v", err)
}

func ptr[T any](v T) *T { return &v }
