package seed

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/core"
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

func newServices(t *testing.T) (*core.Services, *store.Memory) {
	t.Helper()
	st := store.NewMemory(platform.NewSequence())
	clock := platform.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	return core.NewServices(core.Deps{
		Store:    st,
		Sessions: session.NewMemory(clock, time.Hour),
		Clock:    clock,
		Logger:   zerolog.Nop(),
	}), st
}

const seedYAML = `
admin:
  username: root
  email: root@example.com
  password: changeme123
packages:
  - name: Basic
    disk_space: 10
    bandwidth: 100
    email_accounts: 5
    databases: 1
    domains: 1
  - name: Unlimited
    disk_space: -1
    bandwidth: -1
    email_accounts: -1
    databases: -1
    domains: 10
articles:
  - title: Getting started
    category: general
    tags: [intro]
    content: Welcome.
`

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeSeed(t))
	require.NoError(t, err)
	require.NotNil(t, cfg.Admin)
	assert.Equal(t, "root", cfg.Admin.Username)
	require.Len(t, cfg.Packages, 2)
	assert.Equal(t, model.Unlimited, cfg.Packages[1].DiskSpace)
	require.Len(t, cfg.Articles, 1)
	assert.Equal(t, []string{"intro"}, cfg.Articles[0].Tags)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packages: [name: x"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApply_IsIdempotent(t *testing.T) {
	svc, st := newServices(t)
	cfg, err := Load(writeSeed(t))
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := Apply(context.Background(), svc, cfg, &out)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 4}, res)
	assert.Contains(t, out.String(), `Package "Unlimited" created`)
	assert.Contains(t, out.String(), "disk Unlimited")

	admin, err := st.GetUserByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.True(t, crypto.VerifyPassword("changeme123", admin.PasswordHash))

	out.Reset()
	res, err = Apply(context.Background(), svc, cfg, &out)
	require.NoError(t, err)
	assert.Equal(t, Result{Skipped: 4}, res)

	pkgs, err := svc.Package.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, pkgs, 2)
}

func TestApply_InvalidPackage(t *testing.T) {
	svc, _ := newServices(t)
	_, err := Apply(context.Background(), svc, &Config{Packages: []PackageDef{{Name: "Broken", Domains: 0}}}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, core.KindInvalidInput, core.KindOf(err))
}

func TestCreateAdmin_PasswordFromEnv(t *testing.T) {
	svc, st := newServices(t)

	t.Setenv(AdminPasswordEnv, "")
	_, err := CreateAdmin(context.Background(), svc, AdminDef{Username: "ops", Email: "ops@example.com"})
	require.Error(t, err)

	t.Setenv(AdminPasswordEnv, "from-env-123")
	created, err := CreateAdmin(context.Background(), svc, AdminDef{Username: "ops", Email: "ops@example.com"})
	require.NoError(t, err)
	assert.True(t, created)

	u, err := st.GetUserByEmail(context.Background(), "ops@example.com")
	require.NoError(t, err)
	assert.True(t, crypto.VerifyPassword("from-env-123", u.PasswordHash))
}
