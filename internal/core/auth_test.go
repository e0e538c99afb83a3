package core

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/model"
)

func TestAuth_Register_AssignsDefaultPackage(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "root", model.RoleAdmin)
	pkg, err := f.svc.Package.Create(f.ctx, admin, PackageInput{Name: "Starter", DiskSpace: 1, Bandwidth: 10, EmailAccounts: 5, Databases: 1, Domains: 1})
	require.NoError(t, err)

	u, err := f.svc.Auth.Register(f.ctx, RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)
	require.NotNil(t, u.PackageID)
	assert.Equal(t, pkg.ID, *u.PackageID)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$argon2id$"))
}

func TestAuth_Register_WithoutDefaultPackage(t *testing.T) {
	f := newFixture(t)
	u, err := f.svc.Auth.Register(f.ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Nil(t, u.PackageID)
}

func TestAuth_Register_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.Register(f.ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.svc.Auth.Register(f.ctx, RegisterInput{Username: "alice2", Email: "ALICE@example.com", Password: "secret123"})
	requireKind(t, err, KindConflict)
}

func TestAuth_Register_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Auth.Register(f.ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.svc.Auth.Register(f.ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret123"})
	requireKind(t, err, KindConflict)
}

func TestAuth_Register_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"short password", RegisterInput{Username: "alice", Email: "alice@example.com", Password: "123"}},
		{"bad email", RegisterInput{Username: "alice", Email: "nope", Password: "secret123"}},
		{"bad username", RegisterInput{Username: "a", Email: "alice@example.com", Password: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Auth.Register(f.ctx, tt.in)
			requireKind(t, err, KindInvalidInput)
		})
	}
}

func TestAuth_Login(t *testing.T) {
	f := newFixture(t)
	u, _ := f.user(t, "alice", model.RoleUser)

	res, err := f.svc.Auth.Login(f.ctx, LoginInput{Email: u.Email, Password: "secret123"})
	require.NoError(t, err)
	assert.False(t, res.RequiresTwoFactor)
	require.NotNil(t, res.Session)
	assert.Equal(t, u.ID, res.Session.UserID)

	got, err := f.svc.Auth.Authenticate(f.ctx, res.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	require.NoError(t, f.svc.Auth.Logout(f.ctx, res.Session.Token))
	require.NoError(t, f.svc.Auth.Logout(f.ctx, res.Session.Token))
	_, err = f.svc.Auth.Authenticate(f.ctx, res.Session.Token)
	requireKind(t, err, KindUnauthorized)
}

func TestAuth_Login_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	u, _ := f.user(t, "alice", model.RoleUser)

	_, err := f.svc.Auth.Login(f.ctx, LoginInput{Email: u.Email, Password: "wrong"})
	requireKind(t, err, KindUnauthorized)

	_, err = f.svc.Auth.Login(f.ctx, LoginInput{Email: "nobody@example.com", Password: "secret123"})
	requireKind(t, err, KindUnauthorized)
}

func TestAuth_Login_SuspendedAccount(t *testing.T) {
	f := newFixture(t)
	u, _ := f.user(t, "alice", model.RoleUser)
	u.Status = model.StatusSuspended
	require.NoError(t, f.store.UpdateUser(f.ctx, u))

	_, err := f.svc.Auth.Login(f.ctx, LoginInput{Email: u.Email, Password: "secret123"})
	requireKind(t, err, KindUnauthorized)
}

func enableTwoFactor(t *testing.T, f *fixture, actor Actor) string {
	t.Helper()
	setup, err := f.svc.Auth.SetupTwoFactor(f.ctx, actor)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, f.clock.Now())
	require.NoError(t, err)
	_, err = f.svc.Auth.VerifyTwoFactor(f.ctx, actor, code, setup.Secret)
	require.NoError(t, err)
	return setup.Secret
}

func TestAuth_TwoFactorSetupAndVerify(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "alice", model.RoleUser)

	setup, err := f.svc.Auth.SetupTwoFactor(f.ctx, actor)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))
	assert.Equal(t, setup.Secret, strings.ReplaceAll(setup.ManualEntryKey, " ", ""))
	assert.Contains(t, setup.OTPAuthURL, "issuer=TestPanel")

	me, err := f.svc.Auth.Me(f.ctx, actor)
	require.NoError(t, err)
	assert.False(t, me.TwoFactorEnabled, "setup alone must not enable two-factor")

	_, err = f.svc.Auth.VerifyTwoFactor(f.ctx, actor, "000000", setup.Secret)
	requireKind(t, err, KindInvalidInput)

	code, err := totp.GenerateCode(setup.Secret, f.clock.Now())
	require.NoError(t, err)
	_, err = f.svc.Auth.VerifyTwoFactor(f.ctx, actor, code, setup.Secret)
	require.NoError(t, err)

	me, err = f.svc.Auth.Me(f.ctx, actor)
	require.NoError(t, err)
	assert.True(t, me.TwoFactorEnabled)
	require.NotNil(t, me.TwoFactorSecret)
	assert.Equal(t, setup.Secret, *me.TwoFactorSecret)
}

func TestAuth_Login_TwoFactorChallenge(t *testing.T) {
	f := newFixture(t)
	u, actor := f.user(t, "alice", model.RoleUser)
	secret := enableTwoFactor(t, f, actor)

	res, err := f.svc.Auth.Login(f.ctx, LoginInput{Email: u.Email, Password: "secret123"})
	require.NoError(t, err)
	assert.True(t, res.RequiresTwoFactor)
	assert.Nil(t, res.Session)

	_, err = f.svc.Auth.Login(f.ctx, LoginInput{Email: u.Email, Password: "secret123", TwoFactorToken: "123"})
	requireKind(t, err, KindUnauthorized)

	code, err := totp.GenerateCode(secret, f.clock.Now())
	require.NoError(t, err)
	res, err = f.svc.Auth.Login(f.ctx, LoginInput{Email: u.Email, Password: "secret123", TwoFactorToken: code})
	require.NoError(t, err)
	assert.NotNil(t, res.Session)
}

func TestAuth_TOTPWindow(t *testing.T) {
	f := newFixture(t)
	u, actor := f.user(t, "alice", model.RoleUser)
	secret := enableTwoFactor(t, f, actor)

	tests := []struct {
		name   string
		offset time.Duration
		ok     bool
	}{
		{"current step", 0, true},
		{"two steps behind", -60 * time.Second, true},
		{"two steps ahead", 60 * time.Second, true},
		{"three steps behind", -90 * time.Second, false},
		{"three steps ahead", 90 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := totp.GenerateCode(secret, f.clock.Now().Add(tt.offset))
			require.NoError(t, err)
			_, err = f.svc.Auth.Login(f.ctx, LoginInput{Email: u.Email, Password: "secret123", TwoFactorToken: code})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				requireKind(t, err, KindUnauthorized)
			}
		})
	}
}

func TestAuth_DisableTwoFactor(t *testing.T) {
	f := newFixture(t)
	_, actor := f.user(t, "alice", model.RoleUser)
	enableTwoFactor(t, f, actor)

	_, err := f.svc.Auth.DisableTwoFactor(f.ctx, actor, "wrong")
	requireKind(t, err, KindInvalidInput)

	u, err := f.svc.Auth.DisableTwoFactor(f.ctx, actor, "secret123")
	require.NoError(t, err)
	assert.False(t, u.TwoFactorEnabled)
	assert.Nil(t, u.TwoFactorSecret)
}
