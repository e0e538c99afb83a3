package core

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/crypto"
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/session"
	"github.com/edvin/hostpanel/internal/store"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type LoginInput struct {
	Email          string `json:"email" validate:"required"`
	Password       string `json:"password" validate:"required"`
	TwoFactorToken string `json:"twoFactorToken"`
}

// LoginResult carries either a session or a two-factor challenge. A
// challenge has RequiresTwoFactor set and no Session.
type LoginResult struct {
	User              *model.User
	Session           *session.Session
	RequiresTwoFactor bool
}

type AuthService struct {
	store            store.Store
	sessions         session.Store
	clock            platform.Clock
	log              zerolog.Logger
	issuer           string
	defaultPackageID int64
}

func NewAuthService(d Deps) *AuthService {
	return &AuthService{
		store:            d.Store,
		sessions:         d.Sessions,
		clock:            d.Clock,
		log:              d.Logger.With().Str("component", "auth").Logger(),
		issuer:           d.TOTPIssuer,
		defaultPackageID: d.DefaultPackageID,
	}
}

// Register creates a regular user on the default package when that package
// exists.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := checkUserUnique(ctx, s.store, 0, in.Username, in.Email); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, Internal(err, "hash password")
	}

	u := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Status:       model.StatusActive,
		CreatedAt:    s.clock.Now(),
	}
	if s.defaultPackageID > 0 {
		if _, err := s.store.GetPackage(ctx, s.defaultPackageID); err == nil {
			id := s.defaultPackageID
			u.PackageID = &id
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, storeErr(err, "hosting package")
		}
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, storeErr(err, "user")
	}
	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("user registered")
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.store.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Unauthorized("invalid credentials")
		}
		return nil, storeErr(err, "user")
	}
	if !crypto.VerifyPassword(in.Password, u.PasswordHash) {
		return nil, Unauthorized("invalid credentials")
	}
	if u.Status != model.StatusActive {
		return nil, Unauthorized("account is %s", u.Status)
	}

	if u.TwoFactorEnabled {
		if in.TwoFactorToken == "" {
			return &LoginResult{User: u, RequiresTwoFactor: true}, nil
		}
		if u.TwoFactorSecret == nil || !validTOTP(in.TwoFactorToken, *u.TwoFactorSecret, s.clock.Now()) {
			return nil, Unauthorized("invalid two-factor token")
		}
	}

	sess, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return nil, Internal(err, "create session")
	}
	return &LoginResult{User: u, Session: sess}, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return Internal(err, "delete session")
	}
	return nil
}

// Authenticate resolves a session token to its active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, Unauthorized("session expired or invalid")
		}
		return nil, Internal(err, "load session")
	}
	return activeUser(ctx, s.store, sess.UserID)
}

func (s *AuthService) Me(ctx context.Context, actor Actor) (*model.User, error) {
	u, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

func (s *AuthService) SetupTwoFactor(ctx context.Context, actor Actor) (*TwoFactorSetup, error) {
	u, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	setup, err := newTwoFactorSetup(s.issuer, u.Email)
	if err != nil {
		return nil, Internal(err, "two-factor setup failed")
	}
	return setup, nil
}

// VerifyTwoFactor enables two-factor authentication once token proves the
// caller holds secret.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, actor Actor, token, secret string) (*model.User, error) {
	if token == "" || secret == "" {
		return nil, InvalidInput("token and secret are required")
	}
	if !validTOTP(token, secret, s.clock.Now()) {
		return nil, InvalidInput("invalid two-factor token")
	}
	u, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	u.TwoFactorSecret = &secret
	u.TwoFactorEnabled = true
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, storeErr(err, "user")
	}
	s.log.Info().Int64("user_id", u.ID).Msg("two-factor enabled")
	return u, nil
}

func (s *AuthService) DisableTwoFactor(ctx context.Context, actor Actor, password string) (*model.User, error) {
	u, err := s.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if password == "" || !crypto.VerifyPassword(password, u.PasswordHash) {
		return nil, InvalidInput("invalid password")
	}
	u.TwoFactorSecret = nil
	u.TwoFactorEnabled = false
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, storeErr(err, "user")
	}
	s.log.Info().Int64("user_id", u.ID).Msg("two-factor disabled")
	return u, nil
}

func activeUser(ctx context.Context, st store.Store, id int64) (*model.User, error) {
	u, err := st.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Unauthorized("user no longer exists")
		}
		return nil, storeErr(err, "user")
	}
	if u.Status != model.StatusActive {
		return nil, Unauthorized("account is %s", u.Status)
	}
	return u, nil
}

// checkUserUnique rejects a username or email held by a user other than
// selfID.
func checkUserUnique(ctx context.Context, st store.Store, selfID int64, username, email string) error {
	if email != "" {
		other, err := st.GetUserByEmail(ctx, email)
		switch {
		case err == nil && other.ID != selfID:
			return Conflict("email %s is already registered", email)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return storeErr(err, "user")
		}
	}
	if username != "" {
		other, err := st.GetUserByUsername(ctx, username)
		switch {
		case err == nil && other.ID != selfID:
			return Conflict("username %s is already taken", username)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return storeErr(err, "user")
		}
	}
	return nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
