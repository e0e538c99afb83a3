package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/crypto"
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

type CreateUserInput struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=6,max=128"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"`
	PackageID *int64 `json:"packageId" validate:"omitempty,gt=0"`
	Status    string `json:"status" validate:"omitempty,oneof=active suspended deleted"`
}

type UpdateUserInput struct {
	Username  *string `json:"username" validate:"omitempty,username"`
	Email     *string `json:"email" validate:"omitempty,email,max=254"`
	Password  *string `json:"password" validate:"omitempty,min=6,max=128"`
	Role      *string `json:"role" validate:"omitempty,oneof=user admin"`
	PackageID *int64  `json:"packageId" validate:"omitempty,gt=0"`
	Status    *string `json:"status" validate:"omitempty,oneof=active suspended deleted"`
	DiskUsage *int    `json:"diskUsage" validate:"omitempty,gte=0"`
}

type UserService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewUserService(d Deps) *UserService {
	return &UserService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "users").Logger()}
}

func (s *UserService) List(ctx context.Context, actor Actor) ([]model.User, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return users, nil
}

func (s *UserService) Count(ctx context.Context) (int, error) {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return 0, storeErr(err, "user")
	}
	return n, nil
}

func (s *UserService) Get(ctx context.Context, actor Actor, id int64) (*model.User, error) {
	if err := actor.authorize(id); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, actor Actor, in CreateUserInput) (*model.User, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := checkUserUnique(ctx, s.store, 0, in.Username, in.Email); err != nil {
		return nil, err
	}
	if in.PackageID != nil {
		if err := s.requirePackage(ctx, *in.PackageID); err != nil {
			return nil, err
		}
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, Internal(err, "hash password")
	}
	u := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         defaultString(in.Role, model.RoleUser),
		PackageID:    in.PackageID,
		Status:       defaultString(in.Status, model.StatusActive),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, storeErr(err, "user")
	}
	s.log.Info().Int64("user_id", u.ID).Str("role", u.Role).Msg("user created")
	return u, nil
}

// Update applies a partial change. Regular users may edit their own
// username, email and password only.
func (s *UserService) Update(ctx context.Context, actor Actor, id int64, in UpdateUserInput) (*model.User, error) {
	if err := actor.authorize(id); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (in.Role != nil || in.Status != nil || in.PackageID != nil || in.DiskUsage != nil) {
		return nil, Forbidden("only admins may change role, status, package or disk usage")
	}
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if err := checkUserUnique(ctx, s.store, u.ID, deref(in.Username), deref(in.Email)); err != nil {
		return nil, err
	}
	if in.PackageID != nil {
		if err := s.requirePackage(ctx, *in.PackageID); err != nil {
			return nil, err
		}
		u.PackageID = in.PackageID
	}
	if in.Password != nil {
		hash, err := crypto.HashPassword(*in.Password)
		if err != nil {
			return nil, Internal(err, "hash password")
		}
		u.PasswordHash = hash
	}
	assign(&u.Username, in.Username)
	assign(&u.Email, in.Email)
	assign(&u.Role, in.Role)
	assign(&u.Status, in.Status)
	assign(&u.DiskUsage, in.DiskUsage)

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

// Delete removes the user together with everything the user owns.
func (s *UserService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}
	if id == actor.UserID {
		return InvalidInput("you cannot delete your own account")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return storeErr(err, "user")
	}
	s.log.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (s *UserService) requirePackage(ctx context.Context, id int64) error {
	if _, err := s.store.GetPackage(ctx, id); err != nil {
		if KindOf(storeErr(err, "")) == KindNotFound {
			return InvalidInput("hosting package %d does not exist", id)
		}
		return storeErr(err, "hosting package")
	}
	return nil
}

func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
