package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/crypto"
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

const defaultMailboxQuota = 1024

type EmailAccountInput struct {
	UserID   int64  `json:"userId"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Quota    int    `json:"quota" validate:"quota"`
	Status   string `json:"status" validate:"omitempty,oneof=active suspended"`
}

type UpdateEmailAccountInput struct {
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=8,max=128"`
	Quota    *int    `json:"quota" validate:"omitempty,quota"`
	Status   *string `json:"status" validate:"omitempty,oneof=active suspended"`
}

type EmailAccountService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewEmailAccountService(d Deps) *EmailAccountService {
	return &EmailAccountService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "email").Logger()}
}

func (s *EmailAccountService) List(ctx context.Context, actor Actor, userID *int64) ([]model.EmailAccount, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.ListEmailAccounts(ctx, f)
	if err != nil {
		return nil, storeErr(err, "email account")
	}
	return accounts, nil
}

func (s *EmailAccountService) Get(ctx context.Context, actor Actor, id int64) (*model.EmailAccount, error) {
	a, err := s.store.GetEmailAccount(ctx, id)
	if err != nil {
		return nil, storeErr(err, "email account")
	}
	if err := actor.authorize(a.UserID); err != nil {
		return nil, err
	}
	return a, nil
}

// Create adds a mailbox. Quota is in MB; zero selects the default size.
func (s *EmailAccountService) Create(ctx context.Context, actor Actor, in EmailAccountInput) (*model.EmailAccount, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ownerID, err := actor.owner(in.UserID)
	if err != nil {
		return nil, err
	}
	err = enforceQuota(ctx, s.store, ownerID, "email account",
		func(p *model.HostingPackage) int { return p.EmailAccounts },
		func() (int, error) {
			as, err := s.store.ListEmailAccounts(ctx, store.ByUser(ownerID))
			return len(as), err
		})
	if err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, Internal(err, "hash password")
	}
	a := &model.EmailAccount{
		UserID:       ownerID,
		Email:        in.Email,
		PasswordHash: hash,
		Quota:        in.Quota,
		Status:       defaultString(in.Status, model.StatusActive),
		CreatedAt:    s.clock.Now(),
	}
	if a.Quota == 0 {
		a.Quota = defaultMailboxQuota
	}
	if err := s.store.CreateEmailAccount(ctx, a); err != nil {
		return nil, storeErr(err, "email account")
	}
	s.log.Info().Int64("account_id", a.ID).Str("email", a.Email).Msg("email account created")
	return a, nil
}

func (s *EmailAccountService) Update(ctx context.Context, actor Actor, id int64, in UpdateEmailAccountInput) (*model.EmailAccount, error) {
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	a, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Password != nil {
		hash, err := crypto.HashPassword(*in.Password)
		if err != nil {
			return nil, Internal(err, "hash password")
		}
		a.PasswordHash = hash
	}
	assign(&a.Email, in.Email)
	assign(&a.Quota, in.Quota)
	assign(&a.Status, in.Status)
	if err := s.store.UpdateEmailAccount(ctx, a); err != nil {
		return nil, storeErr(err, "email account")
	}
	return a, nil
}

func (s *EmailAccountService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteEmailAccount(ctx, id); err != nil {
		return storeErr(err, "email account")
	}
	return nil
}
