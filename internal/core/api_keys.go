package core

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/crypto"
	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

// APIKeyPrefix marks raw panel API keys.
const APIKeyPrefix = "hpk_"

const (
	PermissionRead  = "read"
	PermissionWrite = "write"
)

type APIKeyInput struct {
	UserID      int64      `json:"userId"`
	Name        string     `json:"name" validate:"required,max=100"`
	Permissions []string   `json:"permissions" validate:"omitempty,dive,oneof=read write"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

type UpdateAPIKeyInput struct {
	Name        *string   `json:"name" validate:"omitempty,max=100"`
	Permissions *[]string `json:"permissions" validate:"omitempty,dive,oneof=read write"`
	IsActive    *bool     `json:"isActive"`
}

// CreatedAPIKey carries the raw key, which is only ever shown once.
type CreatedAPIKey struct {
	model.ApiKey
	Key string `json:"key"`
}

type APIKeyService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewAPIKeyService(d Deps) *APIKeyService {
	return &APIKeyService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "api_keys").Logger()}
}

func (s *APIKeyService) List(ctx context.Context, actor Actor, userID *int64) ([]model.ApiKey, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	keys, err := s.store.ListApiKeys(ctx, f)
	if err != nil {
		return nil, storeErr(err, "api key")
	}
	return keys, nil
}

func (s *APIKeyService) Get(ctx context.Context, actor Actor, id int64) (*model.ApiKey, error) {
	k, err := s.store.GetApiKey(ctx, id)
	if err != nil {
		return nil, storeErr(err, "api key")
	}
	if err := actor.authorize(k.UserID); err != nil {
		return nil, err
	}
	return k, nil
}

// Create issues a key. Without explicit permissions the key may read and
// write.
func (s *APIKeyService) Create(ctx context.Context, actor Actor, in APIKeyInput) (*CreatedAPIKey, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ownerID, err := actor.owner(in.UserID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, InvalidInput("expiresAt must be in the future")
	}
	perms := in.Permissions
	if len(perms) == 0 {
		perms = []string{PermissionRead, PermissionWrite}
	}

	raw := APIKeyPrefix + platform.RandomToken(24)
	k := &model.ApiKey{
		UserID:      ownerID,
		Name:        in.Name,
		KeyHash:     crypto.HashToken(raw),
		KeyPrefix:   raw[:len(APIKeyPrefix)+8],
		Permissions: perms,
		IsActive:    true,
		ExpiresAt:   in.ExpiresAt,
		CreatedAt:   now,
	}
	if err := s.store.CreateApiKey(ctx, k); err != nil {
		return nil, storeErr(err, "api key")
	}
	s.log.Info().Int64("key_id", k.ID).Int64("user_id", ownerID).Str("prefix", k.KeyPrefix).Msg("api key issued")
	return &CreatedAPIKey{ApiKey: *k, Key: raw}, nil
}

func (s *APIKeyService) Update(ctx context.Context, actor Actor, id int64, in UpdateAPIKeyInput) (*model.ApiKey, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	k, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	assign(&k.Name, in.Name)
	assign(&k.Permissions, in.Permissions)
	assign(&k.IsActive, in.IsActive)
	if err := s.store.UpdateApiKey(ctx, k); err != nil {
		return nil, storeErr(err, "api key")
	}
	return k, nil
}

func (s *APIKeyService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteApiKey(ctx, id); err != nil {
		return storeErr(err, "api key")
	}
	return nil
}

// Authenticate resolves a raw key to its active owner and records the use.
func (s *APIKeyService) Authenticate(ctx context.Context, raw string) (*model.User, *model.ApiKey, error) {
	if !strings.HasPrefix(raw, APIKeyPrefix) {
		return nil, nil, Unauthorized("invalid API key")
	}
	k, err := s.store.GetApiKeyByHash(ctx, crypto.HashToken(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, Unauthorized("invalid API key")
		}
		return nil, nil, storeErr(err, "api key")
	}
	now := s.clock.Now()
	if !k.IsActive {
		return nil, nil, Unauthorized("API key is disabled")
	}
	if k.ExpiresAt != nil && !now.Before(*k.ExpiresAt) {
		return nil, nil, Unauthorized("API key has expired")
	}
	u, err := activeUser(ctx, s.store, k.UserID)
	if err != nil {
		return nil, nil, err
	}
	k.LastUsedAt = &now
	if err := s.store.UpdateApiKey(ctx, k); err != nil {
		s.log.Warn().Err(err).Int64("key_id", k.ID).Msg("failed to record api key use")
	}
	return u, k, nil
}

// KeyAllows reports whether k may issue a request with the given method.
// Safe methods need read; everything else needs write.
func KeyAllows(k *model.ApiKey, method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return slices.Contains(k.Permissions, PermissionRead) || slices.Contains(k.Permissions, PermissionWrite)
	default:
		return slices.Contains(k.Permissions, PermissionWrite)
	}
}
