package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

type DomainInput struct {
	UserID int64  `json:"userId"`
	Domain string `json:"domain" validate:"required,fqdn,max=253"`
	Type   string `json:"type" validate:"required,oneof=primary addon subdomain alias"`
	Status string `json:"status" validate:"omitempty,oneof=active pending suspended"`
}

type UpdateDomainInput struct {
	Domain *string `json:"domain" validate:"omitempty,fqdn,max=253"`
	Type   *string `json:"type" validate:"omitempty,oneof=primary addon subdomain alias"`
	Status *string `json:"status" validate:"omitempty,oneof=active pending suspended"`
}

type DomainService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewDomainService(d Deps) *DomainService {
	return &DomainService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "domains").Logger()}
}

// List returns the caller's domains, or every domain for admins. A non-nil
// userID narrows the list to that owner.
func (s *DomainService) List(ctx context.Context, actor Actor, userID *int64) ([]model.Domain, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	domains, err := s.store.ListDomains(ctx, f)
	if err != nil {
		return nil, storeErr(err, "domain")
	}
	return domains, nil
}

func (s *DomainService) Get(ctx context.Context, actor Actor, id int64) (*model.Domain, error) {
	return ownedDomain(ctx, s.store, actor, id)
}

func (s *DomainService) Create(ctx context.Context, actor Actor, in DomainInput) (*model.Domain, error) {
	in.Domain = normalizeDomain(in.Domain)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ownerID, err := actor.owner(in.UserID)
	if err != nil {
		return nil, err
	}
	err = enforceQuota(ctx, s.store, ownerID, "domain",
		func(p *model.HostingPackage) int { return p.Domains },
		func() (int, error) {
			ds, err := s.store.ListDomains(ctx, store.ByUser(ownerID))
			return len(ds), err
		})
	if err != nil {
		return nil, err
	}

	d := &model.Domain{
		UserID:    ownerID,
		Domain:    in.Domain,
		Type:      in.Type,
		Status:    defaultString(in.Status, model.StatusActive),
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateDomain(ctx, d); err != nil {
		return nil, storeErr(err, "domain")
	}
	s.log.Info().Int64("domain_id", d.ID).Str("domain", d.Domain).Int64("user_id", ownerID).Msg("domain created")
	return d, nil
}

func (s *DomainService) Update(ctx context.Context, actor Actor, id int64, in UpdateDomainInput) (*model.Domain, error) {
	if in.Domain != nil {
		n := normalizeDomain(*in.Domain)
		in.Domain = &n
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	d, err := ownedDomain(ctx, s.store, actor, id)
	if err != nil {
		return nil, err
	}
	assign(&d.Domain, in.Domain)
	assign(&d.Type, in.Type)
	assign(&d.Status, in.Status)
	if err := s.store.UpdateDomain(ctx, d); err != nil {
		return nil, storeErr(err, "domain")
	}
	return d, nil
}

// Delete removes the domain along with its DNS records and certificates.
func (s *DomainService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := ownedDomain(ctx, s.store, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteDomain(ctx, id); err != nil {
		return storeErr(err, "domain")
	}
	s.log.Info().Int64("domain_id", id).Msg("domain deleted")
	return nil
}

func ownedDomain(ctx context.Context, st store.Store, actor Actor, id int64) (*model.Domain, error) {
	d, err := st.GetDomain(ctx, id)
	if err != nil {
		return nil, storeErr(err, "domain")
	}
	if err := actor.authorize(d.UserID); err != nil {
		return nil, err
	}
	return d, nil
}

func normalizeDomain(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}
