package core

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

// Quotas accept model.Unlimited (-1). Domains must be a positive count.
type PackageInput struct {
	Name          string `json:"name" validate:"required,max=100"`
	DiskSpace     int    `json:"diskSpace" validate:"quota"`
	Bandwidth     int    `json:"bandwidth" validate:"quota"`
	EmailAccounts int    `json:"emailAccounts" validate:"quota"`
	Databases     int    `json:"databases" validate:"quota"`
	Domains       int    `json:"domains" validate:"gte=1"`
	Status        string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type UpdatePackageInput struct {
	Name          *string `json:"name" validate:"omitempty,max=100"`
	DiskSpace     *int    `json:"diskSpace" validate:"omitempty,quota"`
	Bandwidth     *int    `json:"bandwidth" validate:"omitempty,quota"`
	EmailAccounts *int    `json:"emailAccounts" validate:"omitempty,quota"`
	Databases     *int    `json:"databases" validate:"omitempty,quota"`
	Domains       *int    `json:"domains" validate:"omitempty,gte=1"`
	Status        *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type PackageService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewPackageService(d Deps) *PackageService {
	return &PackageService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "packages").Logger()}
}

func (s *PackageService) List(ctx context.Context) ([]model.HostingPackage, error) {
	pkgs, err := s.store.ListPackages(ctx)
	if err != nil {
		return nil, storeErr(err, "hosting package")
	}
	return pkgs, nil
}

func (s *PackageService) Get(ctx context.Context, id int64) (*model.HostingPackage, error) {
	p, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return nil, storeErr(err, "hosting package")
	}
	return p, nil
}

func (s *PackageService) Create(ctx context.Context, actor Actor, in PackageInput) (*model.HostingPackage, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p := &model.HostingPackage{
		Name:          in.Name,
		DiskSpace:     in.DiskSpace,
		Bandwidth:     in.Bandwidth,
		EmailAccounts: in.EmailAccounts,
		Databases:     in.Databases,
		Domains:       in.Domains,
		Status:        defaultString(in.Status, model.StatusActive),
		CreatedAt:     s.clock.Now(),
	}
	if err := s.store.CreatePackage(ctx, p); err != nil {
		return nil, storeErr(err, "hosting package")
	}
	return p, nil
}

func (s *PackageService) Update(ctx context.Context, actor Actor, id int64, in UpdatePackageInput) (*model.HostingPackage, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return nil, storeErr(err, "hosting package")
	}
	assign(&p.Name, in.Name)
	assign(&p.DiskSpace, in.DiskSpace)
	assign(&p.Bandwidth, in.Bandwidth)
	assign(&p.EmailAccounts, in.EmailAccounts)
	assign(&p.Databases, in.Databases)
	assign(&p.Domains, in.Domains)
	assign(&p.Status, in.Status)
	if err := s.store.UpdatePackage(ctx, p); err != nil {
		return nil, storeErr(err, "hosting package")
	}
	return p, nil
}

// Delete refuses to remove a package that users are still assigned to.
func (s *PackageService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}
	if _, err := s.store.GetPackage(ctx, id); err != nil {
		return storeErr(err, "hosting package")
	}
	n, err := s.store.CountUsersByPackage(ctx, id)
	if err != nil {
		return storeErr(err, "hosting package")
	}
	if n > 0 {
		return Conflict("cannot delete hosting package: %d user(s) are assigned to it", n)
	}
	if err := s.store.DeletePackage(ctx, id); err != nil {
		return storeErr(err, "hosting package")
	}
	s.log.Info().Int64("package_id", id).Msg("hosting package deleted")
	return nil
}

// packageFor returns the owner's package, or nil when the owner has none.
func packageFor(ctx context.Context, st store.Store, ownerID int64) (*model.User, *model.HostingPackage, error) {
	u, err := st.GetUser(ctx, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, InvalidInput("user %d does not exist", ownerID)
		}
		return nil, nil, storeErr(err, "user")
	}
	if u.PackageID == nil {
		return u, nil, nil
	}
	p, err := st.GetPackage(ctx, *u.PackageID)
	if errors.Is(err, store.ErrNotFound) {
		return u, nil, nil
	}
	if err != nil {
		return nil, nil, storeErr(err, "hosting package")
	}
	return u, p, nil
}

// enforceQuota checks that the owner may add one more item against the
// package limit picked by limit. Owners without a package are not limited.
func enforceQuota(ctx context.Context, st store.Store, ownerID int64, what string,
	limit func(*model.HostingPackage) int, count func() (int, error)) error {
	_, pkg, err := packageFor(ctx, st, ownerID)
	if err != nil {
		return err
	}
	if pkg == nil || model.IsUnlimited(limit(pkg)) {
		return nil
	}
	n, err := count()
	if err != nil {
		return storeErr(err, what)
	}
	if n >= limit(pkg) {
		return Forbidden("%s limit of %d reached for package %s", what, limit(pkg), pkg.Name)
	}
	return nil
}
