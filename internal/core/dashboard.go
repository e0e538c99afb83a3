package core

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/store"
)

// DashboardSummary is the landing-page overview for one user.
type DashboardSummary struct {
	User                *model.User                 `json:"user"`
	Package             *model.HostingPackage       `json:"package"`
	Domains             int                         `json:"domains"`
	EmailAccounts       int                         `json:"emailAccounts"`
	Databases           int                         `json:"databases"`
	Files               int                         `json:"files"`
	UnreadNotifications int                         `json:"unreadNotifications"`
	Usage               map[string]model.QuotaUsage `json:"usage"`
	ServerStats         *model.ServerStats          `json:"serverStats"`
	LatestScan          *model.SecurityScan         `json:"latestScan"`
}

type DashboardService struct {
	store store.Store
	log   zerolog.Logger
}

func NewDashboardService(d Deps) *DashboardService {
	return &DashboardService{store: d.Store, log: d.Logger.With().Str("component", "dashboard").Logger()}
}

// Summary gathers the caller's counts, package usage and the latest
// telemetry concurrently.
func (s *DashboardService) Summary(ctx context.Context, actor Actor) (*DashboardSummary, error) {
	user, pkg, err := packageFor(ctx, s.store, actor.UserID)
	if err != nil {
		if KindOf(err) == KindInvalidInput {
			return nil, NotFound("user not found")
		}
		return nil, err
	}

	sum := &DashboardSummary{User: user, Package: pkg}
	f := store.ByUser(actor.UserID)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds, err := s.store.ListDomains(gctx, f)
		sum.Domains = len(ds)
		return err
	})
	g.Go(func() error {
		as, err := s.store.ListEmailAccounts(gctx, f)
		sum.EmailAccounts = len(as)
		return err
	})
	g.Go(func() error {
		dbs, err := s.store.ListDatabases(gctx, f)
		sum.Databases = len(dbs)
		return err
	})
	g.Go(func() error {
		fs, err := s.store.ListFileEntries(gctx, f)
		sum.Files = len(fs)
		return err
	})
	g.Go(func() error {
		ns, err := s.store.ListNotifications(gctx, f)
		for _, n := range ns {
			if !n.IsRead {
				sum.UnreadNotifications++
			}
		}
		return err
	})
	g.Go(func() error {
		st, err := s.store.LatestServerStats(gctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		sum.ServerStats = st
		return err
	})
	g.Go(func() error {
		sc, err := s.store.LatestSecurityScan(gctx)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		sum.LatestScan = sc
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, Internal(err, "load dashboard")
	}

	if pkg != nil {
		sum.Usage = map[string]model.QuotaUsage{
			"domains":       model.NewQuotaUsage(sum.Domains, pkg.Domains, ""),
			"emailAccounts": model.NewQuotaUsage(sum.EmailAccounts, pkg.EmailAccounts, ""),
			"databases":     model.NewQuotaUsage(sum.Databases, pkg.Databases, ""),
			"diskSpace":     model.NewQuotaUsage(user.DiskUsage, diskLimitMB(pkg.DiskSpace), "MB"),
			"bandwidth":     model.NewQuotaUsage(0, pkg.Bandwidth, "GB"),
		}
	}
	return sum, nil
}

// diskLimitMB converts the package disk quota (GB) to MB so it compares
// with the user's disk usage.
func diskLimitMB(gb int) int {
	if model.IsUnlimited(gb) {
		return gb
	}
	return gb * 1024
}
