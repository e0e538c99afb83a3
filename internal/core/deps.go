package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/session"
	"github.com/edvin/hostpanel/internal/store"
)

// Publisher delivers a stored notification to connected clients. Delivery
// is fire-and-forget: a recipient that is not connected misses the push but
// still sees the stored row.
type Publisher interface {
	Publish(ctx context.Context, n *model.Notification)
}

// Archiver stores backup archives.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *model.Notification) {}

// Deps carries everything the services share.
type Deps struct {
	Store     store.Store
	Sessions  session.Store
	Clock     platform.Clock
	Logger    zerolog.Logger
	Publisher Publisher
	Archiver  Archiver
	// SecretsKey seals SSL private keys. Without it, private keys are
	// rejected.
	SecretsKey       []byte
	TOTPIssuer       string
	DefaultPackageID int64
	// StatsAlertThreshold is the usage percentage at which a stats sample
	// raises a broadcast. Zero disables alerts.
	StatsAlertThreshold int
}
