package core

import (
	"context"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

var dbNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func init() {
	validate.RegisterValidation("dbname", func(fl validator.FieldLevel) bool {
		return dbNameRegex.MatchString(fl.Field().String())
	})
}

type DatabaseInput struct {
	UserID int64  `json:"userId"`
	Name   string `json:"name" validate:"required,dbname"`
	Type   string `json:"type" validate:"omitempty,oneof=postgresql mysql"`
	Size   int    `json:"size" validate:"gte=0"`
	Status string `json:"status" validate:"omitempty,oneof=active suspended"`
}

type UpdateDatabaseInput struct {
	Name   *string `json:"name" validate:"omitempty,dbname"`
	Size   *int    `json:"size" validate:"omitempty,gte=0"`
	Status *string `json:"status" validate:"omitempty,oneof=active suspended"`
}

type DatabaseService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewDatabaseService(d Deps) *DatabaseService {
	return &DatabaseService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "databases").Logger()}
}

func (s *DatabaseService) List(ctx context.Context, actor Actor, userID *int64) ([]model.Database, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	dbs, err := s.store.ListDatabases(ctx, f)
	if err != nil {
		return nil, storeErr(err, "database")
	}
	return dbs, nil
}

func (s *DatabaseService) Get(ctx context.Context, actor Actor, id int64) (*model.Database, error) {
	db, err := s.store.GetDatabase(ctx, id)
	if err != nil {
		return nil, storeErr(err, "database")
	}
	if err := actor.authorize(db.UserID); err != nil {
		return nil, err
	}
	return db, nil
}

func (s *DatabaseService) Create(ctx context.Context, actor Actor, in DatabaseInput) (*model.Database, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ownerID, err := actor.owner(in.UserID)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.ListDatabases(ctx, store.ByUser(ownerID))
	if err != nil {
		return nil, storeErr(err, "database")
	}
	for _, db := range existing {
		if db.Name == in.Name {
			return nil, Conflict("database %s already exists", in.Name)
		}
	}
	err = enforceQuota(ctx, s.store, ownerID, "database",
		func(p *model.HostingPackage) int { return p.Databases },
		func() (int, error) { return len(existing), nil })
	if err != nil {
		return nil, err
	}

	db := &model.Database{
		UserID:    ownerID,
		Name:      in.Name,
		Type:      defaultString(in.Type, model.DatabaseTypePostgreSQL),
		Size:      in.Size,
		Status:    defaultString(in.Status, model.StatusActive),
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateDatabase(ctx, db); err != nil {
		return nil, storeErr(err, "database")
	}
	s.log.Info().Int64("database_id", db.ID).Str("name", db.Name).Str("type", db.Type).Msg("database created")
	return db, nil
}

func (s *DatabaseService) Update(ctx context.Context, actor Actor, id int64, in UpdateDatabaseInput) (*model.Database, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	db, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && *in.Name != db.Name {
		siblings, err := s.store.ListDatabases(ctx, store.ByUser(db.UserID))
		if err != nil {
			return nil, storeErr(err, "database")
		}
		for _, other := range siblings {
			if other.Name == *in.Name {
				return nil, Conflict("database %s already exists", *in.Name)
			}
		}
	}
	assign(&db.Name, in.Name)
	assign(&db.Size, in.Size)
	assign(&db.Status, in.Status)
	if err := s.store.UpdateDatabase(ctx, db); err != nil {
		return nil, storeErr(err, "database")
	}
	return db, nil
}

func (s *DatabaseService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteDatabase(ctx, id); err != nil {
		return storeErr(err, "database")
	}
	return nil
}
