package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

const maxCodeSize = 1 << 20

type CodeProjectInput struct {
	UserID      int64  `json:"userId"`
	Name        string `json:"name" validate:"required,max=100"`
	Language    string `json:"language" validate:"required,max=50"`
	Code        string `json:"code" validate:"max=1048576"`
	Description string `json:"description" validate:"max=1000"`
	IsPublic    bool   `json:"isPublic"`
}

type UpdateCodeProjectInput struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Language    *string `json:"language" validate:"omitempty,max=50"`
	Code        *string `json:"code" validate:"omitempty,max=1048576"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsPublic    *bool   `json:"isPublic"`
}

type CodeProjectService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewCodeProjectService(d Deps) *CodeProjectService {
	return &CodeProjectService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "code_projects").Logger()}
}

func (s *CodeProjectService) List(ctx context.Context, actor Actor, userID *int64) ([]model.CodeProject, error) {
	f, err := actor.scope(userID)
	if err != nil {
		return nil, err
	}
	ps, err := s.store.ListCodeProjects(ctx, f)
	if err != nil {
		return nil, storeErr(err, "code project")
	}
	return ps, nil
}

// Get allows anyone to read a public project.
func (s *CodeProjectService) Get(ctx context.Context, actor Actor, id int64) (*model.CodeProject, error) {
	p, err := s.store.GetCodeProject(ctx, id)
	if err != nil {
		return nil, storeErr(err, "code project")
	}
	if !p.IsPublic {
		if err := actor.authorize(p.UserID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *CodeProjectService) Create(ctx context.Context, actor Actor, in CodeProjectInput) (*model.CodeProject, error) {
	if len(in.Code) > maxCodeSize {
		return nil, InvalidInput("code must be at most %d bytes", maxCodeSize)
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	ownerID, err := actor.owner(in.UserID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	p := &model.CodeProject{
		UserID:      ownerID,
		Name:        in.Name,
		Language:    in.Language,
		Code:        in.Code,
		Description: in.Description,
		IsPublic:    in.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateCodeProject(ctx, p); err != nil {
		return nil, storeErr(err, "code project")
	}
	return p, nil
}

func (s *CodeProjectService) Update(ctx context.Context, actor Actor, id int64, in UpdateCodeProjectInput) (*model.CodeProject, error) {
	if in.Code != nil && len(*in.Code) > maxCodeSize {
		return nil, InvalidInput("code must be at most %d bytes", maxCodeSize)
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	assign(&p.Name, in.Name)
	assign(&p.Language, in.Language)
	assign(&p.Code, in.Code)
	assign(&p.Description, in.Description)
	assign(&p.IsPublic, in.IsPublic)
	p.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateCodeProject(ctx, p); err != nil {
		return nil, storeErr(err, "code project")
	}
	return p, nil
}

func (s *CodeProjectService) Delete(ctx context.Context, actor Actor, id int64) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.store.DeleteCodeProject(ctx, id); err != nil {
		return storeErr(err, "code project")
	}
	return nil
}

func (s *CodeProjectService) owned(ctx context.Context, actor Actor, id int64) (*model.CodeProject, error) {
	p, err := s.store.GetCodeProject(ctx, id)
	if err != nil {
		return nil, storeErr(err, "code project")
	}
	if err := actor.authorize(p.UserID); err != nil {
		return nil, err
	}
	return p, nil
}
