package core

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/edvin/hostpanel/internal/model"
	"github.com/edvin/hostpanel/internal/platform"
	"github.com/edvin/hostpanel/internal/store"
)

type ArticleInput struct {
	Title    string   `json:"title" validate:"required,max=200"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category" validate:"required,max=50"`
	Tags     []string `json:"tags" validate:"omitempty,max=20,dive,required,max=30"`
}

type UpdateArticleInput struct {
	Title    *string   `json:"title" validate:"omitempty,max=200"`
	Content  *string   `json:"content"`
	Category *string   `json:"category" validate:"omitempty,max=50"`
	Tags     *[]string `json:"tags" validate:"omitempty,max=20,dive,required,max=30"`
}

type KnowledgeBaseService struct {
	store store.Store
	clock platform.Clock
	log   zerolog.Logger
}

func NewKnowledgeBaseService(d Deps) *KnowledgeBaseService {
	return &KnowledgeBaseService{store: d.Store, clock: d.Clock, log: d.Logger.With().Str("component", "knowledge_base").Logger()}
}

func (s *KnowledgeBaseService) List(ctx context.Context, category string) ([]model.KnowledgeBaseArticle, error) {
	as, err := s.store.ListArticles(ctx, store.Filter{Category: strings.TrimSpace(category)})
	if err != nil {
		return nil, storeErr(err, "article")
	}
	return as, nil
}

// Get returns an article and counts the view.
func (s *KnowledgeBaseService) Get(ctx context.Context, id int64) (*model.KnowledgeBaseArticle, error) {
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, storeErr(err, "article")
	}
	a.Views++
	if err := s.store.UpdateArticle(ctx, a); err != nil {
		s.log.Warn().Err(err).Int64("article_id", id).Msg("failed to count article view")
	}
	return a, nil
}

func (s *KnowledgeBaseService) Create(ctx context.Context, actor Actor, in ArticleInput) (*model.KnowledgeBaseArticle, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	a := &model.KnowledgeBaseArticle{
		Title:     in.Title,
		Content:   in.Content,
		Category:  in.Category,
		Tags:      normalizeTags(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if actor.UserID != 0 {
		author := actor.UserID
		a.AuthorID = &author
	}
	if err := s.store.CreateArticle(ctx, a); err != nil {
		return nil, storeErr(err, "article")
	}
	return a, nil
}

func (s *KnowledgeBaseService) Update(ctx context.Context, actor Actor, id int64, in UpdateArticleInput) (*model.KnowledgeBaseArticle, error) {
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	a, err := s.store.GetArticle(ctx, id)
	if err != nil {
		return nil, storeErr(err, "article")
	}
	assign(&a.Title, in.Title)
	assign(&a.Content, in.Content)
	assign(&a.Category, in.Category)
	if in.Tags != nil {
		a.Tags = normalizeTags(*in.Tags)
	}
	a.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateArticle(ctx, a); err != nil {
		return nil, storeErr(err, "article")
	}
	return a, nil
}

func (s *KnowledgeBaseService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := actor.requireAdmin(); err != nil {
		return err
	}
	if err := s.store.DeleteArticle(ctx, id); err != nil {
		return storeErr(err, "article")
	}
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
