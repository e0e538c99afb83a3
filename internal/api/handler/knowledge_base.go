package handler

import (
	"net/http"

	"github.com/edvin/hostpanel/internal/core"
)

type KnowledgeBase struct {
	svc *core.KnowledgeBaseService
}

func NewKnowledgeBase(services *core.Services) *KnowledgeBase {
	return &KnowledgeBase{svc: services.KnowledgeBase}
}

// List godoc
//
//	@Summary		List help articles
//	@Tags			Knowledge Base
//	@Param			category	query	string	false	"Category filter"
//	@Success		200			{array}	model.KnowledgeBaseArticle
//	@Router			/knowledge-base [get]
func (h *KnowledgeBase) List(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.List(r.Context(), r.URL.Query().Get("category"))
	writeList(w, r, articles, err)
}

func (h *KnowledgeBase) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.svc.Get(r.Context(), id)
	writeResult(w, r, http.StatusOK, a, err)
}

func (h *KnowledgeBase) Create(w http.ResponseWriter, r *http.Request) {
	var in core.ArticleInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.svc.Create(r.Context(), actor(r), in)
	writeResult(w, r, http.StatusCreated, a, err)
}

func (h *KnowledgeBase) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in core.UpdateArticleInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.svc.Update(r.Context(), actor(r), id, in)
	writeResult(w, r, http.StatusOK, a, err)
}

func (h *KnowledgeBase) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	writeDeleted(w, r, "Article", h.svc.Delete(r.Context(), actor(r), id))
}
