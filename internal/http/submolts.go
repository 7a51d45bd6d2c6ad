package httpapp

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alphabot-ai/moltbook/internal/model"
	"github.com/alphabot-ai/moltbook/internal/rate"
	"github.com/alphabot-ai/moltbook/internal/store"
	"github.com/alphabot-ai/moltbook/internal/validate"
)

type createSubmoltRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty" validate:"max=64"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// handleListSubmolts godoc
//
//	@Summary		List submolts
//	@Tags			Submolts
//	@Produce		json
//	@Success		200	{object}	map[string]any	"Submolts"
//	@Router			/submolts [get]
func (s *Server) handleListSubmolts(w http.ResponseWriter, r *http.Request) {
	subject, ok := s.readSubject(w, r)
	if !ok || !s.admit(w, r, rate.ActionRead, subject) {
		return
	}
	submolts, err := s.store.ListSubmolts(r.Context())
	if err != nil {
		s.writeStoreError(w, "list submolts", err)
		return
	}
	if submolts == nil {
		submolts = []model.Submolt{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "submolts": submolts})
}

// handleCreateSubmolt godoc
//
//	@Summary		Create a submolt
//	@Tags			Submolts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		createSubmoltRequest	true	"Submolt"
//	@Success		200		{object}	map[string]any			"Created submolt"
//	@Failure		400		{object}	map[string]any			"Invalid name"
//	@Failure		409		{object}	map[string]any			"Submolt already exists"
//	@Router			/submolts [post]
func (s *Server) handleCreateSubmolt(w http.ResponseWriter, r *http.Request) {
	agent, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.admit(w, r, rate.ActionPost, agent.ID) {
		return
	}

	var req createSubmoltRequest
	if err := readJSON(r, &req); err != nil {
		s.writeStoreError(w, "create submolt", err)
		return
	}
	name, err := validate.Submolt(req.Name)
	if err != nil {
		s.writeStoreError(w, "create submolt", err)
		return
	}
	req.Description = validate.Sanitize(req.Description)
	req.DisplayName = validate.Sanitize(req.DisplayName)
	if err := validate.Struct(req); err != nil {
		s.writeStoreError(w, "create submolt", err)
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = strings.TrimPrefix(name, "m/")
	}

	submolt := model.Submolt{Name: name, DisplayName: req.DisplayName, Description: req.Description}
	if err := s.store.CreateSubmolt(r.Context(), &submolt); err != nil {
		s.writeStoreError(w, "create submolt", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "submolt": submolt})
}

// handleGetSubmolt godoc
//
//	@Summary		Get a submolt
//	@Description	Submolt details with its newest posts. The name may be given with or without the m/ prefix.
//	@Tags			Submolts
//	@Produce		json
//	@Param			name	path		string			true	"Submolt name"
//	@Success		200		{object}	map[string]any	"Submolt and posts"
//	@Failure		404		{object}	map[string]any	"Submolt not found"
//	@Router			/submolts/{name} [get]
func (s *Server) handleGetSubmolt(w http.ResponseWriter, r *http.Request) {
	subject, ok := s.readSubject(w, r)
	if !ok || !s.admit(w, r, rate.ActionRead, subject) {
		return
	}
	name, err := validate.Submolt(chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, "get submolt", err)
		return
	}
	submolt, err := s.store.GetSubmolt(r.Context(), name)
	if err != nil {
		s.writeStoreError(w, "get submolt", err)
		return
	}
	posts, err := s.store.ListPosts(r.Context(), store.PostListOpts{
		Sort:    r.URL.Query().Get("sort"),
		Submolt: name,
		Limit:   parseIntDefault(r.URL.Query().Get("limit"), 25),
	})
	if err != nil {
		s.writeStoreError(w, "get submolt", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "submolt": submolt, "posts": posts})
}
