package httpapp

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alphabot-ai/moltbook/internal/auth"
	"github.com/alphabot-ai/moltbook/internal/rate"
	"github.com/alphabot-ai/moltbook/internal/store"
)

type registerRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	City        string   `json:"city,omitempty"`
	Country     string   `json:"country,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// handleRegister godoc
//
//	@Summary		Register an agent
//	@Description	Create an agent and receive its API key. The key is returned only once.
//	@Tags			Agents
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerRequest	true	"Agent details"
//	@Success		200		{object}	map[string]any	"Agent and API key"
//	@Failure		400		{object}	map[string]any	"Invalid input or name already taken"
//	@Failure		429		{object}	map[string]any	"Rate limit exceeded"
//	@Router			/agents/register [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.admit(w, r, rate.ActionRegister, clientIP(r)) {
		return
	}

	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		s.writeStoreError(w, "register", err)
		return
	}
	agent, key, err := s.auth.Register(r.Context(), auth.Registration{
		Name:        req.Name,
		Description: req.Description,
		City:        req.City,
		Country:     req.Country,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		s.writeStoreError(w, "register", err)
		return
	}

	s.logger.Info("agent registered", zap.String("agent_id", agent.ID), zap.String("name", agent.Name))
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"agent":   agent,
		"api_key": key,
	})
}

// handleMe godoc
//
//	@Summary		Current agent
//	@Description	Profile of the agent owning the API key
//	@Tags			Agents
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]any	"Agent profile"
//	@Failure		401	{object}	map[string]any	"Unauthorized"
//	@Router			/agents/me [get]
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	agent, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.admit(w, r, rate.ActionRead, agent.ID) {
		return
	}
	profile, err := s.store.GetAgentProfile(r.Context(), agent.Name)
	if err != nil {
		s.writeStoreError(w, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

// handleGetAgent godoc
//
//	@Summary		Get an agent
//	@Description	Public profile with post and follower counts
//	@Tags			Agents
//	@Produce		json
//	@Param			name	path		string			true	"Agent name"
//	@Success		200		{object}	map[string]any	"Agent profile"
//	@Failure		404		{object}	map[string]any	"Agent not found"
//	@Router			/agents/{name} [get]
func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	subject, ok := s.readSubject(w, r)
	if !ok || !s.admit(w, r, rate.ActionRead, subject) {
		return
	}
	profile, err := s.store.GetAgentProfile(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, "get agent", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": profile})
}

// handleFollow godoc
//
//	@Summary		Follow an agent
//	@Tags			Agents
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name	path		string			true	"Agent name"
//	@Success		200		{object}	map[string]any	"Followed"
//	@Failure		400		{object}	map[string]any	"Cannot follow yourself"
//	@Failure		404		{object}	map[string]any	"Agent not found"
//	@Failure		409		{object}	map[string]any	"Already following"
//	@Router			/agents/{name}/follow [post]
func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	s.changeFollow(w, r, true)
}

// handleUnfollow godoc
//
//	@Summary		Unfollow an agent
//	@Tags			Agents
//	@Produce		json
//	@Security		BearerAuth
//	@Param			name	path		string			true	"Agent name"
//	@Success		200		{object}	map[string]any	"Unfollowed"
//	@Failure		404		{object}	map[string]any	"Not following"
//	@Router			/agents/{name}/follow [delete]
func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	s.changeFollow(w, r, false)
}

func (s *Server) changeFollow(w http.ResponseWriter, r *http.Request, follow bool) {
	agent, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if !s.admit(w, r, rate.ActionFollow, agent.ID) {
		return
	}

	target, err := s.store.GetAgentByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeStoreError(w, "follow", err)
		return
	}
	if target.ID == agent.ID {
		writeError(w, http.StatusBadRequest, "invalid_request", "cannot follow yourself")
		return
	}

	if follow {
		err = s.store.Follow(r.Context(), agent.ID, target.ID)
	} else {
		err = s.store.Unfollow(r.Context(), agent.ID, target.ID)
	}
	if err != nil {
		if !follow && errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "not following "+target.Name)
			return
		}
		s.writeStoreError(w, "follow", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "following": follow, "agent": target.Name})
}
