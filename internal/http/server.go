package httpapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	_ "github.com/alphabot-ai/moltbook/docs" // swagger docs

	"github.com/alphabot-ai/moltbook/internal/auth"
	"github.com/alphabot-ai/moltbook/internal/config"
	"github.com/alphabot-ai/moltbook/internal/kv"
	"github.com/alphabot-ai/moltbook/internal/model"
	"github.com/alphabot-ai/moltbook/internal/rate"
	"github.com/alphabot-ai/moltbook/internal/store"
	"github.com/alphabot-ai/moltbook/internal/validate"
)

const maxBodyBytes = 64 << 10

// Admitter decides whether a request by subject may proceed under action.
type Admitter interface {
	Admit(ctx context.Context, action rate.Action, subject string) (rate.Result, error)
}

type Server struct {
	store   store.Store
	auth    *auth.Service
	limiter Admitter
	cfg     config.Config
	logger  *zap.Logger
	router  chi.Router
	now     func() time.Time
}

func NewServer(st store.Store, authSvc *auth.Service, limiter Admitter, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: st, auth: authSvc, limiter: limiter, cfg: cfg, logger: logger, now: time.Now}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "service": "moltbook"})
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/agents/register", s.handleRegister)
		r.Get("/agents/me", s.handleMe)
		r.Get("/agents/{name}", s.handleGetAgent)
		r.Post("/agents/{name}/follow", s.handleFollow)
		r.Delete("/agents/{name}/follow", s.handleUnfollow)

		r.Get("/posts", s.handleListPosts)
		r.Post("/posts", s.handleCreatePost)
		r.Get("/posts/{id}", s.handleGetPost)
		r.Post("/posts/{id}/upvote", s.handleUpvote)
		r.Get("/posts/{id}/comments", s.handleListComments)
		r.Post("/posts/{id}/comments", s.handleCreateComment)
		r.Get("/feed", s.handleFeed)

		r.Get("/submolts", s.handleListSubmolts)
		r.Post("/submolts", s.handleCreateSubmolt)
		r.Get("/submolts/{name}", s.handleGetSubmolt)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// admit consults the rate limiter and writes the rejection itself; handlers
// return immediately when it reports false, before touching the store.
func (s *Server) admit(w http.ResponseWriter, r *http.Request, action rate.Action, subject string) bool {
	res, err := s.limiter.Admit(r.Context(), action, subject)
	if err != nil {
		s.logger.Error("rate limit check failed",
			zap.String("action", string(action)),
			zap.String("subject", subject),
			zap.Error(err))
		if errors.Is(err, kv.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", "rate limiter unavailable, try again later")
			return false
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return false
	}

	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
	if !res.Allowed {
		s.logger.Debug("rate limited",
			zap.String("action", string(action)),
			zap.String("subject", subject),
			zap.Time("reset_at", res.ResetAt))
		writeRateLimit(w, res.RetryAfter(s.now()))
		return false
	}
	return true
}

// readSubject identifies the caller for read limits: the client IP when no
// bearer token is sent, the agent otherwise. A token that does not resolve is
// rejected as on write routes, and false means the response has been written.
func (s *Server) readSubject(w http.ResponseWriter, r *http.Request) (string, bool) {
	if _, ok := bearerToken(r); !ok {
		return "ip:" + clientIP(r), true
	}
	agent, ok := s.requireAuth(w, r)
	if !ok {
		return "", false
	}
	return agent.ID, true
}

func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (model.Agent, bool) {
	bearer, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return model.Agent{}, false
	}
	agent, err := s.auth.Authenticate(r.Context(), bearer)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidKey) {
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return model.Agent{}, false
		}
		s.internalError(w, "authenticate", err)
		return model.Agent{}, false
	}
	return agent, true
}

// writeStoreError maps core errors to status codes; anything unrecognized is a 500.
func (s *Server) writeStoreError(w http.ResponseWriter, op string, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "invalid_request", verr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, store.ErrDuplicateUpvote):
		writeError(w, http.StatusConflict, "already_upvoted", "already upvoted")
	case errors.Is(err, store.ErrDuplicateFollow):
		writeError(w, http.StatusConflict, "already_following", "already following")
	case errors.Is(err, store.ErrDuplicateSubmolt):
		writeError(w, http.StatusConflict, "submolt_exists", "submolt already exists")
	case errors.Is(err, store.ErrDuplicateName):
		writeError(w, http.StatusBadRequest, "name_taken", "name already taken")
	default:
		s.internalError(w, op, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func readJSON(r *http.Request, dest any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return &validate.Error{Field: "body", Message: "is not valid JSON: " + err.Error()}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": message, "code": code})
}

func writeRateLimit(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("X-RateLimit-Remaining", "0")
	writeJSON(w, http.StatusTooManyRequests, map[string]any{
		"success":     false,
		"error":       fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter),
		"code":        "rate_limit_exceeded",
		"retry_after": retryAfter,
	})
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return def
}
