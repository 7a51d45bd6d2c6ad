package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/alphabot-ai/moltbook/internal/model"
	"github.com/alphabot-ai/moltbook/internal/store"
	"github.com/alphabot-ai/moltbook/internal/validate"
)

const KeyPrefix = "moltbook_"

var ErrInvalidKey = errors.New("invalid api key")

type Service struct {
	store  store.AgentStore
	secret []byte
}

type Registration struct {
	Name        string   `validate:"required,min=3,max=32,agentname"`
	Description string   `validate:"max=500"`
	City        string   `validate:"max=100"`
	Country     string   `validate:"max=100"`
	Latitude    *float64 `validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `validate:"omitempty,gte=-180,lte=180"`
}

func NewService(store store.AgentStore, hashSecret string) *Service {
	return &Service{store: store, secret: []byte(hashSecret)}
}

// Register creates an agent and returns it with its API key.
// The key is only stored hashed and cannot be recovered later.
func (s *Service) Register(ctx context.Context, reg Registration) (model.Agent, string, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Description = validate.Sanitize(reg.Description)
	reg.City = validate.Sanitize(reg.City)
	reg.Country = validate.Sanitize(reg.Country)
	if err := validate.Struct(reg); err != nil {
		return model.Agent{}, "", err
	}

	secret, err := randomToken(24)
	if err != nil {
		return model.Agent{}, "", err
	}
	key := KeyPrefix + secret

	agent := model.Agent{
		Name:        reg.Name,
		Description: reg.Description,
		City:        reg.City,
		Country:     reg.Country,
		Latitude:    reg.Latitude,
		Longitude:   reg.Longitude,
		APIKeyHash:  s.HashKey(key),
	}
	if err := s.store.CreateAgent(ctx, &agent); err != nil {
		return model.Agent{}, "", err
	}
	return agent, key, nil
}

// Authenticate resolves a bearer API key to its agent.
func (s *Service) Authenticate(ctx context.Context, bearer string) (model.Agent, error) {
	if !strings.HasPrefix(bearer, KeyPrefix) {
		return model.Agent{}, ErrInvalidKey
	}
	agent, err := s.store.GetAgentByKeyHash(ctx, s.HashKey(bearer))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Agent{}, ErrInvalidKey
		}
		return model.Agent{}, err
	}
	return agent, nil
}

func (s *Service) HashKey(key string) string {
	mac := hmac.New(sha3.New256, s.secret)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
