// Package auth holds the session slice: token plus user identity, backed
// by the persistent store so a restart keeps the session alive.
package auth

import (
	"context"
	"sync"

	"storefront-service/internal/kvstore"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Service owns the current session. A session is authenticated exactly
// when a non-empty token is held.
type Service struct {
	mu     sync.Mutex
	token  string
	user   *models.User
	errMsg string

	client *Client
	kv     *kvstore.Store
	logger *zap.Logger
}

// NewService restores any persisted session.
func NewService(ctx context.Context, client *Client, kv *kvstore.Store) (*Service, error) {
	s := &Service{
		client: client,
		kv:     kv,
		logger: util.GetLogger(),
	}

	if _, err := kv.ReadJSON(ctx, kvstore.KeyToken, &s.token); err != nil {
		return nil, err
	}
	var user models.User
	if found, err := kv.ReadJSON(ctx, kvstore.KeyUser, &user); err != nil {
		return nil, err
	} else if found {
		s.user = &user
	}

	return s, nil
}

// Login authenticates against the identity endpoint and persists the
// session. On failure the upstream message is retained for readback and
// any previous error is replaced.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "auth.Login")
	defer span.End()

	util.LoginAttemptsTotal.Inc()

	resp, err := s.client.Login(ctx, username, password)
	if err != nil {
		util.LoginFailuresTotal.Inc()
		s.logger.Warn("Login failed", zap.String("username", username), zap.Error(err))

		s.mu.Lock()
		s.errMsg = err.Error()
		s.mu.Unlock()
		return nil, err
	}

	user := resp.User

	if err := s.persistSession(ctx, resp.Token, user); err != nil {
		util.LoginFailuresTotal.Inc()
		s.logger.Error("Failed to persist session", zap.String("username", user.Username), zap.Error(err))

		s.mu.Lock()
		s.errMsg = err.Error()
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.token = resp.Token
	s.user = &user
	s.errMsg = ""
	s.mu.Unlock()

	s.logger.Info("Login succeeded", zap.String("username", user.Username))
	return &user, nil
}

func (s *Service) persistSession(ctx context.Context, token string, user models.User) error {
	if err := s.kv.Write(ctx, kvstore.KeyToken, token); err != nil {
		return err
	}
	return s.kv.Write(ctx, kvstore.KeyUser, user)
}

// Logout clears the session from memory and from the persistent store.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.errMsg = ""
	s.mu.Unlock()

	if err := s.kv.Remove(ctx, kvstore.KeyToken, kvstore.KeyUser); err != nil {
		return err
	}

	s.logger.Info("Logged out")
	return nil
}

// IsAuthenticated reports whether a token is held.
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != ""
}

// Token returns the current session token, empty when logged out.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the current user, or nil when logged out.
func (s *Service) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Err returns the last login failure message.
func (s *Service) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearError drops the last login failure message.
func (s *Service) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}
