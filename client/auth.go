package client

import (
	"context"
	"errors"
	"sync"

	"storefront/models"
)

var ErrNoToken = errors.New("no token received from server")

// AuthStore tracks the signed-in user. It starts in the loading state
// until Restore has run.
type AuthStore struct {
	api    *API
	tokens TokenStore

	mu      sync.RWMutex
	user    *models.User
	loading bool
}

func NewAuthStore(api *API) *AuthStore {
	return &AuthStore{api: api, tokens: api.tokens, loading: true}
}

// Restore resumes a saved session. An invalid saved token is discarded
// silently.
func (s *AuthStore) Restore(ctx context.Context) {
	defer s.setLoading(false)

	token, err := s.tokens.Load()
	if err != nil || token == "" {
		return
	}
	user, err := s.api.Me(ctx)
	if err != nil {
		_ = s.tokens.Clear()
		return
	}
	s.setUser(user)
}

func (s *AuthStore) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.accept(resp)
}

func (s *AuthStore) Register(ctx context.Context, req models.RegisterRequest) error {
	resp, err := s.api.Register(ctx, req)
	if err != nil {
		return err
	}
	return s.accept(resp)
}

func (s *AuthStore) accept(resp *models.AuthResponse) error {
	if resp.Token == "" {
		return ErrNoToken
	}
	if err := s.tokens.Save(resp.Token); err != nil {
		return err
	}
	s.setUser(resp.User)
	return nil
}

// Logout tells the server, then clears local state whatever the server
// said. The server error, if any, is returned for display only.
func (s *AuthStore) Logout(ctx context.Context) error {
	serverErr := s.api.Logout(ctx)
	clearErr := s.tokens.Clear()
	s.setUser(nil)
	if clearErr != nil {
		return clearErr
	}
	return serverErr
}

// User returns a copy of the signed-in user, or nil.
func (s *AuthStore) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *AuthStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *AuthStore) setUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

func (s *AuthStore) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}
