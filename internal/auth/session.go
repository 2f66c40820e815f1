package auth

import (
	"errors"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
)

var (
	ErrSessionRevoked = errors.New("session has been ended")
	ErrNoClinic       = errors.New("clinic selection required")
	ErrClinicDenied   = errors.New("clinic not accessible")
)

// SessionStore resolves tokens into sessions and remembers logouts until the
// token would have expired anyway.
type SessionStore struct {
	tokens   *TokenService
	active   *cache.Cache
	revoked  *cache.Cache
	defaults SessionDefaults
	now      func() time.Time
}

// SessionDefaults fill in what the token leaves out.
type SessionDefaults struct {
	Currency string
	Timezone string
}

func NewSessionStore(tokens *TokenService, defaults SessionDefaults) *SessionStore {
	return &SessionStore{
		tokens:   tokens,
		active:   cache.New(15*time.Minute, 10*time.Minute),
		revoked:  cache.New(24*time.Hour, time.Hour),
		defaults: defaults,
		now:      time.Now,
	}
}

// Resolve verifies the bearer token and returns its session.
func (s *SessionStore) Resolve(token string) (*model.Session, error) {
	if cached, ok := s.active.Get(token); ok {
		session := cached.(*model.Session)
		if _, gone := s.revoked.Get(session.TokenID); gone {
			s.active.Delete(token)
			return nil, ErrSessionRevoked
		}
		if !session.ExpiresAt.IsZero() && s.now().After(session.ExpiresAt) {
			s.active.Delete(token)
			return nil, ErrInvalidToken
		}
		cp := *session
		return &cp, nil
	}

	if _, gone := s.revoked.Get(token); gone {
		return nil, ErrSessionRevoked
	}
	session, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if session.TokenID != "" {
		if _, gone := s.revoked.Get(session.TokenID); gone {
			return nil, ErrSessionRevoked
		}
	}
	if session.Currency == "" {
		session.Currency = s.defaults.Currency
	}
	session.Timezone = s.defaults.Timezone
	session.AccessToken = token

	s.active.Set(token, session, s.ttl(session))
	cp := *session
	return &cp, nil
}

// SelectClinic binds the session to a clinic. An empty requested id picks the
// user's only clinic when there is exactly one.
func SelectClinic(session *model.Session, requested string) (*model.Session, error) {
	if requested == "" {
		if len(session.User.ClinicIDs) == 1 {
			return session.WithClinic(session.User.ClinicIDs[0]), nil
		}
		return nil, ErrNoClinic
	}
	if !session.User.CanAccessClinic(requested) {
		return nil, ErrClinicDenied
	}
	return session.WithClinic(requested), nil
}

// End tears the session down. Later requests with the same token fail.
func (s *SessionStore) End(token string, session *model.Session) {
	s.active.Delete(token)
	if session == nil {
		s.revoked.Set(token, struct{}{}, cache.DefaultExpiration)
		return
	}
	s.revoked.Set(token, struct{}{}, s.ttl(session))
	if session.TokenID != "" {
		s.revoked.Set(session.TokenID, struct{}{}, s.ttl(session))
	}
}

func (s *SessionStore) ttl(session *model.Session) time.Duration {
	if session.ExpiresAt.IsZero() {
		return cache.DefaultExpiration
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}
