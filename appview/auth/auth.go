// Package auth holds the signed-in user's session and keeps it in
// durable client storage so it survives reloads and restarts.
package auth

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/appview/api"
	"github.com/sustc/cookbook/appview/storage"
	"github.com/sustc/cookbook/log"
	"github.com/tidwall/gjson"
)

// LoginFailed is the backend's answer to bad credentials.
const LoginFailed = -1

// Session is the signed-in user's identifier and password, stored and
// replayed verbatim.
type Session struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// Poster is the part of the api client the store needs.
type Poster interface {
	Post(ctx context.Context, path string, body any) (*api.Response, error)
}

// Store owns the Session. A nil *Store behaves as signed out.
type Store struct {
	mu      sync.RWMutex
	storage storage.Storage
	client  Poster
	session *Session
}

var _ api.Credentials = (*Store)(nil)

// New rehydrates the store from st. A missing or unreadable entry means
// no session.
func New(ctx context.Context, st storage.Storage, client Poster) *Store {
	s := &Store{storage: st, client: client}

	raw, ok, err := st.GetItem(appview.SessionKey)
	if err != nil {
		log.FromContext(ctx).Warn("reading stored session", "err", err)
		return s
	}
	if !ok {
		return s
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		log.FromContext(ctx).Warn("discarding malformed stored session", "err", err)
		return s
	}
	s.session = &session

	return s
}

type loginRequest struct {
	AuthorId string `json:"authorId"`
	Password string `json:"password"`
}

// Login asks the backend to check id and password. A false result with a
// nil error means the backend rejected the credentials; the store is left
// untouched in that case.
func (s *Store) Login(ctx context.Context, id, password string) (bool, error) {
	resp, err := s.client.Post(ctx, "/user/login", loginRequest{AuthorId: id, Password: password})
	if err != nil {
		return false, err
	}

	result := resp.Result()
	if result.Type == gjson.Number && result.Float() == LoginFailed {
		return false, nil
	}

	session := &Session{ID: result.String(), Password: password}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.persist(ctx, session)
	return true, nil
}

// Register forwards payload to the backend and hands back whatever it
// answered. Nothing is stored locally.
func (s *Store) Register(ctx context.Context, payload any) (json.RawMessage, error) {
	resp, err := s.client.Post(ctx, "/user/register", payload)
	if err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// Logout forgets the session in memory and in storage.
func (s *Store) Logout(ctx context.Context) {
	if s == nil {
		return
	}

	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	if err := s.storage.RemoveItem(appview.SessionKey); err != nil {
		log.FromContext(ctx).Warn("removing stored session", "err", err)
	}
}

func (s *Store) IsAuthenticated() bool {
	if s == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// Session returns a copy of the current session.
func (s *Store) Session() (Session, bool) {
	if s == nil {
		return Session{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

func (s *Store) Credentials() (id, password string, ok bool) {
	session, ok := s.Session()
	return session.ID, session.Password, ok
}

// persist failures are logged: the session stays valid for this process.
func (s *Store) persist(ctx context.Context, session *Session) {
	data, err := json.Marshal(session)
	if err != nil {
		log.FromContext(ctx).Error("encoding session", "err", err)
		return
	}

	if err := s.storage.SetItem(appview.SessionKey, string(data)); err != nil {
		log.FromContext(ctx).Error("storing session", "err", err)
	}
}
