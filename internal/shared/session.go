package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore orchestrates cookie based sessions backed by Redis. It is
// created once at process start and handed to the call sites that need
// session state; nothing reads ambient globals.
type SessionStore struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// Session holds per-request session data.
type Session struct {
	ID        string
	values    map[string]string
	actorID   int64
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	Values  map[string]string `json:"values"`
	ActorID int64             `json:"actor_id"`
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionStore {
	return &SessionStore{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Load loads the session referenced by the request cookie, or creates a new one.
func (ss *SessionStore) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(ss.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return ss.newSession(), nil
		}
		return nil, err
	}

	payload, err := ss.client.Get(ctx, ss.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := ss.newSession()
			sess.ID = cookie.Value
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := ss.newSession()
	sess.ID = cookie.Value
	sess.values = stored.Values
	sess.actorID = stored.ActorID
	sess.isNew = false
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed.
func (ss *SessionStore) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := ss.client.Del(ctx, ss.redisKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     ss.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   ss.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.isNew && sess.ID == "" {
		sess.ID = generateSessionID()
	}

	if sess.dirty || sess.isNew {
		data, err := json.Marshal(sessionPayload{Values: sess.values, ActorID: sess.actorID})
		if err != nil {
			return err
		}
		if err := ss.client.Set(ctx, ss.redisKey(sess.ID), data, ss.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
	}

	if sess.ID != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     ss.cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   ss.secure,
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(ss.ttl),
		})
	}

	return nil
}

// Destroy marks the session for deletion on the next Commit.
func (ss *SessionStore) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// TTL exposes the configured session lifetime.
func (ss *SessionStore) TTL() time.Duration {
	return ss.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (ss *SessionStore) CookieName() string {
	return ss.cookieName
}

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// SetActor associates the session with an authenticated actor.
func (s *Session) SetActor(id int64) {
	s.actorID = id
	s.dirty = true
}

// ClearActor detaches the session from its actor without destroying it.
func (s *Session) ClearActor() {
	s.actorID = 0
	s.dirty = true
}

// ActorID returns the authenticated actor's ID, or 0 when anonymous.
func (s *Session) ActorID() int64 {
	return s.actorID
}

// ActorIDString returns the actor ID formatted for logging and audit details.
func (s *Session) ActorIDString() string {
	return strconv.FormatInt(s.actorID, 10)
}

func (ss *SessionStore) newSession() *Session {
	return &Session{
		ID:     generateSessionID(),
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

func (ss *SessionStore) redisKey(id string) string {
	return "session:" + id
}

func generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
