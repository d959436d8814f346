package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	keyID       = "sid"
	keyToken    = "token"
	keyUser     = "user"
	keyRemember = "remember"

	// PageHeader carries the browser page path that triggered an API call.
	PageHeader = "X-Page-Path"
	// LoginPath is where shoppers are sent when a protected page loses its session.
	LoginPath = "/login"
)

var protectedPrefixes = []string{"/dashboard", "/admin", "/checkout"}

// Manager reads and writes the signed session cookie.
type Manager struct {
	store  *sessions.CookieStore
	name   string
	maxAge int
	log    *logger.Logger
	now    func() time.Time
}

// Session is the server view of one browser session: a stable id that keys
// the cart and promo state, plus the reflected login state.
type Session struct {
	ID       string
	Token    string
	User     *models.User
	Remember bool

	raw     *sessions.Session
	manager *Manager
}

func NewManager(cfg *config.SessionConfig, log *logger.Logger) *Manager {
	maxAge := cfg.MaxAgeDays * 24 * 60 * 60
	if maxAge <= 0 {
		maxAge = 30 * 24 * 60 * 60
	}
	name := cfg.Name
	if name == "" {
		name = "storefront_session"
	}

	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.MaxAge(maxAge)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		store:  store,
		name:   name,
		maxAge: maxAge,
		log:    log,
		now:    time.Now,
	}
}

// Load decodes the cookie. A missing or tampered cookie yields a fresh
// session with a new id. An expired bearer token is dropped.
func (m *Manager) Load(r *http.Request) (*Session, bool) {
	raw, err := m.store.Get(r, m.name)
	if err != nil {
		m.log.WithError(err).Debug("Discarding unreadable session cookie")
		raw, _ = m.store.New(r, m.name)
		raw.IsNew = true
	}

	s := &Session{raw: raw, manager: m, Remember: true}
	dirty := false

	if id, ok := raw.Values[keyID].(string); ok && id != "" {
		s.ID = id
	} else {
		s.ID = uuid.NewString()
		dirty = true
	}
	if remember, ok := raw.Values[keyRemember].(bool); ok {
		s.Remember = remember
	}
	if token, ok := raw.Values[keyToken].(string); ok {
		s.Token = token
	}
	if data, ok := raw.Values[keyUser].(string); ok && data != "" {
		var u models.User
		if err := json.Unmarshal([]byte(data), &u); err == nil {
			s.User = &u
		}
	}

	if s.Token != "" && TokenExpired(s.Token, m.now()) {
		m.log.WithField("session_id", s.ID).Info("Session token expired, signing out")
		s.SignOut()
		dirty = true
	}

	return s, dirty
}

// Save writes the session cookie. It must run before the response body.
func (s *Session) Save(w http.ResponseWriter, r *http.Request) error {
	s.raw.Values[keyID] = s.ID
	s.raw.Values[keyToken] = s.Token
	s.raw.Values[keyRemember] = s.Remember
	if s.User != nil {
		data, err := json.Marshal(s.User)
		if err != nil {
			return fmt.Errorf("failed to encode session user: %w", err)
		}
		s.raw.Values[keyUser] = string(data)
	} else {
		delete(s.raw.Values, keyUser)
	}

	opts := *s.manager.store.Options
	if !s.Remember {
		opts.MaxAge = 0
	}
	s.raw.Options = &opts

	if err := s.manager.store.Save(r, w, s.raw); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SignIn reflects a backend login into the session and rotates its id. The
// previous id is returned so state keyed by it can follow the session.
func (s *Session) SignIn(token string, user *models.User, remember bool) (previousID string) {
	previousID = s.ID
	s.ID = uuid.NewString()
	s.Token = token
	s.User = user
	s.Remember = remember
	return previousID
}

// SignOut forgets the token and user but keeps the id, so the cart survives.
func (s *Session) SignOut() {
	s.Token = ""
	s.User = nil
}

// IsNew reports whether the request carried no usable session cookie.
func (s *Session) IsNew() bool {
	return s.raw == nil || s.raw.IsNew
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

func (s *Session) IsAdmin() bool {
	return s.Authenticated() && s.User.IsAdmin()
}

// TokenExpired inspects the exp claim without verifying the signature; the
// backend remains the authority on validity. Opaque tokens never expire here.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// ProtectedPage reports whether losing the session on path should send the
// shopper to the login page.
func ProtectedPage(path string) bool {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == LoginPath || strings.HasSuffix(path, LoginPath) {
		return false
	}
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// PagePath is the page the request was made from: the X-Page-Path header,
// or the API path without its /api prefix.
func PagePath(r *http.Request) string {
	if p := strings.TrimSpace(r.Header.Get(PageHeader)); p != "" {
		return p
	}
	return strings.TrimPrefix(r.URL.Path, "/api")
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by Middleware.
func FromContext(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	if !ok || s == nil {
		return nil, errors.New("session missing from context")
	}
	return s, nil
}

// Middleware loads the session for every request. New or changed sessions
// are saved before the handler runs so the cookie header goes out first.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, dirty := m.Load(r)
		if dirty {
			if err := s.Save(w, r); err != nil {
				m.log.WithError(err).Error("Failed to save session")
			}
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}
