// Package auth gates the admin screen behind a shared static password and a
// signed session token.
package auth

import (
	"crypto/subtle"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

// CookieName is the cookie carrying the admin session token.
const CookieName = "cms_admin_session"

const subject = "admin"

var (
	// ErrInvalidPassword is returned when the submitted password does not match.
	ErrInvalidPassword = eris.New("invalid admin password")
	// ErrInvalidSession is returned for missing, forged or expired tokens.
	ErrInvalidSession = eris.New("invalid admin session")
)

// Options configures a Gate.
type Options struct {
	Password string
	Secret   string
	TTL      time.Duration
	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// Gate checks the admin password and issues session tokens.
type Gate struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// Claims are the registered claims carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
}

// NewGate builds a Gate. A secret is required to sign sessions.
func NewGate(opts Options) (*Gate, error) {
	if opts.Secret == "" {
		return nil, eris.New("session secret is required")
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Gate{
		password: []byte(opts.Password),
		secret:   []byte(opts.Secret),
		ttl:      ttl,
		now:      now,
	}, nil
}

// TTL returns how long issued sessions stay valid.
func (g *Gate) TTL() time.Duration {
	return g.ttl
}

// Login checks password and returns a signed token with its expiry. An empty
// configured password disables the admin screen.
func (g *Gate) Login(password string) (string, time.Time, error) {
	if len(g.password) == 0 || subtle.ConstantTimeCompare([]byte(password), g.password) != 1 {
		return "", time.Time{}, ErrInvalidPassword
	}

	issued := g.now()
	expires := issued.Add(g.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, eris.Wrap(err, "signing session token")
	}

	return token, expires, nil
}

// Verify validates the token signature and expiry.
func (g *Gate) Verify(token string) error {
	if token == "" {
		return ErrInvalidSession
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, eris.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	},
		jwt.WithTimeFunc(g.now),
		jwt.WithExpirationRequired(),
		jwt.WithSubject(subject),
	)
	if err != nil {
		return eris.Wrap(ErrInvalidSession, err.Error())
	}
	if !parsed.Valid {
		return ErrInvalidSession
	}

	return nil
}

// Authenticated reports whether token carries a valid session.
func (g *Gate) Authenticated(token string) bool {
	return g.Verify(token) == nil
}
