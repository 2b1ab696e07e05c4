package token

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"reelstream/internal/domain"
)

const defaultTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")
var ErrExpiredToken = errors.New("token expired")
var ErrBadCredentials = errors.New("bad credentials")

// StreamClaims bind a download URL to specific content coordinates.
// Expiry is a custom unix-seconds claim checked by Verify; the standard
// exp claim is intentionally unused.
type StreamClaims struct {
	ID            string `json:"id"`
	MediaType     string `json:"mediaType"`
	QualityIndex  int    `json:"qualityIndex"`
	SeasonNumber  *int   `json:"seasonNumber,omitempty"`
	EpisodeNumber *int   `json:"episodeNumber,omitempty"`
	Expiry        int64  `json:"expiry"`
	jwt.RegisteredClaims
}

type AdminClaims struct {
	Role   string `json:"role"`
	Expiry int64  `json:"expiry"`
	jwt.RegisteredClaims
}

// Service issues and validates HMAC-SHA256 signed tokens. Stream and
// admin tokens share the signing secret; callers distinguish by claims.
type Service struct {
	secret        []byte
	adminUsername string
	adminPassword string
	ttl           time.Duration
	now           func() time.Time
}

func NewService(secret, adminUsername, adminPassword string) *Service {
	return &Service{
		secret:        []byte(secret),
		adminUsername: adminUsername,
		adminPassword: adminPassword,
		ttl:           defaultTTL,
		now:           time.Now,
	}
}

func (s *Service) IssueStream(claims StreamClaims) (string, error) {
	if claims.MediaType != string(domain.MediaMovie) && claims.MediaType != string(domain.MediaShow) {
		return "", fmt.Errorf("%w: unknown media type %q", ErrInvalidToken, claims.MediaType)
	}
	if claims.Expiry == 0 {
		claims.Expiry = s.now().Add(s.ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) VerifyStream(raw string) (StreamClaims, error) {
	var claims StreamClaims
	if err := s.parse(raw, &claims); err != nil {
		return StreamClaims{}, err
	}
	if claims.Expiry < s.now().Unix() {
		return StreamClaims{}, ErrExpiredToken
	}
	return claims, nil
}

// VerifyStreamFor validates the token and additionally requires the URL
// path id to match the token's id claim.
func (s *Service) VerifyStreamFor(raw, pathID string) (StreamClaims, error) {
	claims, err := s.VerifyStream(raw)
	if err != nil {
		return StreamClaims{}, err
	}
	if claims.ID != pathID {
		return StreamClaims{}, fmt.Errorf("%w: token not issued for this content", ErrInvalidToken)
	}
	return claims, nil
}

// Login checks the configured admin credentials and issues an admin
// token with role "admin" and a one-day expiry.
func (s *Service) Login(username, password string) (string, error) {
	if s.adminPassword == "" || username != s.adminUsername || password != s.adminPassword {
		return "", ErrBadCredentials
	}
	claims := AdminClaims{
		Role:   "admin",
		Expiry: s.now().Add(s.ttl).Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: username,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) VerifyAdmin(raw string) (AdminClaims, error) {
	var claims AdminClaims
	if err := s.parse(raw, &claims); err != nil {
		return AdminClaims{}, err
	}
	if claims.Expiry < s.now().Unix() {
		return AdminClaims{}, ErrExpiredToken
	}
	if claims.Role != "admin" {
		return AdminClaims{}, fmt.Errorf("%w: missing admin role", ErrInvalidToken)
	}
	return claims, nil
}

func (s *Service) parse(raw string, claims jwt.Claims) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrInvalidToken
	}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

// FromRequest extracts a token from the Authorization header, accepting
// both "Bearer <token>" and a raw token. The token query parameter is
// consulted only when the header is absent.
func FromRequest(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		if rest, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(rest)
		}
		return header
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
