package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/crime-analysis/backend/internal/models"
	"github.com/crime-analysis/backend/internal/services"
)

const (
	jwksTTL        = 5 * time.Minute
	jwksMinRefresh = 30 * time.Second
)

// ExternalJWKSConfig configures token verification against an external issuer.
type ExternalJWKSConfig struct {
	JWKSURL  string
	Issuer   string
	Audience string
	// RoleClaim is a dotted path into the claims, e.g. "public_metadata.role".
	RoleClaim  string
	EmailClaim string
	Timeout    time.Duration
}

// ExternalJWKS verifies RS256 tokens with keys from a JWKS endpoint and keeps
// a local user row per token subject.
type ExternalJWKS struct {
	users UserStore
	keys  *jwksCache
	cfg   ExternalJWKSConfig
	log   *zap.Logger
	now   func() time.Time
}

func NewExternalJWKS(users UserStore, cfg ExternalJWKSConfig, log *zap.Logger) *ExternalJWKS {
	if cfg.RoleClaim == "" {
		cfg.RoleClaim = "role"
	}
	if cfg.EmailClaim == "" {
		cfg.EmailClaim = "email"
	}
	return &ExternalJWKS{
		users: users,
		keys:  newJWKSCache(cfg.JWKSURL, cfg.Timeout),
		cfg:   cfg,
		log:   log,
		now:   time.Now,
	}
}

func (x *ExternalJWKS) Resolve(ctx context.Context, token string) (*AuthenticatedUser, error) {
	ident, err := x.verify(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := x.users.UpsertExternal(ctx, ident)
	if err != nil {
		x.log.Error("external user upsert failed", zap.String("subject", ident.Subject), zap.Error(err))
		return nil, storeFailure("upsert external user", err)
	}
	return fromUser(user), nil
}

func (x *ExternalJWKS) verify(ctx context.Context, token string) (services.ExternalIdentity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(x.now),
	}
	if x.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(x.cfg.Issuer))
	}
	if x.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(x.cfg.Audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header has no kid")
		}
		return x.keys.key(ctx, kid, x.now())
	}, opts...)
	if err != nil {
		if errors.Is(err, ErrKeysUnavailable) {
			x.log.Error("jwks unavailable", zap.String("url", x.cfg.JWKSURL), zap.Error(err))
			return services.ExternalIdentity{}, ErrKeysUnavailable
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return services.ExternalIdentity{}, ErrTokenExpired
		}
		return services.ExternalIdentity{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	subject, _ := claims["sub"].(string)
	if strings.TrimSpace(subject) == "" {
		return services.ExternalIdentity{}, ErrMissingSubject
	}
	email, _ := claimPath(claims, x.cfg.EmailClaim).(string)
	if email == "" {
		email = subject
	}
	role, _ := claimPath(claims, x.cfg.RoleClaim).(string)

	return services.ExternalIdentity{
		Subject: subject,
		Email:   email,
		Role:    models.ParseRole(role),
	}, nil
}

// claimPath walks a dotted path through nested claim objects.
func claimPath(claims map[string]any, path string) any {
	var cur any = claims
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwksCache struct {
	url         string
	client      *resty.Client
	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	expiresAt   time.Time
	lastFetchAt time.Time
}

func newJWKSCache(url string, timeout time.Duration) *jwksCache {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &jwksCache{
		url:    url,
		client: resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		keys:   map[string]*rsa.PublicKey{},
	}
}

// key returns the public key for kid, fetching the document when the cache
// has expired or does not know kid yet.
func (c *jwksCache) key(ctx context.Context, kid string, now time.Time) (*rsa.PublicKey, error) {
	if c.url == "" {
		return nil, fmt.Errorf("%w: jwks url is required", ErrKeysUnavailable)
	}
	c.mu.RLock()
	key, ok := c.keys[kid]
	fresh := now.Before(c.expiresAt)
	c.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := c.refresh(ctx, now, !ok); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok = c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("kid %q not found in jwks", kid)
	}
	return key, nil
}

func (c *jwksCache) refresh(ctx context.Context, now time.Time, unknownKid bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Before(c.expiresAt) && (!unknownKid || now.Sub(c.lastFetchAt) < jwksMinRefresh) {
		return nil
	}

	var doc jwksDocument
	resp, err := c.client.R().SetContext(ctx).SetResult(&doc).Get(c.url)
	if err != nil {
		return fmt.Errorf("%w: fetch jwks: %v", ErrKeysUnavailable, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("%w: fetch jwks: status %d", ErrKeysUnavailable, resp.StatusCode())
	}
	c.lastFetchAt = now

	next := map[string]*rsa.PublicKey{}
	for _, k := range doc.Keys {
		if strings.ToUpper(k.Kty) != "RSA" || strings.TrimSpace(k.Kid) == "" {
			continue
		}
		pub, err := rsaFromJWK(k.N, k.E)
		if err != nil {
			continue
		}
		next[k.Kid] = pub
	}
	if len(next) == 0 {
		return fmt.Errorf("%w: jwks has no valid rsa keys", ErrKeysUnavailable)
	}
	c.keys = next
	c.expiresAt = now.Add(jwksTTL)
	return nil
}

func rsaFromJWK(nB64, eB64 string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}
	if len(eb) == 0 {
		return nil, errors.New("invalid exponent")
	}
	e := 0
	for _, b := range eb {
		e = e<<8 + int(b)
	}
	if e <= 1 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
