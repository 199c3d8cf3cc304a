// Package auth issues and verifies the bearer tokens that identify a
// principal. What a principal may do is decided by accessbus, not here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/foundation/logger"
)

// DefaultTokenTTL is how long an issued bearer token is valid.
const DefaultTokenTTL = 24 * time.Hour

// Set of error variables for authentication.
var (
	ErrKIDMissing    = errors.New("kid missing from token header")
	ErrKIDMalformed  = errors.New("kid in token header is malformed")
	ErrUserNotActive = errors.New("user is not active")
	ErrInvalidRole   = errors.New("token contains an invalid role")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// KeyLookup declares a method set of behavior for looking up
// private and public keys for JWT use.
type KeyLookup interface {
	PrivateKey(kid string) (key string, err error)
	PublicKey(kid string) (key string, err error)
}

// Config represents information required to initialize auth.
type Config struct {
	Log       *logger.Logger
	UserBus   *userbus.Core
	KeyLookup KeyLookup
	Issuer    string
	TTL       time.Duration
}

// Auth is used to authenticate clients.
type Auth struct {
	log       *logger.Logger
	keyLookup KeyLookup
	userBus   *userbus.Core
	method    jwt.SigningMethod
	parser    *jwt.Parser
	issuer    string
	ttl       time.Duration
}

// New creates an Auth to support authentication.
func New(cfg Config) *Auth {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &Auth{
		log:       cfg.Log,
		keyLookup: cfg.KeyLookup,
		userBus:   cfg.UserBus,
		method:    jwt.GetSigningMethod(jwt.SigningMethodRS256.Name),
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name})),
		issuer:    cfg.Issuer,
		ttl:       ttl,
	}
}

// Issuer provides the configured issuer used to authenticate tokens.
func (a *Auth) Issuer() string {
	return a.issuer
}

// GenerateToken generates a signed JWT token string for the user.
func (a *Auth) GenerateToken(kid string, usr userbus.User) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   usr.ID.String(),
			Issuer:    a.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Roles: role.ParseToString(usr.Roles),
	}

	token := jwt.NewWithClaims(a.method, claims)
	token.Header["kid"] = kid

	privateKeyPEM, err := a.keyLookup.PrivateKey(kid)
	if err != nil {
		return "", fmt.Errorf("private key: %w", err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("parsing private key from PEM: %w", err)
	}

	str, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return str, nil
}

// Authenticate processes the token to validate the sender's token is valid.
func (a *Auth) Authenticate(ctx context.Context, bearerToken string) (Claims, error) {
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		return Claims{}, errors.New("expected authorization header format: Bearer <token>")
	}

	jwtUnverified := bearerToken[7:]

	var claims Claims
	token, _, err := a.parser.ParseUnverified(jwtUnverified, &claims)
	if err != nil {
		return Claims{}, fmt.Errorf("error parsing token: %w", err)
	}

	kidRaw, exists := token.Header["kid"]
	if !exists {
		return Claims{}, ErrKIDMissing
	}

	kid, ok := kidRaw.(string)
	if !ok {
		return Claims{}, ErrKIDMalformed
	}

	pem, err := a.keyLookup.PublicKey(kid)
	if err != nil {
		return Claims{}, fmt.Errorf("fetching public key for kid %q: %w", kid, err)
	}

	if err := a.verifySignatureAndClaims(jwtUnverified, pem); err != nil {
		a.log.Info(ctx, "**Authenticate-FAILED**", "userID", claims.Subject, "err", err)
		return Claims{}, fmt.Errorf("authentication failed: %w", err)
	}

	if _, err := role.ParseMany(claims.Roles); err != nil {
		return Claims{}, ErrInvalidRole
	}

	return claims, nil
}

// Principal loads the current state of the user the claims were issued to.
// Tokens outlive role and status changes, so every request works with the
// stored user, and only active users are let through.
func (a *Auth) Principal(ctx context.Context, claims Claims) (userbus.User, error) {
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return userbus.User{}, fmt.Errorf("parsing user ID %q from claims: %w", claims.Subject, err)
	}

	usr, err := a.userBus.QueryByID(ctx, userID)
	if err != nil {
		return userbus.User{}, fmt.Errorf("query user: %w", err)
	}

	if !usr.Status.Equal(status.Active) {
		return userbus.User{}, fmt.Errorf("status[%s]: %w", usr.Status, ErrUserNotActive)
	}

	return usr, nil
}

// Login verifies the credentials of an active user.
func (a *Auth) Login(ctx context.Context, email mail.Address, password string) (userbus.User, error) {
	usr, err := a.userBus.Authenticate(ctx, email, password)
	if err != nil {
		return userbus.User{}, fmt.Errorf("invalid credentials: %w", err)
	}

	return usr, nil
}

// verifySignatureAndClaims parses the token with the public key, validates the signature, and checks the issuer claim.
func (a *Auth) verifySignatureAndClaims(tokenStr, pemStr string) error {
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemStr))
	if err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}

	var claims Claims
	token, err := a.parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return fmt.Errorf("validating token signature: %w", err)
	}

	if !token.Valid {
		return errors.New("token is invalid")
	}

	if claims.Issuer != a.issuer {
		return fmt.Errorf("invalid issuer: expected %q, got %q", a.issuer, claims.Issuer)
	}

	return nil
}

// ExtractDomain strips the port from a request host.
func ExtractDomain(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
