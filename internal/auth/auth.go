package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"room-turnover-backend/internal/model"
	"room-turnover-backend/internal/store"
)

var (
	// ErrInvalidCredentials is returned for any bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for missing, malformed or badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for well-formed tokens past their expiry.
	ErrExpiredToken = errors.New("expired token")
)

const issuer = "room-turnover"

// dummyHash is compared against when the email is unknown, so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// OperatorFinder looks operators up by email.
type OperatorFinder interface {
	FindOperatorByEmail(ctx context.Context, email string) (model.Operator, error)
}

// Claims are the JWT claims carried by an access token.
type Claims struct {
	OperatorID int64  `json:"operator_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Gate authenticates operators and verifies their tokens.
type Gate struct {
	operators OperatorFinder
	secret    []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewGate creates a Gate signing HS256 tokens valid for ttl.
func NewGate(operators OperatorFinder, secret string, ttl time.Duration) *Gate {
	return &Gate{
		operators: operators,
		secret:    []byte(secret),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Authenticate checks an email/password pair and issues a token for the operator.
func (g *Gate) Authenticate(ctx context.Context, email, password string) (string, model.Operator, error) {
	op, err := g.operators.FindOperatorByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return "", model.Operator{}, err
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", model.Operator{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", model.Operator{}, ErrInvalidCredentials
	}

	token, err := g.Issue(op)
	if err != nil {
		return "", model.Operator{}, err
	}
	return token, op, nil
}

// Issue signs a token for op.
func (g *Gate) Issue(op model.Operator) (string, error) {
	now := g.now()
	claims := Claims{
		OperatorID: op.ID,
		Email:      op.Email,
		Role:       op.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(op.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authorize validates the signature and expiry of a token.
func (g *Gate) Authorize(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.OperatorID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
