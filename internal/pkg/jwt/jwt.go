package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Role carried in the access token.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleOwner    Role = "owner"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrCompanyIDMissing = errors.New("company id missing from token")
)

// Claims - the subset of the identity service token the engine relies on.
type Claims struct {
	UserID     string
	CompanyID  string
	EmployeeID string
	Role       Role
}

// IsManager reports whether the caller may approve on behalf of the company.
func (c Claims) IsManager() bool {
	return c.Role == RoleManager || c.Role == RoleOwner
}

type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	// GenerateAccessToken signs a token with the shared secret. Production
	// tokens come from the identity service; this is used by tests and tooling.
	GenerateAccessToken(claims Claims, ttl time.Duration) (token string, expiresAt int64, err error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, leeway time.Duration) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(leeway)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(claims Claims, ttl time.Duration) (string, int64, error) {
	expiresAt := time.Now().Add(ttl).Unix()

	payload := map[string]interface{}{
		"user_id":    claims.UserID,
		"company_id": claims.CompanyID,
		"role":       string(claims.Role),
		"type":       "access",
		"exp":        expiresAt,
	}
	if claims.EmployeeID != "" {
		payload["employee_id"] = claims.EmployeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(payload)
	return tokenString, expiresAt, err
}

// ClaimsFromContext reads the verified claims placed on ctx by jwtauth.Verifier.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	token, raw, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return Claims{}, ErrInvalidToken
	}
	if tokenType, _ := raw["type"].(string); tokenType != "access" {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		UserID:     stringClaim(raw, "user_id"),
		CompanyID:  stringClaim(raw, "company_id"),
		EmployeeID: stringClaim(raw, "employee_id"),
		Role:       Role(stringClaim(raw, "role")),
	}
	if claims.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	if claims.CompanyID == "" {
		return Claims{}, ErrCompanyIDMissing
	}
	return claims, nil
}

func stringClaim(raw map[string]interface{}, key string) string {
	v, _ := raw[key].(string)
	return v
}
