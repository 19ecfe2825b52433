package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/iuhaa-wishery/wishery-crm-sub000/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrMissingToken = errors.New("missing or invalid access token")
	ErrInvalidClaim = errors.New("access token carries invalid claims")
)

// Actor is the verified identity behind a request.
type Actor struct {
	UserID string
	Role   user.Role
}

// Can reports whether the actor's role grants permission.
func (a Actor) Can(permission user.Permission) bool {
	return user.HasPermission(a.Role, permission)
}

type Service interface {
	GenerateAccessToken(userID string, role user.Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, role user.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"role":    string(role),
		"type":    "access",
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

// ActorFromContext reads the actor from a token verified by jwtauth.Verifier.
func ActorFromContext(ctx context.Context) (Actor, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return Actor{}, ErrMissingToken
	}

	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return Actor{}, ErrMissingToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Actor{}, ErrInvalidClaim
	}

	role := user.Role(stringClaim(claims, "role"))
	if !role.IsValid() {
		return Actor{}, ErrInvalidClaim
	}

	return Actor{UserID: userID, Role: role}, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}
