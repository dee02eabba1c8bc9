package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service issues and verifies the access tokens the API expects. Identity is
// managed elsewhere; the payroll engine only needs the actor's id and role
// out of the token.
type Service interface {
	GenerateAccessToken(userID, email, role string) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type jwtService struct {
	expiration time.Duration
	tokenAuth  *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &jwtService{
		expiration: 15 * time.Minute,
		tokenAuth:  jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *jwtService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *jwtService) GenerateAccessToken(userID, email, role string) (string, int64, error) {
	expiresAt := time.Now().Add(j.expiration).Unix()

	claims := map[string]interface{}{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"type":    "access",
		"exp":     expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, err
	}
	return tokenString, expiresAt, nil
}
