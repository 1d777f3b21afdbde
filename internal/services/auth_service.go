package services

import (
	"referral-chat/internal/config"
	referral_errors "referral-chat/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService only verifies access tokens issued by the platform's identity
// service. Registration, login, and session storage live outside this
// subsystem; the messaging core trusts the userId carried by the token.
type AuthService struct {
	jwtSecret []byte
}

func NewAuthService(cfg config.AuthConfig) *AuthService {
	return &AuthService{jwtSecret: []byte(cfg.JWTSecret)}
}

type AccessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, referral_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, referral_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, referral_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok {
		return AccessClaims{}, referral_errors.ErrUnauthorized
	}
	return *claims, nil
}
