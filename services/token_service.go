// Copyright (C) 2025 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/inkvault-dev/inkvault/config"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/shared"
)

// SessionClaims is the claim set carried by both token kinds. It
// implements shared.AuthSession so the middleware can attach parsed
// claims to the request directly.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

func (c SessionClaims) GetUserID() string { return c.Subject }
func (c SessionClaims) GetEmail() string  { return c.Email }
func (c SessionClaims) GetName() string   { return c.Name }

// TokenService issues and verifies the access and refresh bearer
// tokens. The two kinds use distinct secrets so a refresh token can
// never pass as an access token.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService() (*TokenService, error) {
	secret := config.JWTSecret()
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not configured")
	}

	return &TokenService{
		accessSecret:  []byte(secret),
		refreshSecret: []byte(config.JWTRefreshSecret()),
		accessTTL:     config.AccessTokenTTL(),
		refreshTTL:    config.RefreshTokenTTL(),
	}, nil
}

func (s *TokenService) IssueAccessToken(user models.User) (string, error) {
	return s.issue(user, s.accessSecret, s.accessTTL)
}

func (s *TokenService) IssueRefreshToken(user models.User) (string, error) {
	return s.issue(user, s.refreshSecret, s.refreshTTL)
}

func (s *TokenService) issue(user models.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email: user.Email,
		Name:  user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) ParseAccessToken(tokenString string) (SessionClaims, error) {
	return s.parse(tokenString, s.accessSecret)
}

func (s *TokenService) ParseRefreshToken(tokenString string) (SessionClaims, error) {
	return s.parse(tokenString, s.refreshSecret)
}

func (s *TokenService) parse(tokenString string, secret []byte) (SessionClaims, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return SessionClaims{}, shared.WrapAPIError(shared.ErrorKindUnauthorized, "invalid or expired token", err)
	}
	return claims, nil
}
