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
	"context"
	"errors"
	"strings"

	"github.com/inkvault-dev/inkvault/database"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/shared"
	"gorm.io/gorm"
)

// TrustOnFirstUseVerifier accepts the first identity claimed for a user
// id and upserts profile fields on later logins. It is the placeholder
// behind the IdentityVerifier seam; a deployment that needs real
// verification swaps in an OAuth-backed implementation.
type TrustOnFirstUseVerifier struct {
	userRepo shared.UserRepository
}

func NewTrustOnFirstUseVerifier(userRepo shared.UserRepository) *TrustOnFirstUseVerifier {
	return &TrustOnFirstUseVerifier{userRepo: userRepo}
}

func (v *TrustOnFirstUseVerifier) Verify(ctx context.Context, userID, email, name string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := v.userRepo.FindByUserID(userID)
	if err == nil {
		if existing.Email != email {
			return models.User{}, shared.NewAPIError(shared.ErrorKindForbidden, "identity does not match the registered account")
		}
		if name != "" && existing.Name != name {
			existing.Name = name
			if err := v.userRepo.UpsertByUserID(nil, &existing); err != nil {
				return models.User{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not refresh profile", err)
			}
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not look up user", err)
	}

	// invited placeholders get claimed by email on first login
	if byEmail, err := v.userRepo.FindByEmail(email); err == nil {
		if !strings.HasPrefix(byEmail.UserID, "pending-") {
			return models.User{}, shared.NewAPIError(shared.ErrorKindConflict, "email is registered to another account")
		}
		byEmail.UserID = userID
		byEmail.Name = name
		if err := v.userRepo.Save(nil, &byEmail); err != nil {
			return models.User{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not claim invited account", err)
		}
		return byEmail, nil
	}

	user := models.User{UserID: userID, Email: email, Name: name}
	if err := v.userRepo.Create(nil, &user); err != nil {
		if database.IsDuplicateKeyError(err) {
			return models.User{}, shared.NewAPIError(shared.ErrorKindConflict, "account already exists")
		}
		return models.User{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not create user", err)
	}
	return user, nil
}

// LoginResult bundles what a successful login hands the client.
type LoginResult struct {
	Token        string
	RefreshToken string
	User         models.User
}

type AuthService struct {
	userRepo shared.UserRepository
	verifier shared.IdentityVerifier
	tokens   *TokenService
}

func NewAuthService(userRepo shared.UserRepository, verifier shared.IdentityVerifier, tokens *TokenService) *AuthService {
	return &AuthService{userRepo: userRepo, verifier: verifier, tokens: tokens}
}

// Login verifies the claimed identity and issues the token pair.
func (s *AuthService) Login(ctx context.Context, userID, email, name string, avatarURL *string) (LoginResult, error) {
	user, err := s.verifier.Verify(ctx, userID, email, name)
	if err != nil {
		return LoginResult{}, err
	}

	if avatarURL != nil && (user.AvatarURL == nil || *user.AvatarURL != *avatarURL) {
		user.AvatarURL = avatarURL
		if err := s.userRepo.Save(nil, &user); err != nil {
			return LoginResult{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not update profile", err)
		}
	}

	token, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return LoginResult{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not issue token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return LoginResult{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not issue refresh token", err)
	}

	return LoginResult{Token: token, RefreshToken: refresh, User: user}, nil
}

// Refresh exchanges a valid refresh token for a fresh token pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return LoginResult{}, err
	}

	user, err := s.userRepo.FindByUserID(claims.GetUserID())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoginResult{}, shared.NewAPIError(shared.ErrorKindUnauthorized, "account no longer exists")
	}
	if err != nil {
		return LoginResult{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not look up user", err)
	}

	token, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return LoginResult{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not issue token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return LoginResult{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not issue refresh token", err)
	}

	return LoginResult{Token: token, RefreshToken: refresh, User: user}, nil
}

// Me returns the profile behind a session.
func (s *AuthService) Me(userID string) (models.User, error) {
	user, err := s.userRepo.FindByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, shared.NewAPIError(shared.ErrorKindNotFound, "user not found")
	}
	if err != nil {
		return models.User{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read user", err)
	}
	return user, nil
}
