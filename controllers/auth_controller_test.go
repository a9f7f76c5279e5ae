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

package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/dtos"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubUserRepo is the only repository the auth stack needs.
type stubUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

var _ shared.UserRepository = (*stubUserRepo)(nil)

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[uuid.UUID]models.User{}}
}

func (f *stubUserRepo) Create(tx *gorm.DB, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = *u
	return nil
}

func (f *stubUserRepo) Read(id uuid.UUID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *stubUserRepo) Update(tx *gorm.DB, u *models.User) error { return f.Save(tx, u) }

func (f *stubUserRepo) Save(tx *gorm.DB, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = *u
	return nil
}

func (f *stubUserRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
	return nil
}

func (f *stubUserRepo) All() ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *stubUserRepo) Transaction(fn func(tx *gorm.DB) error) error { return fn(nil) }

func (f *stubUserRepo) GetDB(tx *gorm.DB) *gorm.DB { return tx }

func (f *stubUserRepo) FindByUserID(userID string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *stubUserRepo) FindByEmail(email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (f *stubUserRepo) UpsertByUserID(tx *gorm.DB, u *models.User) error {
	if existing, err := f.FindByUserID(u.UserID); err == nil {
		u.ID = existing.ID
		return f.Save(tx, u)
	}
	return f.Create(tx, u)
}

func newAuthController(t *testing.T) *AuthController {
	t.Helper()
	t.Setenv("JWT_SECRET", "controller-test-secret")

	tokens, err := services.NewTokenService()
	require.NoError(t, err)

	userRepo := newStubUserRepo()
	return NewAuthController(services.NewAuthService(userRepo, services.NewTrustOnFirstUseVerifier(userRepo), tokens))
}

func TestAuthControllerLogin(t *testing.T) {
	controller := newAuthController(t)

	t.Run("returns a token pair for a fresh identity", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/auth/login/", strings.NewReader(`{"userId": "u-mira", "email": "mira@example.com", "name": "Mira"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		ctx := echo.New().NewContext(req, rec)

		require.NoError(t, controller.Login(ctx))
		assert.Equal(t, 200, rec.Code)

		var resp dtos.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.NotEqual(t, resp.Token, resp.RefreshToken)
		assert.Equal(t, "u-mira", resp.User.UserID)
		assert.Equal(t, "mira@example.com", resp.User.Email)
	})

	t.Run("rejects a body without an email", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/auth/login/", strings.NewReader(`{"userId": "u-mira", "name": "Mira"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		ctx := echo.New().NewContext(req, rec)

		err := controller.Login(ctx)
		var he *echo.HTTPError
		assert.ErrorAs(t, err, &he)
		assert.Equal(t, 400, he.Code)
	})
}

func TestAuthControllerRefresh(t *testing.T) {
	controller := newAuthController(t)

	req := httptest.NewRequest("POST", "/auth/login/", strings.NewReader(`{"userId": "u-mira", "email": "mira@example.com", "name": "Mira"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, controller.Login(echo.New().NewContext(req, rec)))

	var login dtos.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	t.Run("exchanges a refresh token for a new pair", func(t *testing.T) {
		body, _ := json.Marshal(dtos.RefreshRequest{RefreshToken: login.RefreshToken})
		req := httptest.NewRequest("POST", "/auth/refresh/", strings.NewReader(string(body)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		ctx := echo.New().NewContext(req, rec)

		require.NoError(t, controller.Refresh(ctx))
		assert.Equal(t, 200, rec.Code)

		var resp dtos.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "u-mira", resp.User.UserID)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/auth/refresh/", strings.NewReader(`{"refreshToken": "garbage"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		ctx := echo.New().NewContext(req, rec)

		err := controller.Refresh(ctx)
		assert.Equal(t, shared.ErrorKindUnauthorized, shared.ErrorKindOf(err))
	})
}

func TestAuthControllerMe(t *testing.T) {
	controller := newAuthController(t)

	req := httptest.NewRequest("POST", "/auth/login/", strings.NewReader(`{"userId": "u-mira", "email": "mira@example.com", "name": "Mira"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, controller.Login(echo.New().NewContext(req, rec)))

	claims := services.SessionClaims{}
	claims.Subject = "u-mira"

	meReq := httptest.NewRequest("GET", "/me/", nil)
	meRec := httptest.NewRecorder()
	ctx := echo.New().NewContext(meReq, meRec)
	shared.SetSession(ctx, claims)

	require.NoError(t, controller.Me(ctx))
	assert.Equal(t, 200, meRec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(meRec.Body.Bytes(), &user))
	assert.Equal(t, "mira@example.com", user.Email)
}
