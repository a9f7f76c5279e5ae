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
	"github.com/inkvault-dev/inkvault/dtos"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
)

type AuthController struct {
	authService *services.AuthService
}

func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// @Summary Login
// @Param body body dtos.LoginRequest true "Request body"
// @Success 200 {object} dtos.LoginResponse
// @Router /auth/login [post]
func (c *AuthController) Login(ctx shared.Context) error {
	var req dtos.LoginRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	result, err := c.authService.Login(ctx.Request().Context(), req.UserID, req.Email, req.Name, req.AvatarURL)
	if err != nil {
		return err
	}

	return ctx.JSON(200, dtos.LoginResponse{
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	})
}

// @Summary Refresh token pair
// @Param body body dtos.RefreshRequest true "Request body"
// @Success 200 {object} dtos.LoginResponse
// @Router /auth/refresh [post]
func (c *AuthController) Refresh(ctx shared.Context) error {
	var req dtos.RefreshRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	result, err := c.authService.Refresh(ctx.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return ctx.JSON(200, dtos.LoginResponse{
		Token:        result.Token,
		RefreshToken: result.RefreshToken,
		User:         result.User,
	})
}

// @Summary Current user profile
// @Security ApiKeyAuth
// @Success 200 {object} models.User
// @Router /me [get]
func (c *AuthController) Me(ctx shared.Context) error {
	user, err := c.authService.Me(shared.GetSession(ctx).GetUserID())
	if err != nil {
		return err
	}
	return ctx.JSON(200, user)
}
