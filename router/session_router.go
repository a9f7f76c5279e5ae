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

package router

import (
	"github.com/inkvault-dev/inkvault/controllers"
	"github.com/inkvault-dev/inkvault/middlewares"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/labstack/echo/v4"
)

type SessionRouter struct {
	*echo.Group
}

// @Summary Get current user info
// @Security ApiKeyAuth
// @Success 200 {object} object{userID=string}
// @Router /whoami [get]
func whoami(ctx echo.Context) error {
	return ctx.JSON(200, map[string]string{
		"userID": shared.GetSession(ctx).GetUserID(),
	})
}

func NewSessionRouter(
	apiV1Router APIV1Router,
	tokens *services.TokenService,
	authController *controllers.AuthController,
	projectController *controllers.ProjectController,
	teamController *controllers.TeamController,
) SessionRouter {
	// login and refresh are the only routes reachable without a session
	apiV1Router.POST("/auth/login/", authController.Login)
	apiV1Router.POST("/auth/refresh/", authController.Refresh)

	sessionRouter := apiV1Router.Group.Group("", middlewares.SessionMiddleware(tokens))

	sessionRouter.GET("/whoami/", whoami)
	sessionRouter.GET("/me/", authController.Me)

	sessionRouter.GET("/projects/", projectController.List)
	sessionRouter.POST("/projects/", projectController.Create)

	sessionRouter.POST("/accept-invitation/", teamController.AcceptInvitation)

	return SessionRouter{Group: sessionRouter}
}
