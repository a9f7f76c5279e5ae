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

package middlewares

import (
	"log/slog"

	"github.com/inkvault-dev/inkvault/accesscontrol"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/labstack/echo/v4"
)

// ProjectAccessMiddleware resolves the project from the :projectID route
// param, checks the caller's membership and attaches both the project
// and the caller's role to the context. Non-members get a 404 so the
// endpoint does not leak which project identifiers exist.
func ProjectAccessMiddleware(projectService *services.ProjectService, resolver *accesscontrol.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			projectID, err := shared.GetProjectID(ctx)
			if err != nil {
				return echo.NewHTTPError(400, "invalid project id").WithInternal(err)
			}

			project, err := projectService.GetProject(projectID)
			if err != nil {
				return echo.NewHTTPError(404, "could not find project").WithInternal(err)
			}

			user := shared.GetSession(ctx).GetUserID()
			role, err := resolver.ActiveRole(project.ID, user)
			if err != nil {
				slog.Warn("access denied in ProjectAccessMiddleware", "user", user, "project", projectID)
				return echo.NewHTTPError(404, "could not find project").WithInternal(err)
			}

			shared.SetProject(ctx, project)
			shared.SetProjectRole(ctx, role)
			return next(ctx)
		}
	}
}

// RequireManager gates an already project-scoped route to managers.
func RequireManager() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			role := shared.GetProjectRole(ctx)
			if !accesscontrol.IsManager(role) {
				user := shared.GetSession(ctx).GetUserID()
				slog.Warn("access denied in RequireManager", "user", user, "role", role)
				return echo.NewHTTPError(403, "only managers may perform this operation")
			}
			return next(ctx)
		}
	}
}
