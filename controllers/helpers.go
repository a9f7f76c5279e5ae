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
	"fmt"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the request body into req and runs the shared
// validator over it.
func bindAndValidate(ctx shared.Context, req any) error {
	if err := ctx.Bind(req); err != nil {
		return echo.NewHTTPError(400, "unable to process request").WithInternal(err)
	}
	if err := shared.V.Struct(req); err != nil {
		return echo.NewHTTPError(400, fmt.Sprintf("could not validate request: %s", err.Error()))
	}
	return nil
}

// actorFromContext assembles the acting principal from the session and,
// when the route is project scoped, the resolved project role.
func actorFromContext(ctx shared.Context) services.Actor {
	session := shared.GetSession(ctx)
	return services.Actor{
		UserID: session.GetUserID(),
		Email:  session.GetEmail(),
		Name:   session.GetName(),
	}
}

// projectActor is actorFromContext plus the project role the access
// middleware resolved.
func projectActor(ctx shared.Context) services.Actor {
	actor := actorFromContext(ctx)
	actor.Role = shared.GetProjectRole(ctx)
	return actor
}

func branchIDParam(ctx shared.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(shared.GetParam(ctx, "branchID"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(400, "invalid branch id").WithInternal(err)
	}
	return id, nil
}
