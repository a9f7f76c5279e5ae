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

package shared

import (
	"fmt"

	"github.com/inkvault-dev/inkvault/database/models"
)

// AuthSession is the authenticated principal attached to a request by the
// session middleware.
type AuthSession interface {
	GetUserID() string
	GetEmail() string
	GetName() string
}

func GetSession(ctx Context) AuthSession {
	return ctx.Get("session").(AuthSession)
}

func SetSession(ctx Context, session AuthSession) {
	ctx.Set("session", session)
}

func HasSession(ctx Context) bool {
	_, ok := ctx.Get("session").(AuthSession)
	return ok
}

func GetParam(ctx Context, param string) string {
	v := ctx.Param(param)
	if v == "" {
		fallback := ctx.Get(param)
		if fallback == nil {
			return ""
		}
		return fallback.(string)
	}
	return v
}

// GetProjectID returns the external project identifier from the route.
func GetProjectID(ctx Context) (string, error) {
	projectID := GetParam(ctx, "projectID")
	if projectID == "" {
		return "", fmt.Errorf("could not get project id")
	}
	return projectID, nil
}

func SetProject(ctx Context, project models.Project) {
	ctx.Set("project", project)
}

func GetProject(ctx Context) models.Project {
	return ctx.Get("project").(models.Project)
}

func HasProject(ctx Context) bool {
	_, ok := ctx.Get("project").(models.Project)
	return ok
}

func SetProjectRole(ctx Context, role models.Role) {
	ctx.Set("projectRole", role)
}

func GetProjectRole(ctx Context) models.Role {
	return ctx.Get("projectRole").(models.Role)
}

// BranchRef assembles the two path segments of a branch route into the
// full branch name, e.g. "feature/login-flow".
func GetBranchRef(ctx Context) (string, error) {
	branchType := GetParam(ctx, "branchType")
	branchName := GetParam(ctx, "branchName")
	if branchType == "" || branchName == "" {
		return "", fmt.Errorf("could not get branch reference")
	}
	return branchType + "/" + branchName, nil
}
