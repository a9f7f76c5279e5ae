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

type ProjectController struct {
	projectService *services.ProjectService
}

func NewProjectController(projectService *services.ProjectService) *ProjectController {
	return &ProjectController{projectService: projectService}
}

// @Summary Create project
// @Security ApiKeyAuth
// @Param body body dtos.ProjectCreateRequest true "Request body"
// @Success 200 {object} models.Project
// @Router /projects [post]
func (c *ProjectController) Create(ctx shared.Context) error {
	var req dtos.ProjectCreateRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	project, err := c.projectService.CreateProject(ctx.Request().Context(), actorFromContext(ctx), req.ProjectID, req.Name, req.Description)
	if err != nil {
		return err
	}
	return ctx.JSON(200, project)
}

// @Summary List projects of the current user
// @Security ApiKeyAuth
// @Success 200 {array} models.Project
// @Router /projects [get]
func (c *ProjectController) List(ctx shared.Context) error {
	projects, err := c.projectService.ListProjects(shared.GetSession(ctx).GetUserID())
	if err != nil {
		return err
	}
	return ctx.JSON(200, projects)
}

// @Summary Get project details
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Success 200 {object} models.Project
// @Router /projects/{projectID} [get]
func (c *ProjectController) Read(ctx shared.Context) error {
	// the access middleware already resolved the project
	return ctx.JSON(200, shared.GetProject(ctx))
}

// @Summary Patch project settings
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param body body dtos.ProjectSettingsPatchRequest true "Request body"
// @Success 200 {object} models.Project
// @Router /projects/{projectID}/settings [patch]
func (c *ProjectController) UpdateSettings(ctx shared.Context) error {
	var req dtos.ProjectSettingsPatchRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	project := shared.GetProject(ctx)
	settings := project.Settings
	if !req.Apply(&settings) {
		return ctx.JSON(200, project)
	}

	updated, err := c.projectService.UpdateSettings(ctx.Request().Context(), project, settings)
	if err != nil {
		return err
	}
	return ctx.JSON(200, updated)
}
