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
	"strconv"

	"github.com/inkvault-dev/inkvault/dtos"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/labstack/echo/v4"
)

type CommitController struct {
	commitService *services.CommitService
}

func NewCommitController(commitService *services.CommitService) *CommitController {
	return &CommitController{commitService: commitService}
}

// @Summary Commit history
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param branch query string false "Restrict to a single branch"
// @Param limit query int false "Maximum number of commits"
// @Success 200 {array} models.Commit
// @Router /projects/{projectID}/commits [get]
func (c *CommitController) History(ctx shared.Context) error {
	var branchName *string
	if b := ctx.QueryParam("branch"); b != "" {
		branchName = &b
	}

	limit := 0
	if l := ctx.QueryParam("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(400, "invalid limit")
		}
		limit = parsed
	}

	commits, err := c.commitService.History(shared.GetProject(ctx), branchName, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(200, commits)
}

// @Summary Create a commit on a branch
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param branchID path string true "Branch id"
// @Param body body dtos.CommitCreateRequest true "Request body"
// @Success 200 {object} models.Commit
// @Router /projects/{projectID}/branches/{branchID}/commits [post]
func (c *CommitController) Create(ctx shared.Context) error {
	branchID, err := branchIDParam(ctx)
	if err != nil {
		return err
	}
	var req dtos.CommitCreateRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	commit, err := c.commitService.Create(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), branchID, req.Message, req.Snapshot, req.Changes)
	if err != nil {
		return err
	}
	return ctx.JSON(200, commit)
}

// @Summary Revert a branch to an earlier commit
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param branchID path string true "Branch id"
// @Param body body dtos.RevertToCommitRequest true "Request body"
// @Success 200 {object} models.Commit
// @Router /projects/{projectID}/branches/{branchID}/revert [post]
func (c *CommitController) RevertToCommit(ctx shared.Context) error {
	branchID, err := branchIDParam(ctx)
	if err != nil {
		return err
	}
	var req dtos.RevertToCommitRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	commit, err := c.commitService.RevertToCommit(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), branchID, req.CommitHash)
	if err != nil {
		return err
	}
	return ctx.JSON(200, commit)
}
