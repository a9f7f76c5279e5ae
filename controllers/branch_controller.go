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

	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/dtos"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
)

type BranchController struct {
	branchService *services.BranchService
}

func NewBranchController(branchService *services.BranchService) *BranchController {
	return &BranchController{branchService: branchService}
}

// @Summary List branches of a project
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Success 200 {array} models.Branch
// @Router /projects/{projectID}/branches [get]
func (c *BranchController) List(ctx shared.Context) error {
	branches, err := c.branchService.List(shared.GetProject(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(200, branches)
}

// @Summary Get a branch by its ref
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param branchType path string true "Branch type"
// @Param branchName path string true "Branch name"
// @Success 200 {object} models.Branch
// @Router /projects/{projectID}/branches/{branchType}/{branchName} [get]
func (c *BranchController) Read(ctx shared.Context) error {
	ref, err := shared.GetBranchRef(ctx)
	if err != nil {
		return err
	}
	branch, err := c.branchService.Get(shared.GetProject(ctx), ref)
	if err != nil {
		return err
	}
	return ctx.JSON(200, branch)
}

// @Summary Create a branch
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param body body dtos.BranchCreateRequest true "Request body"
// @Success 200 {object} models.Branch
// @Router /projects/{projectID}/branches [post]
func (c *BranchController) Create(ctx shared.Context) error {
	var req dtos.BranchCreateRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	branch, err := c.branchService.Create(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), req.Name, models.BranchType(req.Type), req.BaseBranch)
	if err != nil {
		return err
	}
	return ctx.JSON(200, branch)
}

// @Summary Delete a branch
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param branchType path string true "Branch type"
// @Param branchName path string true "Branch name"
// @Success 200
// @Router /projects/{projectID}/branches/{branchType}/{branchName} [delete]
func (c *BranchController) Delete(ctx shared.Context) error {
	ref, err := shared.GetBranchRef(ctx)
	if err != nil {
		return err
	}
	if err := c.branchService.Delete(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), ref); err != nil {
		return err
	}
	return ctx.NoContent(200)
}

// @Summary Read the working snapshot of a branch
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param branchID path string true "Branch id"
// @Success 200 {object} object
// @Router /projects/{projectID}/branches/{branchID}/snapshot [get]
func (c *BranchController) GetSnapshot(ctx shared.Context) error {
	branchID, err := branchIDParam(ctx)
	if err != nil {
		return err
	}
	snapshot, err := c.branchService.GetSnapshot(ctx.Request().Context(), shared.GetProject(ctx), branchID)
	if err != nil {
		return err
	}
	return ctx.JSONBlob(200, snapshot)
}

// @Summary Save the working snapshot of a branch
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param branchID path string true "Branch id"
// @Param body body dtos.SnapshotSaveRequest true "Request body"
// @Success 200
// @Router /projects/{projectID}/branches/{branchID}/snapshot [put]
func (c *BranchController) SaveSnapshot(ctx shared.Context) error {
	branchID, err := branchIDParam(ctx)
	if err != nil {
		return err
	}
	var req dtos.SnapshotSaveRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}
	if err := c.branchService.SaveSnapshot(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), branchID, req.Snapshot); err != nil {
		return err
	}
	return ctx.NoContent(200)
}

// @Summary Switch the working copy to a branch
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param branchID path string true "Branch id"
// @Param body body dtos.CheckoutRequest true "Request body"
// @Success 200 {object} dtos.CheckoutResponse
// @Router /projects/{projectID}/branches/{branchID}/checkout [post]
func (c *BranchController) Checkout(ctx shared.Context) error {
	branchID, err := branchIDParam(ctx)
	if err != nil {
		return err
	}
	var req dtos.CheckoutRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	result, err := c.branchService.Checkout(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), req.SourceBranchID, branchID, req.CurrentSnapshot)
	if err != nil {
		return err
	}
	return ctx.JSON(200, dtos.CheckoutResponse{
		Branch:      result.Branch,
		Snapshot:    json.RawMessage(result.Snapshot),
		HasSnapshot: result.HasSnapshot,
		Path:        result.Path,
	})
}
