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

	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/dtos"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/labstack/echo/v4"
)

type MergeRequestController struct {
	mergeRequestService *services.MergeRequestService
}

func NewMergeRequestController(mergeRequestService *services.MergeRequestService) *MergeRequestController {
	return &MergeRequestController{mergeRequestService: mergeRequestService}
}

func mergeRequestIDParam(ctx shared.Context) (int, error) {
	id, err := strconv.Atoi(shared.GetParam(ctx, "mergeRequestID"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(400, "invalid merge request id")
	}
	return id, nil
}

// @Summary List merge requests of a project
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param status query string false "Filter by status"
// @Success 200 {array} models.MergeRequest
// @Router /projects/{projectID}/merge-requests [get]
func (c *MergeRequestController) List(ctx shared.Context) error {
	var status *models.MergeRequestStatus
	if s := ctx.QueryParam("status"); s != "" {
		parsed := models.MergeRequestStatus(s)
		status = &parsed
	}

	mrs, err := c.mergeRequestService.List(shared.GetProject(ctx), status)
	if err != nil {
		return err
	}
	return ctx.JSON(200, mrs)
}

// @Summary Get a merge request by its sequence number
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param mergeRequestID path int true "Merge request sequence number"
// @Success 200 {object} models.MergeRequest
// @Router /projects/{projectID}/merge-requests/{mergeRequestID} [get]
func (c *MergeRequestController) Read(ctx shared.Context) error {
	id, err := mergeRequestIDParam(ctx)
	if err != nil {
		return err
	}
	mr, err := c.mergeRequestService.Get(shared.GetProject(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(200, mr)
}

// @Summary Open a merge request
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param body body dtos.MergeRequestCreateRequest true "Request body"
// @Success 200 {object} models.MergeRequest
// @Router /projects/{projectID}/merge-requests [post]
func (c *MergeRequestController) Create(ctx shared.Context) error {
	var req dtos.MergeRequestCreateRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	mr, err := c.mergeRequestService.Create(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), req.SourceBranch, req.TargetBranch, req.Title, req.Description)
	if err != nil {
		return err
	}
	return ctx.JSON(200, mr)
}

// @Summary Submit a review decision
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param mergeRequestID path int true "Merge request sequence number"
// @Param body body dtos.ReviewRequest true "Request body"
// @Success 200 {object} models.MergeRequest
// @Router /projects/{projectID}/merge-requests/{mergeRequestID}/review [post]
func (c *MergeRequestController) Review(ctx shared.Context) error {
	id, err := mergeRequestIDParam(ctx)
	if err != nil {
		return err
	}
	var req dtos.ReviewRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	mr, err := c.mergeRequestService.Review(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), id, models.ReviewerStatus(req.Decision), req.Comment)
	if err != nil {
		return err
	}
	return ctx.JSON(200, mr)
}

// @Summary Merge the source branch into the target branch
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param mergeRequestID path int true "Merge request sequence number"
// @Success 200 {object} models.MergeRequest
// @Router /projects/{projectID}/merge-requests/{mergeRequestID}/merge [post]
func (c *MergeRequestController) Complete(ctx shared.Context) error {
	id, err := mergeRequestIDParam(ctx)
	if err != nil {
		return err
	}
	mr, err := c.mergeRequestService.CompleteMerge(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(200, mr)
}

// @Summary Revert a completed merge
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param mergeRequestID path int true "Merge request sequence number"
// @Success 200 {object} models.MergeRequest
// @Router /projects/{projectID}/merge-requests/{mergeRequestID}/revert [post]
func (c *MergeRequestController) Revert(ctx shared.Context) error {
	id, err := mergeRequestIDParam(ctx)
	if err != nil {
		return err
	}
	mr, err := c.mergeRequestService.RevertMerge(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(200, mr)
}
