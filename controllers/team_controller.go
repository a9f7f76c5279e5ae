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
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/dtos"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/labstack/echo/v4"
)

type TeamController struct {
	teamService *services.TeamService
}

func NewTeamController(teamService *services.TeamService) *TeamController {
	return &TeamController{teamService: teamService}
}

// @Summary List team members
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Success 200 {array} models.TeamMember
// @Router /projects/{projectID}/members [get]
func (c *TeamController) List(ctx shared.Context) error {
	members, err := c.teamService.List(shared.GetProject(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(200, members)
}

// @Summary Invite a member by email
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param body body dtos.InviteMemberRequest true "Request body"
// @Success 200 {object} models.TeamMember
// @Router /projects/{projectID}/members/invitations [post]
func (c *TeamController) Invite(ctx shared.Context) error {
	var req dtos.InviteMemberRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	member, err := c.teamService.Invite(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), req.Email, models.Role(req.Role))
	if err != nil {
		return err
	}
	return ctx.JSON(200, member)
}

// @Summary Accept an invitation token
// @Security ApiKeyAuth
// @Param body body dtos.AcceptInvitationRequest true "Request body"
// @Success 200 {object} models.TeamMember
// @Router /accept-invitation [post]
func (c *TeamController) AcceptInvitation(ctx shared.Context) error {
	var req dtos.AcceptInvitationRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	member, err := c.teamService.AcceptInvitation(ctx.Request().Context(), actorFromContext(ctx), req.Token)
	if err != nil {
		return err
	}
	return ctx.JSON(200, member)
}

// @Summary Change the role of a member
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param userID path string true "User id of the member"
// @Param body body dtos.ChangeMemberRoleRequest true "Request body"
// @Success 200 {object} models.TeamMember
// @Router /projects/{projectID}/members/{userID}/role [put]
func (c *TeamController) ChangeRole(ctx shared.Context) error {
	userID := shared.GetParam(ctx, "userID")
	if userID == "" {
		return echo.NewHTTPError(400, "missing user id")
	}
	var req dtos.ChangeMemberRoleRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	member, err := c.teamService.UpdateMemberRole(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), userID, models.Role(req.Role))
	if err != nil {
		return err
	}
	return ctx.JSON(200, member)
}

// @Summary Remove a member from the project
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param userID path string true "User id of the member"
// @Success 200
// @Router /projects/{projectID}/members/{userID} [delete]
func (c *TeamController) Remove(ctx shared.Context) error {
	userID := shared.GetParam(ctx, "userID")
	if userID == "" {
		return echo.NewHTTPError(400, "missing user id")
	}
	if err := c.teamService.RemoveMember(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), userID); err != nil {
		return err
	}
	return ctx.NoContent(200)
}

// @Summary Add a designer directly, without the invitation flow
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Param body body dtos.AddDesignerRequest true "Request body"
// @Success 200 {object} models.TeamMember
// @Router /projects/{projectID}/members/designers [post]
func (c *TeamController) AddDesigner(ctx shared.Context) error {
	var req dtos.AddDesignerRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}

	member, err := c.teamService.AddDesigner(ctx.Request().Context(), shared.GetProject(ctx), projectActor(ctx), req.Name, req.Email)
	if err != nil {
		return err
	}
	return ctx.JSON(200, member)
}
