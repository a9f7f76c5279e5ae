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
	"github.com/inkvault-dev/inkvault/accesscontrol"
	"github.com/inkvault-dev/inkvault/controllers"
	"github.com/inkvault-dev/inkvault/middlewares"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/labstack/echo/v4"
)

type ProjectRouter struct {
	*echo.Group
}

func NewProjectRouter(
	sessionRouter SessionRouter,
	projectService *services.ProjectService,
	resolver *accesscontrol.Resolver,
	projectController *controllers.ProjectController,
	branchController *controllers.BranchController,
	commitController *controllers.CommitController,
	mergeRequestController *controllers.MergeRequestController,
	teamController *controllers.TeamController,
	eventsController *controllers.EventsController,
) ProjectRouter {
	/**
	Project scoped router
	All routes below this line are scoped to a specific project and
	require an active membership.
	*/
	projectRouter := sessionRouter.Group.Group("/projects/:projectID",
		middlewares.ProjectAccessMiddleware(projectService, resolver),
	)

	projectRouter.GET("/", projectController.Read)
	projectRouter.GET("/events/", eventsController.Stream)

	projectRouter.GET("/branches/", branchController.List)
	projectRouter.POST("/branches/", branchController.Create)
	// branch refs are two path segments, e.g. feature/rework
	projectRouter.GET("/branches/ref/:branchType/:branchName/", branchController.Read)
	projectRouter.DELETE("/branches/ref/:branchType/:branchName/", branchController.Delete)

	projectRouter.GET("/branches/:branchID/snapshot/", branchController.GetSnapshot)
	projectRouter.PUT("/branches/:branchID/snapshot/", branchController.SaveSnapshot)
	projectRouter.POST("/branches/:branchID/checkout/", branchController.Checkout)
	projectRouter.POST("/branches/:branchID/commits/", commitController.Create)
	projectRouter.POST("/branches/:branchID/revert/", commitController.RevertToCommit)

	projectRouter.GET("/commits/", commitController.History)

	projectRouter.GET("/merge-requests/", mergeRequestController.List)
	projectRouter.POST("/merge-requests/", mergeRequestController.Create)
	projectRouter.GET("/merge-requests/:mergeRequestID/", mergeRequestController.Read)
	projectRouter.POST("/merge-requests/:mergeRequestID/review/", mergeRequestController.Review)
	projectRouter.POST("/merge-requests/:mergeRequestID/merge/", mergeRequestController.Complete)
	projectRouter.POST("/merge-requests/:mergeRequestID/revert/", mergeRequestController.Revert)

	projectRouter.GET("/members/", teamController.List)

	managerRequired := projectRouter.Group("", middlewares.RequireManager())

	managerRequired.PATCH("/settings/", projectController.UpdateSettings)
	managerRequired.POST("/members/invitations/", teamController.Invite)
	managerRequired.POST("/members/designers/", teamController.AddDesigner)
	managerRequired.PUT("/members/:userID/role/", teamController.ChangeRole)
	managerRequired.DELETE("/members/:userID/", teamController.Remove)

	return ProjectRouter{Group: projectRouter}
}
