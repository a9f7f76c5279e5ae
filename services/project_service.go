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

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/inkvault-dev/inkvault/database"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/shared"
	"gorm.io/gorm"
)

// Actor is the resolved principal a service operation runs as. Role is
// only populated for operations scoped to a project.
type Actor struct {
	UserID string
	Email  string
	Name   string
	Role   models.Role
}

func (a Actor) IsManager() bool {
	return a.Role == models.RoleManager
}

type ProjectService struct {
	projectRepo shared.ProjectRepository
	branchRepo  shared.BranchRepository
	memberRepo  shared.TeamMemberRepository
	events      *EventPublisher
}

func NewProjectService(projectRepo shared.ProjectRepository, branchRepo shared.BranchRepository, memberRepo shared.TeamMemberRepository, events *EventPublisher) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		branchRepo:  branchRepo,
		memberRepo:  memberRepo,
		events:      events,
	}
}

// CreateProject creates the project, makes the creator its active
// manager and seeds the primary main branch, all in one transaction.
func (s *ProjectService) CreateProject(ctx context.Context, actor Actor, projectID, name, description string) (models.Project, error) {
	project := models.Project{
		ProjectID:   projectID,
		Name:        name,
		Description: description,
		OwnerID:     actor.UserID,
		Settings:    models.DefaultProjectSettings(),
	}

	now := time.Now()
	err := s.projectRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.projectRepo.Create(tx, &project); err != nil {
			return err
		}

		member := models.TeamMember{
			ProjectID: project.ID,
			UserID:    actor.UserID,
			Email:     actor.Email,
			Role:      models.RoleManager,
			Status:    models.MemberStatusActive,
			InvitedAt: now,
			JoinedAt:  &now,
		}
		if err := s.memberRepo.Create(tx, &member); err != nil {
			return err
		}

		primary := models.Branch{
			ProjectID:  project.ID,
			Name:       "main",
			Type:       models.BranchTypeMain,
			BaseBranch: "main",
			CreatedBy:  actor.UserID,
			IsPrimary:  true,
			Status:     models.BranchStatusActive,
		}
		return s.branchRepo.Create(tx, &primary)
	})

	if database.IsDuplicateKeyError(err) {
		return models.Project{}, shared.NewAPIError(shared.ErrorKindConflict, "a project with this id already exists")
	}
	if err != nil {
		return models.Project{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not create project", err)
	}

	slog.Info("project created", "projectID", projectID, "owner", actor.UserID)
	return project, nil
}

func (s *ProjectService) GetProject(projectID string) (models.Project, error) {
	project, err := s.projectRepo.ReadByProjectID(projectID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Project{}, shared.NewAPIError(shared.ErrorKindNotFound, "project not found")
	}
	if err != nil {
		return models.Project{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read project", err)
	}
	return project, nil
}

func (s *ProjectService) ListProjects(userID string) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByMember(userID)
	if err != nil {
		return nil, shared.WrapAPIError(shared.ErrorKindInternal, "could not list projects", err)
	}
	return projects, nil
}

// UpdateSettings replaces the project settings. minReviews may be zero;
// an open merge request then flips to approved before anyone acts, which
// is the configured behavior, not a bug.
func (s *ProjectService) UpdateSettings(ctx context.Context, project models.Project, settings models.ProjectSettings) (models.Project, error) {
	if settings.BranchProtection.MinReviews < 0 {
		return models.Project{}, shared.NewAPIError(shared.ErrorKindValidation, "minReviews must not be negative")
	}

	project.Settings = settings
	if err := s.projectRepo.Save(nil, &project); err != nil {
		return models.Project{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not update project settings", err)
	}
	return project, nil
}
