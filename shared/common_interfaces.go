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
	"context"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/utils"
)

type ProjectRepository interface {
	utils.Repository[uuid.UUID, models.Project, DB]
	ReadByProjectID(projectID string) (models.Project, error)
	ListByMember(userID string) ([]models.Project, error)
}

type UserRepository interface {
	utils.Repository[uuid.UUID, models.User, DB]
	FindByUserID(userID string) (models.User, error)
	FindByEmail(email string) (models.User, error)
	UpsertByUserID(tx DB, user *models.User) error
}

type TeamMemberRepository interface {
	utils.Repository[uuid.UUID, models.TeamMember, DB]
	FindMember(projectID uuid.UUID, userID string) (models.TeamMember, error)
	ListByProject(projectID uuid.UUID) ([]models.TeamMember, error)
	ListActive(projectID uuid.UUID) ([]models.TeamMember, error)
	FindByInvitationToken(token string) (models.TeamMember, error)
	CountActiveManagers(projectID uuid.UUID) (int64, error)
}

type BranchRepository interface {
	utils.Repository[uuid.UUID, models.Branch, DB]
	FindActiveByName(projectID uuid.UUID, name string) (models.Branch, error)
	FindPrimary(projectID uuid.UUID) (models.Branch, error)
	ListByProject(projectID uuid.UUID) ([]models.Branch, error)
}

type CommitRepository interface {
	utils.Repository[uuid.UUID, models.Commit, DB]
	FindByHash(hash string) (models.Commit, error)
	ListByBranch(branchID uuid.UUID, limit int) ([]models.Commit, error)
	ListByProject(projectID uuid.UUID, limit int) ([]models.Commit, error)
}

type MergeRequestRepository interface {
	utils.Repository[uuid.UUID, models.MergeRequest, DB]
	NextSequence(projectID uuid.UUID) (int, error)
	FindBySequence(projectID uuid.UUID, mergeRequestID int) (models.MergeRequest, error)
	ListByProject(projectID uuid.UUID, status *models.MergeRequestStatus) ([]models.MergeRequest, error)
	ExistsOpenForSource(projectID uuid.UUID, sourceBranch string) (bool, error)
}

// Notifier sends transactional mail. All methods are fire and forget;
// the callers log failures and move on. Implementations live in the
// mail package.
type Notifier interface {
	SendInvitation(ctx context.Context, to, projectName, token string) error
	SendMergeRequestCreated(ctx context.Context, to, projectName, title string) error
	SendMergeRequestApproved(ctx context.Context, to, projectName, title string) error
	SendChangesRequested(ctx context.Context, to, projectName, title, comment string) error
}

// IdentityVerifier checks a claimed identity during login. The default
// implementation trusts the first claim for a given user id and rejects
// later claims that do not match.
type IdentityVerifier interface {
	Verify(ctx context.Context, userID, email, name string) (models.User, error)
}
