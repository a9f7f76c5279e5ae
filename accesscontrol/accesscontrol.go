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

// Package accesscontrol resolves what an actor may do inside a project.
// Membership is the single source of truth; a request without an active
// team member record gets nothing.
package accesscontrol

import (
	"errors"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/shared"
	"gorm.io/gorm"
)

type Resolver struct {
	members shared.TeamMemberRepository
}

func NewResolver(members shared.TeamMemberRepository) *Resolver {
	return &Resolver{members: members}
}

// ActiveRole returns the actor's role in the project. Missing or
// non-active memberships yield FORBIDDEN.
func (r *Resolver) ActiveRole(projectID uuid.UUID, userID string) (models.Role, error) {
	member, err := r.members.FindMember(projectID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", shared.NewAPIError(shared.ErrorKindForbidden, "not a member of this project")
	}
	if err != nil {
		return "", shared.WrapAPIError(shared.ErrorKindInternal, "could not resolve project membership", err)
	}
	if member.Status != models.MemberStatusActive {
		return "", shared.NewAPIError(shared.ErrorKindForbidden, "membership is not active")
	}
	return models.NormalizeRole(member.Role), nil
}

// IsManager is the role predicate for manager-gated operations.
func IsManager(role models.Role) bool {
	return role == models.RoleManager
}

// CanReview holds for every active member role that may sit on a
// reviewer list.
func CanReview(role models.Role) bool {
	return role == models.RoleManager || role == models.RoleDesigner
}

// CanWriteBranch is the single branch write policy: the branch owner, a
// manager, or anyone on a primary branch. Checkout saves and snapshot
// saves both go through it.
func CanWriteBranch(branch models.Branch, userID string, role models.Role) bool {
	if branch.IsPrimary {
		return true
	}
	if IsManager(role) {
		return true
	}
	return branch.CreatedBy == userID
}
