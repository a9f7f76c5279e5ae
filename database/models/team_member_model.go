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
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleManager  Role = "manager"
	RoleDesigner Role = "designer"
)

// NormalizeRole maps the legacy role vocabulary onto the two roles the
// authorization checks actually use. Everything that was allowed to
// administrate becomes a manager, everything else a designer.
func NormalizeRole(r Role) Role {
	switch r {
	case RoleManager, "owner", "admin":
		return RoleManager
	default:
		return RoleDesigner
	}
}

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

type TeamMember struct {
	Model
	ProjectID uuid.UUID    `json:"projectId" gorm:"type:uuid;uniqueIndex:idx_team_member_project_user;not null"`
	UserID    string       `json:"userId" gorm:"type:text;uniqueIndex:idx_team_member_project_user;not null"`
	Email     string       `json:"email" gorm:"type:text;not null"`
	Role      Role         `json:"role" gorm:"type:text;not null"`
	Status    MemberStatus `json:"status" gorm:"type:text;not null;default:'pending'"`

	InvitationToken *string    `json:"-" gorm:"type:text;index"`
	InvitedAt       time.Time  `json:"invitedAt"`
	JoinedAt        *time.Time `json:"joinedAt"`
}

func (m TeamMember) TableName() string {
	return "team_members"
}
