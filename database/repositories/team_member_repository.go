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

package repositories

import (
	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/database/models"
	"gorm.io/gorm"
)

type teamMemberRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.TeamMember]
}

func NewTeamMemberRepository(db *gorm.DB) *teamMemberRepository {
	return &teamMemberRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.TeamMember](db),
	}
}

func (r *teamMemberRepository) FindMember(projectID uuid.UUID, userID string) (models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.First(&member, "project_id = ? AND user_id = ?", projectID, userID).Error
	return member, err
}

func (r *teamMemberRepository) ListByProject(projectID uuid.UUID) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&members).Error
	return members, err
}

func (r *teamMemberRepository) ListActive(projectID uuid.UUID) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.Where("project_id = ? AND status = ?", projectID, models.MemberStatusActive).
		Order("created_at ASC").Find(&members).Error
	return members, err
}

func (r *teamMemberRepository) FindByInvitationToken(token string) (models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.First(&member, "invitation_token = ?", token).Error
	return member, err
}

func (r *teamMemberRepository) CountActiveManagers(projectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Model(&models.TeamMember{}).
		Where("project_id = ? AND status = ? AND role = ?", projectID, models.MemberStatusActive, models.RoleManager).
		Count(&count).Error
	return count, err
}
