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

type projectRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Project]
}

func NewProjectRepository(db *gorm.DB) *projectRepository {
	return &projectRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Project](db),
	}
}

// ReadByProjectID resolves the external stable identifier clients use.
func (r *projectRepository) ReadByProjectID(projectID string) (models.Project, error) {
	var project models.Project
	err := r.db.First(&project, "project_id = ?", projectID).Error
	return project, err
}

func (r *projectRepository) ListByMember(userID string) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.
		Joins("JOIN team_members ON team_members.project_id = projects.id").
		Where("team_members.user_id = ? AND team_members.status = ?", userID, models.MemberStatusActive).
		Find(&projects).Error
	return projects, err
}
