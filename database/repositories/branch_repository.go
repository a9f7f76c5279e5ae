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

type branchRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Branch]
}

func NewBranchRepository(db *gorm.DB) *branchRepository {
	return &branchRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Branch](db),
	}
}

// FindActiveByName resolves a branch by its full name, excluding soft-deleted rows.
func (r *branchRepository) FindActiveByName(projectID uuid.UUID, name string) (models.Branch, error) {
	var branch models.Branch
	err := r.db.First(&branch, "project_id = ? AND name = ? AND status <> ?",
		projectID, name, models.BranchStatusDeleted).Error
	return branch, err
}

func (r *branchRepository) FindPrimary(projectID uuid.UUID) (models.Branch, error) {
	var branch models.Branch
	err := r.db.First(&branch, "project_id = ? AND is_primary = true", projectID).Error
	return branch, err
}

func (r *branchRepository) ListByProject(projectID uuid.UUID) ([]models.Branch, error) {
	var branches []models.Branch
	err := r.db.Where("project_id = ? AND status <> ?", projectID, models.BranchStatusDeleted).
		Order("created_at ASC").Find(&branches).Error
	return branches, err
}
