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

type commitRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.Commit]
}

func NewCommitRepository(db *gorm.DB) *commitRepository {
	return &commitRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.Commit](db),
	}
}

func (r *commitRepository) FindByHash(hash string) (models.Commit, error) {
	var commit models.Commit
	err := r.db.First(&commit, "hash = ?", hash).Error
	return commit, err
}

// ListByBranch returns commits newest first. A limit of 0 means no limit.
func (r *commitRepository) ListByBranch(branchID uuid.UUID, limit int) ([]models.Commit, error) {
	var commits []models.Commit
	q := r.db.Where("branch_id = ?", branchID).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&commits).Error
	return commits, err
}

func (r *commitRepository) ListByProject(projectID uuid.UUID, limit int) ([]models.Commit, error) {
	var commits []models.Commit
	q := r.db.Where("project_id = ?", projectID).Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&commits).Error
	return commits, err
}
