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

type mergeRequestRepository struct {
	db *gorm.DB
	*GormRepository[uuid.UUID, models.MergeRequest]
}

func NewMergeRequestRepository(db *gorm.DB) *mergeRequestRepository {
	return &mergeRequestRepository{
		db:             db,
		GormRepository: newGormRepository[uuid.UUID, models.MergeRequest](db),
	}
}

// NextSequence returns max(mergeRequestId)+1 for the project. The unique
// index on (project_id, merge_request_id) arbitrates concurrent readers.
func (r *mergeRequestRepository) NextSequence(projectID uuid.UUID) (int, error) {
	var max int
	err := r.db.Model(&models.MergeRequest{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(merge_request_id), 0)").
		Scan(&max).Error
	return max + 1, err
}

func (r *mergeRequestRepository) FindBySequence(projectID uuid.UUID, mergeRequestID int) (models.MergeRequest, error) {
	var mr models.MergeRequest
	err := r.db.First(&mr, "project_id = ? AND merge_request_id = ?", projectID, mergeRequestID).Error
	return mr, err
}

func (r *mergeRequestRepository) ListByProject(projectID uuid.UUID, status *models.MergeRequestStatus) ([]models.MergeRequest, error) {
	var mrs []models.MergeRequest
	q := r.db.Where("project_id = ?", projectID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	err := q.Order("merge_request_id DESC").Find(&mrs).Error
	return mrs, err
}

// ExistsOpenForSource reports whether any open or approved merge request
// uses the branch as its source. Such a branch may not be deleted.
func (r *mergeRequestRepository) ExistsOpenForSource(projectID uuid.UUID, sourceBranch string) (bool, error) {
	var count int64
	err := r.db.Model(&models.MergeRequest{}).
		Where("project_id = ? AND source_branch = ? AND status IN ?",
			projectID, sourceBranch,
			[]models.MergeRequestStatus{models.MergeRequestStatusOpen, models.MergeRequestStatusApproved}).
		Count(&count).Error
	return count > 0, err
}
