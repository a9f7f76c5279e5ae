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

type BranchType string

const (
	BranchTypeMain       BranchType = "main"
	BranchTypeFeature    BranchType = "feature"
	BranchTypeHotfix     BranchType = "hotfix"
	BranchTypeDesign     BranchType = "design"
	BranchTypeExperiment BranchType = "experiment"
)

type BranchStatus string

const (
	BranchStatusActive  BranchStatus = "active"
	BranchStatusMerged  BranchStatus = "merged"
	BranchStatusDeleted BranchStatus = "deleted"
)

// LastCommit is a denormalized projection of the branch tip. It may lag
// behind the commits table between the two metadata writes of a commit;
// readers have to tolerate that.
type LastCommit struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	AuthorID  string    `json:"authorId"`
}

type Branch struct {
	Model
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;index:idx_branch_project_name;uniqueIndex:idx_branch_name_active;not null"`
	// Name is the full branch name including the type prefix, e.g. "feature/hero".
	// The partial unique index only covers active rows, so soft-deleted
	// branches never block a name. The service check under the project lock
	// remains the primary guard; the index catches concurrent creates that
	// slip past it.
	Name       string       `json:"name" gorm:"type:text;index:idx_branch_project_name;uniqueIndex:idx_branch_name_active,where:status = 'active';not null"`
	Type       BranchType   `json:"type" gorm:"type:text;not null"`
	BaseBranch string       `json:"baseBranch" gorm:"type:text;not null"`
	CreatedBy  string       `json:"createdBy" gorm:"type:text;not null"`
	IsPrimary  bool         `json:"isPrimary" gorm:"default:false"`
	Status     BranchStatus `json:"status" gorm:"type:text;not null;default:'active'"`
	LastCommit *LastCommit  `json:"lastCommit" gorm:"type:jsonb;serializer:json"`
}

func (m Branch) TableName() string {
	return "branches"
}
