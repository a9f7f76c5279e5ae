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

type CommitChanges struct {
	FilesAdded        int `json:"filesAdded"`
	FilesModified     int `json:"filesModified"`
	FilesDeleted      int `json:"filesDeleted"`
	ComponentsUpdated int `json:"componentsUpdated"`
}

type CommitSnapshot struct {
	// FileURL is the object store path of the commit blob. Multiple commits
	// only ever share a blob in the initial-commit fallback of create-branch.
	FileURL      string  `json:"fileUrl"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
}

// Commit is immutable once written. ParentCommitHash points backwards only.
type Commit struct {
	Model
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;index;not null"`
	BranchID  uuid.UUID `json:"branchId" gorm:"type:uuid;index;not null"`
	// Hash is 12 hex characters and globally unique; the unique index is what
	// arbitrates hash collisions.
	Hash             string         `json:"hash" gorm:"type:text;uniqueIndex;not null"`
	Message          string         `json:"message" gorm:"type:text;not null"`
	AuthorID         string         `json:"authorId" gorm:"type:text;not null"`
	Timestamp        time.Time      `json:"timestamp" gorm:"not null"`
	ParentCommitHash *string        `json:"parentCommitHash" gorm:"type:text"`
	Changes          CommitChanges  `json:"changes" gorm:"type:jsonb;serializer:json"`
	Snapshot         CommitSnapshot `json:"snapshot" gorm:"type:jsonb;serializer:json"`
}

func (m Commit) TableName() string {
	return "commits"
}
