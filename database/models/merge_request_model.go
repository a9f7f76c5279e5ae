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

type MergeRequestStatus string

const (
	MergeRequestStatusOpen     MergeRequestStatus = "open"
	MergeRequestStatusApproved MergeRequestStatus = "approved"
	MergeRequestStatusMerged   MergeRequestStatus = "merged"
	MergeRequestStatusClosed   MergeRequestStatus = "closed"
	MergeRequestStatusRejected MergeRequestStatus = "rejected"
	MergeRequestStatusReverted MergeRequestStatus = "reverted"
)

type ReviewerStatus string

const (
	ReviewerStatusPending          ReviewerStatus = "pending"
	ReviewerStatusApproved         ReviewerStatus = "approved"
	ReviewerStatusRequestedChanges ReviewerStatus = "requested_changes"
	ReviewerStatusRejected         ReviewerStatus = "rejected"
)

// Reviewer is a value, not an entity. The list preserves order and is
// deduplicated by user id.
type Reviewer struct {
	UserID     string         `json:"userId"`
	Status     ReviewerStatus `json:"status"`
	ReviewedAt *time.Time     `json:"reviewedAt,omitempty"`
	Comment    *string        `json:"comment,omitempty"`
}

type MergeRequestStats struct {
	FilesChanged      int `json:"filesChanged"`
	ComponentsUpdated int `json:"componentsUpdated"`
}

type MergeRequest struct {
	Model
	ProjectID uuid.UUID `json:"projectId" gorm:"type:uuid;uniqueIndex:idx_merge_request_project_seq;not null"`
	// MergeRequestID is sequential per project, starting at 1. The unique
	// index arbitrates sequence races.
	MergeRequestID int `json:"mergeRequestId" gorm:"uniqueIndex:idx_merge_request_project_seq;not null"`

	// Branches are referenced by name so the reference survives branch row rewrites.
	SourceBranch string `json:"sourceBranch" gorm:"type:text;not null"`
	TargetBranch string `json:"targetBranch" gorm:"type:text;not null"`

	Title       string             `json:"title" gorm:"type:text;not null"`
	Description string             `json:"description" gorm:"type:text"`
	Status      MergeRequestStatus `json:"status" gorm:"type:text;not null;default:'open'"`
	CreatedBy   string             `json:"createdBy" gorm:"type:text;not null"`
	Reviewers   []Reviewer         `json:"reviewers" gorm:"type:jsonb;default:'[]';serializer:json"`
	Stats       MergeRequestStats  `json:"stats" gorm:"type:jsonb;serializer:json"`

	MergedAt   *time.Time `json:"mergedAt"`
	MergedBy   *string    `json:"mergedBy"`
	RevertedAt *time.Time `json:"revertedAt"`
	RevertedBy *string    `json:"revertedBy"`

	// MergeCommitHash is recorded when the merge completes so revert-merge can
	// resolve the merge commit without scanning commit messages.
	MergeCommitHash *string `json:"mergeCommitHash" gorm:"type:text"`
}

func (m MergeRequest) TableName() string {
	return "merge_requests"
}
