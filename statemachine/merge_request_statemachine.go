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

// Package statemachine holds the pure merge request transition logic.
// Everything here operates on in-memory models; persistence and events
// are the service layer's business.
package statemachine

import (
	"errors"
	"time"

	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/samber/lo"
)

var (
	// ErrSelfAction is returned when the creator of a merge request tries
	// to review or complete it.
	ErrSelfAction = errors.New("merge request creator cannot act on their own request")
	// ErrNotReviewer is returned when a non-manager acts on a merge
	// request without being on the reviewer list.
	ErrNotReviewer = errors.New("actor is not a reviewer of this merge request")
	// ErrNotManager is returned when a transition requires the manager role.
	ErrNotManager = errors.New("transition requires the manager role")
	// ErrInvalidTransition is returned when the merge request's current
	// status does not permit the requested transition.
	ErrInvalidTransition = errors.New("merge request status does not permit this transition")
)

// ApprovedCount tallies reviewers that have approved. The tally is always
// recomputed from the list, never cached.
func ApprovedCount(mr models.MergeRequest) int {
	return lo.CountBy(mr.Reviewers, func(r models.Reviewer) bool {
		return r.Status == models.ReviewerStatusApproved
	})
}

// SeedReviewers picks up to minReviews active members as pending
// reviewers. The creator never reviews their own request and is skipped.
func SeedReviewers(members []models.TeamMember, creatorID string, minReviews int) []models.Reviewer {
	reviewers := make([]models.Reviewer, 0, minReviews)
	for _, member := range members {
		if len(reviewers) >= minReviews {
			break
		}
		if member.UserID == creatorID {
			continue
		}
		if member.Role != models.RoleManager && member.Role != models.RoleDesigner {
			continue
		}
		reviewers = append(reviewers, models.Reviewer{
			UserID: member.UserID,
			Status: models.ReviewerStatusPending,
		})
	}
	return reviewers
}

// ReviewInput is one reviewer action against an open or approved merge
// request.
type ReviewInput struct {
	ActorID    string
	ActorRole  models.Role
	Decision   models.ReviewerStatus
	Comment    *string
	MinReviews int
	Now        time.Time
}

// ApplyReview records a reviewer decision on mr and recomputes the merge
// request status. The reviewer list is not sacred: a manager acting on
// the request who is absent from the list is appended before their
// decision is recorded.
func ApplyReview(mr *models.MergeRequest, input ReviewInput) error {
	if mr.Status != models.MergeRequestStatusOpen && mr.Status != models.MergeRequestStatusApproved {
		return ErrInvalidTransition
	}
	if input.ActorID == mr.CreatedBy {
		return ErrSelfAction
	}

	idx := lo.IndexOf(lo.Map(mr.Reviewers, func(r models.Reviewer, _ int) string {
		return r.UserID
	}), input.ActorID)

	if idx == -1 {
		if input.ActorRole != models.RoleManager {
			return ErrNotReviewer
		}
		mr.Reviewers = append(mr.Reviewers, models.Reviewer{
			UserID: input.ActorID,
			Status: models.ReviewerStatusPending,
		})
		idx = len(mr.Reviewers) - 1
	}

	now := input.Now
	mr.Reviewers[idx].Status = input.Decision
	mr.Reviewers[idx].ReviewedAt = &now
	mr.Reviewers[idx].Comment = input.Comment

	switch input.Decision {
	case models.ReviewerStatusApproved:
		// the threshold flips the status, it never gates the later merge
		Recompute(mr, input.MinReviews)
	case models.ReviewerStatusRequestedChanges:
		// prior approvals stay recorded, only the status drops
		mr.Status = models.MergeRequestStatusOpen
		return nil
	case models.ReviewerStatusRejected:
		mr.Status = models.MergeRequestStatusRejected
		return nil
	default:
		return ErrInvalidTransition
	}

	return nil
}

// Recompute applies the approval threshold to an open merge request.
func Recompute(mr *models.MergeRequest, minReviews int) {
	if mr.Status == models.MergeRequestStatusOpen && ApprovedCount(*mr) >= minReviews {
		mr.Status = models.MergeRequestStatusApproved
	}
}

// CanComplete checks whether actor may complete the merge right now.
// Merging is allowed from open as well as approved; reaching the
// approval threshold only flips the displayed status.
func CanComplete(mr models.MergeRequest, actorID string, actorRole models.Role) error {
	if mr.Status != models.MergeRequestStatusOpen && mr.Status != models.MergeRequestStatusApproved {
		return ErrInvalidTransition
	}
	if actorRole != models.RoleManager {
		return ErrNotManager
	}
	if actorID == mr.CreatedBy {
		return ErrSelfAction
	}
	return nil
}

// Complete marks mr merged.
func Complete(mr *models.MergeRequest, actorID string, now time.Time, mergeCommitHash string) {
	mr.Status = models.MergeRequestStatusMerged
	mr.MergedAt = &now
	mr.MergedBy = &actorID
	mr.MergeCommitHash = &mergeCommitHash
}

// CanRevert checks whether actor may revert a completed merge.
func CanRevert(mr models.MergeRequest, actorRole models.Role) error {
	if mr.Status != models.MergeRequestStatusMerged {
		return ErrInvalidTransition
	}
	if actorRole != models.RoleManager {
		return ErrNotManager
	}
	return nil
}

// Revert marks a merged request reverted.
func Revert(mr *models.MergeRequest, actorID string, now time.Time) {
	mr.Status = models.MergeRequestStatusReverted
	mr.RevertedAt = &now
	mr.RevertedBy = &actorID
}

// Close moves an open or approved merge request to closed.
func Close(mr *models.MergeRequest) error {
	if mr.Status != models.MergeRequestStatusOpen && mr.Status != models.MergeRequestStatusApproved {
		return ErrInvalidTransition
	}
	mr.Status = models.MergeRequestStatusClosed
	return nil
}
