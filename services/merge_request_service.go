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
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/inkvault-dev/inkvault/database"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/objectstore"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/inkvault-dev/inkvault/statemachine"
	"github.com/inkvault-dev/inkvault/utils"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var mergeCommitPattern = regexp.MustCompile(`^Merge .* into `)

type MergeRequestService struct {
	mrRepo     shared.MergeRequestRepository
	branchRepo shared.BranchRepository
	commitRepo shared.CommitRepository
	memberRepo shared.TeamMemberRepository
	store      *objectstore.Store
	events     *EventPublisher
	notifier   shared.Notifier
	locks      *ProjectLocks
}

func NewMergeRequestService(mrRepo shared.MergeRequestRepository, branchRepo shared.BranchRepository, commitRepo shared.CommitRepository, memberRepo shared.TeamMemberRepository, store *objectstore.Store, events *EventPublisher, notifier shared.Notifier, locks *ProjectLocks) *MergeRequestService {
	return &MergeRequestService{
		mrRepo:     mrRepo,
		branchRepo: branchRepo,
		commitRepo: commitRepo,
		memberRepo: memberRepo,
		store:      store,
		events:     events,
		notifier:   notifier,
		locks:      locks,
	}
}

func (s *MergeRequestService) List(project models.Project, status *models.MergeRequestStatus) ([]models.MergeRequest, error) {
	mrs, err := s.mrRepo.ListByProject(project.ID, status)
	if err != nil {
		return nil, shared.WrapAPIError(shared.ErrorKindInternal, "could not list merge requests", err)
	}
	return mrs, nil
}

func (s *MergeRequestService) Get(project models.Project, mergeRequestID int) (models.MergeRequest, error) {
	mr, err := s.mrRepo.FindBySequence(project.ID, mergeRequestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindNotFound, "merge request not found")
	}
	if err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read merge request", err)
	}
	return mr, nil
}

// Create opens a merge request and seeds its reviewer list. Designers
// may only propose branches they created, with the primary branch as the
// one exception.
func (s *MergeRequestService) Create(ctx context.Context, project models.Project, actor Actor, sourceBranch, targetBranch, title, description string) (models.MergeRequest, error) {
	if sourceBranch == targetBranch {
		return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindValidation, "source and target branch must differ")
	}

	unlock := s.locks.Lock(project.ID)
	defer unlock()

	source, err := s.activeBranch(project, sourceBranch)
	if err != nil {
		return models.MergeRequest{}, err
	}
	if _, err := s.activeBranch(project, targetBranch); err != nil {
		return models.MergeRequest{}, err
	}

	if !actor.IsManager() && !source.IsPrimary && source.CreatedBy != actor.UserID {
		return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindForbidden, "designers may only open merge requests from their own branches")
	}

	members, err := s.memberRepo.ListActive(project.ID)
	if err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not list team members", err)
	}

	seq, err := s.mrRepo.NextSequence(project.ID)
	if err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not allocate merge request id", err)
	}

	minReviews := project.Settings.BranchProtection.MinReviews
	mr := models.MergeRequest{
		ProjectID:      project.ID,
		MergeRequestID: seq,
		SourceBranch:   source.Name,
		TargetBranch:   targetBranch,
		Title:          title,
		Description:    description,
		Status:         models.MergeRequestStatusOpen,
		CreatedBy:      actor.UserID,
		Reviewers:      statemachine.SeedReviewers(members, actor.UserID, minReviews),
	}
	// a zero threshold needs no reviews, the request opens approved
	statemachine.Recompute(&mr, minReviews)

	if err := s.mrRepo.Create(nil, &mr); err != nil {
		if database.IsDuplicateKeyError(err) {
			return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindConflict, "merge request sequence conflict, retry")
		}
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not create merge request", err)
	}

	s.events.Emit(project.ID, shared.EventMergeCreated, mr)
	s.notifyReviewers(project, mr, members)
	slog.Info("merge request created", "project", project.ProjectID, "mr", mr.MergeRequestID, "source", mr.SourceBranch, "target", mr.TargetBranch)
	return mr, nil
}

// Review records an approval, a change request or a rejection.
func (s *MergeRequestService) Review(ctx context.Context, project models.Project, actor Actor, mergeRequestID int, decision models.ReviewerStatus, comment *string) (models.MergeRequest, error) {
	unlock := s.locks.Lock(project.ID)
	defer unlock()

	mr, err := s.Get(project, mergeRequestID)
	if err != nil {
		return models.MergeRequest{}, err
	}

	wasApproved := mr.Status == models.MergeRequestStatusApproved
	err = statemachine.ApplyReview(&mr, statemachine.ReviewInput{
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Decision:   decision,
		Comment:    comment,
		MinReviews: project.Settings.BranchProtection.MinReviews,
		Now:        time.Now(),
	})
	if err != nil {
		return models.MergeRequest{}, mapStateMachineError(err)
	}

	if err := s.mrRepo.Save(nil, &mr); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not save merge request", err)
	}

	s.events.Emit(project.ID, shared.EventMergeReviewed, mr)
	if !wasApproved && mr.Status == models.MergeRequestStatusApproved {
		s.events.Emit(project.ID, shared.EventMergeApproved, mr)
		s.notifyCreator(project, mr, func(ctx context.Context, to string) error {
			return s.notifier.SendMergeRequestApproved(ctx, to, project.Name, mr.Title)
		})
	}
	if decision == models.ReviewerStatusRequestedChanges {
		s.notifyCreator(project, mr, func(ctx context.Context, to string) error {
			return s.notifier.SendChangesRequested(ctx, to, project.Name, mr.Title, utils.SafeDereference(comment))
		})
	}

	return mr, nil
}

// CompleteMerge performs the take-source merge: the source's working
// snapshot overwrites the target's, and a synthesized merge commit whose
// parent is the target's pre-merge tip lands on the target branch.
func (s *MergeRequestService) CompleteMerge(ctx context.Context, project models.Project, actor Actor, mergeRequestID int) (models.MergeRequest, error) {
	unlock := s.locks.Lock(project.ID)
	defer unlock()

	mr, err := s.Get(project, mergeRequestID)
	if err != nil {
		return models.MergeRequest{}, err
	}
	if err := statemachine.CanComplete(mr, actor.UserID, actor.Role); err != nil {
		return models.MergeRequest{}, mapStateMachineError(err)
	}

	source, err := s.activeBranch(project, mr.SourceBranch)
	if err != nil {
		return models.MergeRequest{}, err
	}
	target, err := s.activeBranch(project, mr.TargetBranch)
	if err != nil {
		return models.MergeRequest{}, err
	}

	err = s.store.Copy(ctx, objectstore.CurrentPath(project.ID, source.ID), objectstore.CurrentPath(project.ID, target.ID))
	if errors.Is(err, objectstore.ErrNotFound) {
		return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindNotFound, "source branch has no snapshot")
	}
	if err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindIO, "could not copy source snapshot", err)
	}

	merged, err := s.store.Get(ctx, objectstore.CurrentPath(project.ID, target.ID))
	if err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindIO, "could not read merged snapshot", err)
	}

	var parentHash *string
	if target.LastCommit != nil {
		parentHash = &target.LastCommit.Hash
	}

	now := time.Now()
	components := CountComponents(merged)
	message := fmt.Sprintf("Merge %s into %s", mr.SourceBranch, mr.TargetBranch)
	hash := CommitHash(project.ProjectID, target.ID.String(), message, actor.UserID, parentHash, now)

	commit := models.Commit{
		ProjectID:        project.ID,
		BranchID:         target.ID,
		Hash:             hash,
		Message:          message,
		AuthorID:         actor.UserID,
		Timestamp:        now,
		ParentCommitHash: parentHash,
		Changes:          models.CommitChanges{FilesModified: 1, ComponentsUpdated: components},
		Snapshot:         models.CommitSnapshot{FileURL: objectstore.CommitPath(project.ID, target.ID, hash)},
	}
	if err := s.store.Put(ctx, commit.Snapshot.FileURL, merged); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindIO, "could not write merge commit snapshot", err)
	}
	if err := s.commitRepo.Create(nil, &commit); err != nil {
		if database.IsDuplicateKeyError(err) {
			return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindConflict, "commit hash collision")
		}
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not record merge commit", err)
	}

	target.LastCommit = &models.LastCommit{Hash: hash, Message: message, Timestamp: now, AuthorID: actor.UserID}
	if err := s.branchRepo.Save(nil, &target); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not update target branch", err)
	}

	if project.Settings.BranchProtection.AutoDeleteMerged && !source.IsPrimary {
		source.Status = models.BranchStatusMerged
		if err := s.branchRepo.Save(nil, &source); err != nil {
			slog.Error("could not mark source branch merged", "branch", source.Name, "err", err)
		}
	}

	statemachine.Complete(&mr, actor.UserID, now, hash)
	mr.Stats = models.MergeRequestStats{FilesChanged: components, ComponentsUpdated: components}
	if err := s.mrRepo.Save(nil, &mr); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not save merge request", err)
	}

	s.events.Emit(project.ID, shared.EventCommitCreated, commit)
	s.events.Emit(project.ID, shared.EventBranchUpdated, target)
	s.events.Emit(project.ID, shared.EventMergeMerged, mr)
	slog.Info("merge completed", "project", project.ProjectID, "mr", mr.MergeRequestID, "commit", hash, "actor", actor.UserID)
	return mr, nil
}

// RevertMerge restores the target branch to the snapshot its merge
// commit's parent carried.
func (s *MergeRequestService) RevertMerge(ctx context.Context, project models.Project, actor Actor, mergeRequestID int) (models.MergeRequest, error) {
	unlock := s.locks.Lock(project.ID)
	defer unlock()

	mr, err := s.Get(project, mergeRequestID)
	if err != nil {
		return models.MergeRequest{}, err
	}
	if err := statemachine.CanRevert(mr, actor.Role); err != nil {
		return models.MergeRequest{}, mapStateMachineError(err)
	}

	target, err := s.activeBranch(project, mr.TargetBranch)
	if err != nil {
		return models.MergeRequest{}, err
	}

	mergeCommit, err := s.findMergeCommit(mr, target)
	if err != nil {
		return models.MergeRequest{}, err
	}
	if mergeCommit.ParentCommitHash == nil {
		return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindNotFound, "merge commit has no parent to revert to")
	}

	parent, err := s.commitRepo.FindByHash(*mergeCommit.ParentCommitHash)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindNotFound, "parent commit not found")
	}
	if err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read parent commit", err)
	}

	snapshot, err := s.store.Get(ctx, parent.Snapshot.FileURL)
	if errors.Is(err, objectstore.ErrNotFound) {
		return models.MergeRequest{}, shared.NewAPIError(shared.ErrorKindNotFound, "parent snapshot is missing")
	}
	if err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindIO, "could not read parent snapshot", err)
	}

	if err := s.store.Put(ctx, objectstore.CurrentPath(project.ID, target.ID), snapshot); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindIO, "could not restore working snapshot", err)
	}

	var tipHash *string
	if target.LastCommit != nil {
		tipHash = &target.LastCommit.Hash
	}

	now := time.Now()
	message := fmt.Sprintf("Reverted merge #%d: %s", mr.MergeRequestID, mr.Title)
	hash := CommitHash(project.ProjectID, target.ID.String(), message, actor.UserID, tipHash, now)

	commit := models.Commit{
		ProjectID:        project.ID,
		BranchID:         target.ID,
		Hash:             hash,
		Message:          message,
		AuthorID:         actor.UserID,
		Timestamp:        now,
		ParentCommitHash: tipHash,
		Changes:          models.CommitChanges{ComponentsUpdated: CountComponents(snapshot)},
		Snapshot:         models.CommitSnapshot{FileURL: objectstore.CommitPath(project.ID, target.ID, hash)},
	}
	if err := s.store.Put(ctx, commit.Snapshot.FileURL, snapshot); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindIO, "could not write revert commit snapshot", err)
	}
	if err := s.commitRepo.Create(nil, &commit); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not record revert commit", err)
	}

	target.LastCommit = &models.LastCommit{Hash: hash, Message: message, Timestamp: now, AuthorID: actor.UserID}
	if err := s.branchRepo.Save(nil, &target); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not update target branch", err)
	}

	statemachine.Revert(&mr, actor.UserID, now)
	if err := s.mrRepo.Save(nil, &mr); err != nil {
		return models.MergeRequest{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not save merge request", err)
	}

	s.events.Emit(project.ID, shared.EventCommitCreated, commit)
	s.events.Emit(project.ID, shared.EventBranchUpdated, target)
	s.events.Emit(project.ID, shared.EventMergeClosed, mr)
	slog.Info("merge reverted", "project", project.ProjectID, "mr", mr.MergeRequestID, "actor", actor.UserID)
	return mr, nil
}

// findMergeCommit prefers the backref recorded at merge time. Requests
// merged before the backref existed fall back to scanning the target's
// history for the synthesized merge message.
func (s *MergeRequestService) findMergeCommit(mr models.MergeRequest, target models.Branch) (models.Commit, error) {
	if mr.MergeCommitHash != nil {
		commit, err := s.commitRepo.FindByHash(*mr.MergeCommitHash)
		if err == nil {
			return commit, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Commit{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read merge commit", err)
		}
	}

	commits, err := s.commitRepo.ListByBranch(target.ID, 0)
	if err != nil {
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not scan target history", err)
	}
	for _, commit := range commits {
		if mergeCommitPattern.MatchString(commit.Message) &&
			strings.Contains(commit.Message, mr.SourceBranch) &&
			strings.Contains(commit.Message, mr.TargetBranch) {
			return commit, nil
		}
	}
	return models.Commit{}, shared.NewAPIError(shared.ErrorKindNotFound, "merge commit not found on target branch")
}

func (s *MergeRequestService) activeBranch(project models.Project, name string) (models.Branch, error) {
	branch, err := s.branchRepo.FindActiveByName(project.ID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Branch{}, shared.NewAPIError(shared.ErrorKindNotFound, fmt.Sprintf("branch %s not found", name))
	}
	if err != nil {
		return models.Branch{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read branch", err)
	}
	return branch, nil
}

func (s *MergeRequestService) notifyReviewers(project models.Project, mr models.MergeRequest, members []models.TeamMember) {
	if !project.Settings.Notifications {
		return
	}

	emailByUser := lo.SliceToMap(members, func(m models.TeamMember) (string, string) {
		return m.UserID, m.Email
	})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		for _, reviewer := range mr.Reviewers {
			to, ok := emailByUser[reviewer.UserID]
			if !ok || to == "" {
				continue
			}
			if err := s.notifier.SendMergeRequestCreated(ctx, to, project.Name, mr.Title); err != nil {
				slog.Warn("could not send review request mail", "to", to, "err", err)
			}
		}
	}()
}

func (s *MergeRequestService) notifyCreator(project models.Project, mr models.MergeRequest, send func(ctx context.Context, to string) error) {
	if !project.Settings.Notifications {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		member, err := s.memberRepo.FindMember(mr.ProjectID, mr.CreatedBy)
		if err != nil || member.Email == "" {
			return
		}
		if err := send(ctx, member.Email); err != nil {
			slog.Warn("could not send merge request mail", "to", member.Email, "err", err)
		}
	}()
}

func mapStateMachineError(err error) error {
	switch {
	case errors.Is(err, statemachine.ErrSelfAction),
		errors.Is(err, statemachine.ErrNotReviewer),
		errors.Is(err, statemachine.ErrNotManager):
		return shared.WrapAPIError(shared.ErrorKindForbidden, err.Error(), err)
	case errors.Is(err, statemachine.ErrInvalidTransition):
		return shared.WrapAPIError(shared.ErrorKindConflict, err.Error(), err)
	default:
		return shared.WrapAPIError(shared.ErrorKindInternal, "merge request transition failed", err)
	}
}
