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
	"time"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/database"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/objectstore"
	"github.com/inkvault-dev/inkvault/shared"
	"gorm.io/gorm"
)

type CommitService struct {
	branchRepo shared.BranchRepository
	commitRepo shared.CommitRepository
	store      *objectstore.Store
	events     *EventPublisher
	locks      *ProjectLocks
}

func NewCommitService(branchRepo shared.BranchRepository, commitRepo shared.CommitRepository, store *objectstore.Store, events *EventPublisher, locks *ProjectLocks) *CommitService {
	return &CommitService{
		branchRepo: branchRepo,
		commitRepo: commitRepo,
		store:      store,
		events:     events,
		locks:      locks,
	}
}

// History lists commits, newest first. With a branch name the history is
// that branch's chain; without one, all commits of the project.
func (s *CommitService) History(project models.Project, branchName *string, limit int) ([]models.Commit, error) {
	if branchName != nil {
		branch, err := s.branchRepo.FindActiveByName(project.ID, *branchName)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewAPIError(shared.ErrorKindNotFound, "branch not found")
		}
		if err != nil {
			return nil, shared.WrapAPIError(shared.ErrorKindInternal, "could not read branch", err)
		}

		commits, err := s.commitRepo.ListByBranch(branch.ID, limit)
		if err != nil {
			return nil, shared.WrapAPIError(shared.ErrorKindInternal, "could not list commits", err)
		}
		return commits, nil
	}

	commits, err := s.commitRepo.ListByProject(project.ID, limit)
	if err != nil {
		return nil, shared.WrapAPIError(shared.ErrorKindInternal, "could not list commits", err)
	}
	return commits, nil
}

// Create extends the branch's commit chain with a new snapshot. The
// commit blob is written before the working snapshot; a failure between
// the two leaves an orphan blob reachable only by sweep, which is
// acceptable.
func (s *CommitService) Create(ctx context.Context, project models.Project, actor Actor, branchID uuid.UUID, message string, snapshot []byte, changesHint *models.CommitChanges) (models.Commit, error) {
	if !ValidSnapshot(snapshot) {
		return models.Commit{}, shared.NewAPIError(shared.ErrorKindValidation, "snapshot is not valid JSON")
	}

	unlock := s.locks.Lock(project.ID)
	defer unlock()

	branch, err := s.branchRepo.Read(branchID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && branch.ProjectID != project.ID) {
		return models.Commit{}, shared.NewAPIError(shared.ErrorKindNotFound, "branch not found")
	}
	if err != nil {
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read branch", err)
	}
	if branch.Status != models.BranchStatusActive {
		return models.Commit{}, shared.NewAPIError(shared.ErrorKindValidation, "branch is not active")
	}

	var parentHash *string
	if branch.LastCommit != nil {
		parentHash = &branch.LastCommit.Hash
	}

	now := time.Now()
	hash := CommitHash(project.ProjectID, branch.ID.String(), message, actor.UserID, parentHash, now)

	commit, err := s.writeCommit(ctx, project, &branch, models.Commit{
		ProjectID:        project.ID,
		BranchID:         branch.ID,
		Hash:             hash,
		Message:          message,
		AuthorID:         actor.UserID,
		Timestamp:        now,
		ParentCommitHash: parentHash,
		Changes:          deriveChanges(snapshot, changesHint),
	}, snapshot)
	if err != nil {
		return models.Commit{}, err
	}

	s.events.Emit(project.ID, shared.EventCommitCreated, commit)
	s.events.Emit(project.ID, shared.EventBranchUpdated, branch)
	slog.Info("commit created", "project", project.ProjectID, "branch", branch.Name, "hash", hash)
	return commit, nil
}

// RevertToCommit restores an earlier snapshot by committing it again on
// top of the chain. No history is removed.
func (s *CommitService) RevertToCommit(ctx context.Context, project models.Project, actor Actor, branchID uuid.UUID, commitHash string) (models.Commit, error) {
	unlock := s.locks.Lock(project.ID)
	defer unlock()

	branch, err := s.branchRepo.Read(branchID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && branch.ProjectID != project.ID) {
		return models.Commit{}, shared.NewAPIError(shared.ErrorKindNotFound, "branch not found")
	}
	if err != nil {
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read branch", err)
	}

	target, err := s.commitRepo.FindByHash(commitHash)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && (target.BranchID != branch.ID || target.ProjectID != project.ID)) {
		return models.Commit{}, shared.NewAPIError(shared.ErrorKindNotFound, "commit not found on this branch")
	}
	if err != nil {
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read commit", err)
	}

	snapshot, err := s.store.Get(ctx, target.Snapshot.FileURL)
	if errors.Is(err, objectstore.ErrNotFound) {
		return models.Commit{}, shared.NewAPIError(shared.ErrorKindNotFound, "commit snapshot is missing")
	}
	if err != nil {
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindIO, "could not read commit snapshot", err)
	}

	var parentHash *string
	if branch.LastCommit != nil {
		parentHash = &branch.LastCommit.Hash
	}

	now := time.Now()
	message := fmt.Sprintf("Reverted to commit %s: %s", shortHash(target.Hash), target.Message)
	hash := CommitHash(project.ProjectID, branch.ID.String(), message, actor.UserID, parentHash, now)

	commit, err := s.writeCommit(ctx, project, &branch, models.Commit{
		ProjectID:        project.ID,
		BranchID:         branch.ID,
		Hash:             hash,
		Message:          message,
		AuthorID:         actor.UserID,
		Timestamp:        now,
		ParentCommitHash: parentHash,
		Changes:          models.CommitChanges{ComponentsUpdated: CountComponents(snapshot)},
	}, snapshot)
	if err != nil {
		return models.Commit{}, err
	}

	s.events.Emit(project.ID, shared.EventCommitCreated, commit)
	s.events.Emit(project.ID, shared.EventBranchUpdated, branch)
	slog.Info("branch reverted to commit", "project", project.ProjectID, "branch", branch.Name, "target", commitHash)
	return commit, nil
}

// writeCommit performs the shared tail of every commit-producing
// operation: commit blob, working snapshot, commit row, branch tip.
func (s *CommitService) writeCommit(ctx context.Context, project models.Project, branch *models.Branch, commit models.Commit, snapshot []byte) (models.Commit, error) {
	commit.Snapshot = models.CommitSnapshot{FileURL: objectstore.CommitPath(project.ID, branch.ID, commit.Hash)}

	if err := s.store.Put(ctx, commit.Snapshot.FileURL, snapshot); err != nil {
		if errors.Is(err, objectstore.ErrTooLarge) {
			return models.Commit{}, shared.NewAPIError(shared.ErrorKindValidation, "snapshot exceeds the size limit")
		}
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindIO, "could not write commit snapshot", err)
	}
	if err := s.store.Put(ctx, objectstore.CurrentPath(project.ID, branch.ID), snapshot); err != nil {
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindIO, "could not write working snapshot", err)
	}

	if err := s.commitRepo.Create(nil, &commit); err != nil {
		if database.IsDuplicateKeyError(err) {
			return models.Commit{}, shared.NewAPIError(shared.ErrorKindConflict, "commit hash collision")
		}
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not record commit", err)
	}

	branch.LastCommit = &models.LastCommit{
		Hash:      commit.Hash,
		Message:   commit.Message,
		Timestamp: commit.Timestamp,
		AuthorID:  commit.AuthorID,
	}
	if err := s.branchRepo.Save(nil, branch); err != nil {
		return models.Commit{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not update branch tip", err)
	}

	return commit, nil
}

func deriveChanges(snapshot []byte, hint *models.CommitChanges) models.CommitChanges {
	if hint != nil {
		return *hint
	}
	return models.CommitChanges{ComponentsUpdated: CountComponents(snapshot)}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
