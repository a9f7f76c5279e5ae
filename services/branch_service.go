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
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/accesscontrol"
	"github.com/inkvault-dev/inkvault/database"
	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/objectstore"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/inkvault-dev/inkvault/utils"
	"gorm.io/gorm"
)

// ProjectLocks is the per-project critical section. All state-mutating
// commands of one project run strictly one at a time; commands on
// different projects overlap freely.
type ProjectLocks = utils.KeyedMutex[uuid.UUID]

func NewProjectLocks() *ProjectLocks {
	return utils.NewKeyedMutex[uuid.UUID]()
}

type BranchService struct {
	branchRepo shared.BranchRepository
	commitRepo shared.CommitRepository
	mrRepo     shared.MergeRequestRepository
	store      *objectstore.Store
	events     *EventPublisher
	locks      *ProjectLocks
}

func NewBranchService(branchRepo shared.BranchRepository, commitRepo shared.CommitRepository, mrRepo shared.MergeRequestRepository, store *objectstore.Store, events *EventPublisher, locks *ProjectLocks) *BranchService {
	return &BranchService{
		branchRepo: branchRepo,
		commitRepo: commitRepo,
		mrRepo:     mrRepo,
		store:      store,
		events:     events,
		locks:      locks,
	}
}

func validBranchType(t models.BranchType) bool {
	switch t {
	case models.BranchTypeMain, models.BranchTypeFeature, models.BranchTypeHotfix,
		models.BranchTypeDesign, models.BranchTypeExperiment:
		return true
	}
	return false
}

func (s *BranchService) List(project models.Project) ([]models.Branch, error) {
	branches, err := s.branchRepo.ListByProject(project.ID)
	if err != nil {
		return nil, shared.WrapAPIError(shared.ErrorKindInternal, "could not list branches", err)
	}
	return branches, nil
}

// Get resolves an active branch by its full name.
func (s *BranchService) Get(project models.Project, name string) (models.Branch, error) {
	branch, err := s.branchRepo.FindActiveByName(project.ID, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Branch{}, shared.NewAPIError(shared.ErrorKindNotFound, "branch not found")
	}
	if err != nil {
		return models.Branch{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read branch", err)
	}
	return branch, nil
}

func (s *BranchService) getByID(project models.Project, branchID uuid.UUID) (models.Branch, error) {
	branch, err := s.branchRepo.Read(branchID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && branch.ProjectID != project.ID) {
		return models.Branch{}, shared.NewAPIError(shared.ErrorKindNotFound, "branch not found")
	}
	if err != nil {
		return models.Branch{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read branch", err)
	}
	return branch, nil
}

// Create creates fullName = type + "/" + name from the base branch,
// copying the base's working snapshot and seeding an initial commit when
// the base has history.
func (s *BranchService) Create(ctx context.Context, project models.Project, actor Actor, name string, branchType models.BranchType, baseBranchName string) (models.Branch, error) {
	if !validBranchType(branchType) {
		return models.Branch{}, shared.NewAPIError(shared.ErrorKindValidation, "unknown branch type")
	}

	unlock := s.locks.Lock(project.ID)
	defer unlock()

	fullName := string(branchType) + "/" + name

	if _, err := s.branchRepo.FindActiveByName(project.ID, fullName); err == nil {
		return models.Branch{}, shared.NewAPIError(shared.ErrorKindConflict, "a branch with this name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Branch{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not check branch name", err)
	}

	// an empty base means branching off the primary branch
	var (
		base models.Branch
		err  error
	)
	if baseBranchName == "" {
		base, err = s.branchRepo.FindPrimary(project.ID)
	} else {
		base, err = s.branchRepo.FindActiveByName(project.ID, baseBranchName)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Branch{}, shared.NewAPIError(shared.ErrorKindNotFound, "base branch not found")
	}
	if err != nil {
		return models.Branch{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not read base branch", err)
	}

	branch := models.Branch{
		ProjectID:  project.ID,
		Name:       fullName,
		Type:       branchType,
		BaseBranch: base.Name,
		CreatedBy:  actor.UserID,
		IsPrimary:  false,
		Status:     models.BranchStatusActive,
	}
	if err := s.branchRepo.Create(nil, &branch); err != nil {
		if database.IsDuplicateKeyError(err) {
			return models.Branch{}, shared.NewAPIError(shared.ErrorKindConflict, "a branch with this name already exists")
		}
		return models.Branch{}, shared.WrapAPIError(shared.ErrorKindInternal, "could not create branch", err)
	}

	// A base without a working snapshot is fine, the new branch starts
	// empty. Any other copy failure rolls the branch row back; a branch
	// that claims to exist but lost its snapshot would be worse than the
	// operation failing.
	copied := true
	err = s.store.Copy(ctx, objectstore.CurrentPath(project.ID, base.ID), objectstore.CurrentPath(project.ID, branch.ID))
	if errors.Is(err, objectstore.ErrNotFound) {
		copied = false
	} else if err != nil {
		if dbErr := s.branchRepo.Delete(nil, branch.ID); dbErr != nil {
			slog.Error("could not roll back branch after copy failure", "branch", branch.Name, "err", dbErr)
		}
		return models.Branch{}, shared.WrapAPIError(shared.ErrorKindIO, "could not copy base snapshot", err)
	}

	if base.LastCommit != nil {
		if err := s.seedInitialCommit(ctx, project, &branch, base, copied, actor); err != nil {
			slog.Error("could not seed initial commit", "branch", branch.Name, "err", err)
		}
	}

	s.events.Emit(project.ID, shared.EventBranchCreated, branch)
	slog.Info("branch created", "project", project.ProjectID, "branch", branch.Name, "actor", actor.UserID)
	return branch, nil
}

// seedInitialCommit records where the new branch's content came from.
// The commit blob is the copied snapshot when the copy succeeded,
// otherwise it references the base tip's blob.
func (s *BranchService) seedInitialCommit(ctx context.Context, project models.Project, branch *models.Branch, base models.Branch, copied bool, actor Actor) error {
	now := time.Now()
	parent := base.LastCommit.Hash
	hash := CommitHash(project.ProjectID, branch.ID.String(), "Initial commit from base branch", actor.UserID, &parent, now)

	fileURL := objectstore.CommitPath(project.ID, branch.ID, hash)
	if copied {
		if err := s.store.Copy(ctx, objectstore.CurrentPath(project.ID, branch.ID), fileURL); err != nil {
			return err
		}
	} else {
		baseTip, err := s.commitRepo.FindByHash(parent)
		if err != nil {
			return err
		}
		fileURL = baseTip.Snapshot.FileURL
	}

	commit := models.Commit{
		ProjectID:        project.ID,
		BranchID:         branch.ID,
		Hash:             hash,
		Message:          "Initial commit from base branch",
		AuthorID:         actor.UserID,
		Timestamp:        now,
		ParentCommitHash: &parent,
		Snapshot:         models.CommitSnapshot{FileURL: fileURL},
	}
	if err := s.commitRepo.Create(nil, &commit); err != nil {
		return err
	}

	branch.LastCommit = &models.LastCommit{
		Hash:      hash,
		Message:   commit.Message,
		Timestamp: now,
		AuthorID:  actor.UserID,
	}
	return s.branchRepo.Save(nil, branch)
}

// Delete soft-deletes a branch. Blobs stay around so checkouts against
// merged descendants keep resolving.
func (s *BranchService) Delete(ctx context.Context, project models.Project, actor Actor, name string) error {
	if !actor.IsManager() {
		return shared.NewAPIError(shared.ErrorKindForbidden, "only managers may delete branches")
	}

	unlock := s.locks.Lock(project.ID)
	defer unlock()

	branch, err := s.Get(project, name)
	if err != nil {
		return err
	}
	if branch.IsPrimary {
		return shared.NewAPIError(shared.ErrorKindForbidden, "the primary branch cannot be deleted")
	}

	open, err := s.mrRepo.ExistsOpenForSource(project.ID, branch.Name)
	if err != nil {
		return shared.WrapAPIError(shared.ErrorKindInternal, "could not check merge requests", err)
	}
	if open {
		return shared.NewAPIError(shared.ErrorKindConflict, "branch has an open merge request")
	}

	branch.Status = models.BranchStatusDeleted
	if err := s.branchRepo.Save(nil, &branch); err != nil {
		return shared.WrapAPIError(shared.ErrorKindInternal, "could not delete branch", err)
	}

	s.events.Emit(project.ID, shared.EventBranchDeleted, branch.Name)
	slog.Info("branch deleted", "project", project.ProjectID, "branch", branch.Name, "actor", actor.UserID)
	return nil
}

// GetSnapshot reads a branch's working snapshot.
func (s *BranchService) GetSnapshot(ctx context.Context, project models.Project, branchID uuid.UUID) ([]byte, error) {
	branch, err := s.getByID(project, branchID)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Get(ctx, objectstore.CurrentPath(project.ID, branch.ID))
	if errors.Is(err, objectstore.ErrNotFound) {
		return nil, shared.NewAPIError(shared.ErrorKindNotFound, "branch has no snapshot")
	}
	if err != nil {
		return nil, shared.WrapAPIError(shared.ErrorKindIO, "could not read snapshot", err)
	}
	return data, nil
}

// SaveSnapshot overwrites the working snapshot. Unlike checkout's
// best-effort save this is an explicit write and refuses non-owners.
func (s *BranchService) SaveSnapshot(ctx context.Context, project models.Project, actor Actor, branchID uuid.UUID, snapshot []byte) error {
	if !ValidSnapshot(snapshot) {
		return shared.NewAPIError(shared.ErrorKindValidation, "snapshot is not valid JSON")
	}

	unlock := s.locks.Lock(project.ID)
	defer unlock()

	branch, err := s.getByID(project, branchID)
	if err != nil {
		return err
	}
	if !accesscontrol.CanWriteBranch(branch, actor.UserID, actor.Role) {
		return shared.NewAPIError(shared.ErrorKindForbidden, "not allowed to write this branch")
	}

	if err := s.putSnapshot(ctx, project, branch, snapshot); err != nil {
		return err
	}

	s.events.Emit(project.ID, shared.EventBranchUpdated, branch)
	return nil
}

func (s *BranchService) putSnapshot(ctx context.Context, project models.Project, branch models.Branch, snapshot []byte) error {
	err := s.store.Put(ctx, objectstore.CurrentPath(project.ID, branch.ID), snapshot)
	if errors.Is(err, objectstore.ErrTooLarge) {
		return shared.NewAPIError(shared.ErrorKindValidation, "snapshot exceeds the size limit")
	}
	if err != nil {
		return shared.WrapAPIError(shared.ErrorKindIO, "could not write snapshot", err)
	}
	return nil
}

// CheckoutResult is what the editor needs to switch branches.
type CheckoutResult struct {
	Branch      models.Branch
	Snapshot    []byte
	HasSnapshot bool
	Path        string
}

// Checkout saves the caller's working snapshot to the source branch
// (best effort, silently discarded for non-owners) and resolves the
// target branch's snapshot through the three-tier fallback: the target's
// current, then its tip commit blob, then the base branch's current.
func (s *BranchService) Checkout(ctx context.Context, project models.Project, actor Actor, sourceBranchID *uuid.UUID, targetBranchID uuid.UUID, currentSnapshot []byte) (CheckoutResult, error) {
	unlock := s.locks.Lock(project.ID)
	defer unlock()

	if sourceBranchID != nil && len(currentSnapshot) > 0 && ValidSnapshot(currentSnapshot) {
		if source, err := s.getByID(project, *sourceBranchID); err == nil {
			if accesscontrol.CanWriteBranch(source, actor.UserID, actor.Role) {
				if err := s.putSnapshot(ctx, project, source, currentSnapshot); err != nil {
					// browsing must not fail because the parking write did
					slog.Warn("could not save source snapshot on checkout", "branch", source.Name, "err", err)
				}
			}
		}
	}

	target, err := s.getByID(project, targetBranchID)
	if err != nil {
		return CheckoutResult{}, err
	}

	snapshot, path := s.resolveSnapshot(ctx, project, target)

	return CheckoutResult{
		Branch:      target,
		Snapshot:    snapshot,
		HasSnapshot: snapshot != nil,
		Path:        path,
	}, nil
}

// resolveSnapshot runs the fallback cascade. Any failure, not just a
// missing blob, advances to the next tier; resolving something stale
// beats failing the checkout.
func (s *BranchService) resolveSnapshot(ctx context.Context, project models.Project, target models.Branch) ([]byte, string) {
	currentPath := objectstore.CurrentPath(project.ID, target.ID)
	if data, err := s.store.Get(ctx, currentPath); err == nil {
		return data, currentPath
	} else if !errors.Is(err, objectstore.ErrNotFound) {
		slog.Warn("checkout tier 1 failed", "branch", target.Name, "err", err)
	}

	if target.LastCommit != nil {
		if tip, err := s.commitRepo.FindByHash(target.LastCommit.Hash); err == nil {
			if data, err := s.store.Get(ctx, tip.Snapshot.FileURL); err == nil {
				return data, tip.Snapshot.FileURL
			} else if !errors.Is(err, objectstore.ErrNotFound) {
				slog.Warn("checkout tier 2 failed", "branch", target.Name, "err", err)
			}
		}
	}

	if base, err := s.branchRepo.FindActiveByName(project.ID, target.BaseBranch); err == nil && base.ID != target.ID {
		basePath := objectstore.CurrentPath(project.ID, base.ID)
		if data, err := s.store.Get(ctx, basePath); err == nil {
			return data, basePath
		} else if !errors.Is(err, objectstore.ErrNotFound) {
			slog.Warn("checkout tier 3 failed", "branch", target.Name, "err", err)
		}
	}

	return nil, ""
}
