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
	"testing"

	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/objectstore"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/inkvault-dev/inkvault/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = Actor{UserID: "alice", Email: "alice@example.org", Role: models.RoleManager}
	bob   = Actor{UserID: "bob", Email: "bob@example.org", Role: models.RoleDesigner}
	carol = Actor{UserID: "carol", Email: "carol@example.org", Role: models.RoleDesigner}
	dave  = Actor{UserID: "dave", Email: "dave@example.org", Role: models.RoleManager}
)

// seedMergeSetup builds a project with a full team, a committed main
// branch and a feature branch carrying a different snapshot, then opens
// a merge request feature -> main as alice.
func seedMergeSetup(t *testing.T, env *testEnv) (models.Project, models.Branch, models.Branch, models.MergeRequest) {
	t.Helper()
	ctx := context.Background()

	project, primary := env.seedProject(t, alice)
	env.addActiveMember(t, project, bob.UserID, bob.Email, models.RoleDesigner)
	env.addActiveMember(t, project, carol.UserID, carol.Email, models.RoleDesigner)
	env.addActiveMember(t, project, dave.UserID, dave.Email, models.RoleManager)

	_, err := env.commitService.Create(ctx, project, alice, primary.ID, "baseline", snapshotOneElement, nil)
	require.NoError(t, err)

	feature, err := env.branchService.Create(ctx, project, alice, "rework", models.BranchTypeFeature, "main")
	require.NoError(t, err)
	require.NoError(t, env.branchService.SaveSnapshot(ctx, project, alice, feature.ID, snapshotThreeElems))

	mr, err := env.mrService.Create(ctx, project, alice, feature.Name, "main", "Rework", "take it all")
	require.NoError(t, err)

	return project, primary, feature, mr
}

func TestMergeRequestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds reviewers up to the threshold, skipping the creator", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, _, mr := seedMergeSetup(t, env)

		assert.Equal(t, 1, mr.MergeRequestID)
		assert.Equal(t, models.MergeRequestStatusOpen, mr.Status)
		require.Len(t, mr.Reviewers, 2)
		assert.Equal(t, bob.UserID, mr.Reviewers[0].UserID)
		assert.Equal(t, carol.UserID, mr.Reviewers[1].UserID)
		for _, r := range mr.Reviewers {
			assert.Equal(t, models.ReviewerStatusPending, r.Status)
		}
	})

	t.Run("allocates sequential ids per project", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, first := seedMergeSetup(t, env)

		other, err := env.branchService.Create(ctx, project, alice, "second", models.BranchTypeFeature, "main")
		require.NoError(t, err)
		second, err := env.mrService.Create(ctx, project, alice, other.Name, "main", "Second", "")
		require.NoError(t, err)
		assert.Equal(t, first.MergeRequestID+1, second.MergeRequestID)
	})

	t.Run("rejects identical source and target", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, alice)

		_, err := env.mrService.Create(ctx, project, alice, "main", "main", "noop", "")
		assert.Equal(t, shared.ErrorKindValidation, shared.ErrorKindOf(err))
	})

	t.Run("refuses a designer proposing a foreign branch", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, alice)
		env.addActiveMember(t, project, bob.UserID, bob.Email, models.RoleDesigner)

		branch, err := env.branchService.Create(ctx, project, alice, "alices", models.BranchTypeFeature, "main")
		require.NoError(t, err)

		_, err = env.mrService.Create(ctx, project, bob, branch.Name, "main", "steal", "")
		assert.Equal(t, shared.ErrorKindForbidden, shared.ErrorKindOf(err))
	})

	t.Run("a zero review threshold opens the request approved", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, alice)
		project.Settings.BranchProtection.MinReviews = 0

		branch, err := env.branchService.Create(ctx, project, alice, "solo", models.BranchTypeFeature, "main")
		require.NoError(t, err)

		mr, err := env.mrService.Create(ctx, project, alice, branch.Name, "main", "solo work", "")
		require.NoError(t, err)
		assert.Equal(t, models.MergeRequestStatusApproved, mr.Status)
		assert.Empty(t, mr.Reviewers)
	})

	t.Run("lets a designer propose their own branch", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, alice)
		env.addActiveMember(t, project, bob.UserID, bob.Email, models.RoleDesigner)

		branch, err := env.branchService.Create(ctx, project, bob, "bobs", models.BranchTypeFeature, "main")
		require.NoError(t, err)

		_, err = env.mrService.Create(ctx, project, bob, branch.Name, "main", "mine", "")
		assert.NoError(t, err)
	})
}

func TestMergeRequestReview(t *testing.T) {
	ctx := context.Background()

	t.Run("flips to approved at the threshold", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		after, err := env.mrService.Review(ctx, project, bob, mr.MergeRequestID, models.ReviewerStatusApproved, nil)
		require.NoError(t, err)
		assert.Equal(t, models.MergeRequestStatusOpen, after.Status)

		after, err = env.mrService.Review(ctx, project, carol, mr.MergeRequestID, models.ReviewerStatusApproved, nil)
		require.NoError(t, err)
		assert.Equal(t, models.MergeRequestStatusApproved, after.Status)

		assert.Contains(t, env.broker.eventKinds(), string(shared.EventMergeApproved))
	})

	t.Run("self-approval is forbidden and changes nothing", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		_, err := env.mrService.Review(ctx, project, alice, mr.MergeRequestID, models.ReviewerStatusApproved, nil)
		assert.Equal(t, shared.ErrorKindForbidden, shared.ErrorKindOf(err))

		stored, err := env.mrService.Get(project, mr.MergeRequestID)
		require.NoError(t, err)
		assert.Equal(t, models.MergeRequestStatusOpen, stored.Status)
		for _, r := range stored.Reviewers {
			assert.Equal(t, models.ReviewerStatusPending, r.Status)
		}
	})

	t.Run("requested changes keeps earlier approvals recorded", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		_, err := env.mrService.Review(ctx, project, bob, mr.MergeRequestID, models.ReviewerStatusApproved, nil)
		require.NoError(t, err)
		after, err := env.mrService.Review(ctx, project, carol, mr.MergeRequestID, models.ReviewerStatusRequestedChanges, utils.Ptr("align the grid"))
		require.NoError(t, err)

		assert.Equal(t, models.MergeRequestStatusOpen, after.Status)
		assert.Equal(t, models.ReviewerStatusApproved, after.Reviewers[0].Status)
		assert.Equal(t, models.ReviewerStatusRequestedChanges, after.Reviewers[1].Status)
		require.NotNil(t, after.Reviewers[1].Comment)
		assert.Equal(t, "align the grid", *after.Reviewers[1].Comment)
	})

	t.Run("a manager off the list is appended on review", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		after, err := env.mrService.Review(ctx, project, dave, mr.MergeRequestID, models.ReviewerStatusApproved, nil)
		require.NoError(t, err)
		require.Len(t, after.Reviewers, 3)
		assert.Equal(t, dave.UserID, after.Reviewers[2].UserID)
		assert.Equal(t, models.ReviewerStatusApproved, after.Reviewers[2].Status)
	})

	t.Run("a rejection closes the door", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		after, err := env.mrService.Review(ctx, project, bob, mr.MergeRequestID, models.ReviewerStatusRejected, utils.Ptr("wrong direction"))
		require.NoError(t, err)
		assert.Equal(t, models.MergeRequestStatusRejected, after.Status)

		_, err = env.mrService.Review(ctx, project, carol, mr.MergeRequestID, models.ReviewerStatusApproved, nil)
		assert.Equal(t, shared.ErrorKindConflict, shared.ErrorKindOf(err))
	})
}

func TestCompleteMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("take-source merge overwrites the target", func(t *testing.T) {
		env := newTestEnv(t)
		project, primary, feature, mr := seedMergeSetup(t, env)

		_, err := env.mrService.Review(ctx, project, bob, mr.MergeRequestID, models.ReviewerStatusApproved, nil)
		require.NoError(t, err)
		_, err = env.mrService.Review(ctx, project, carol, mr.MergeRequestID, models.ReviewerStatusApproved, nil)
		require.NoError(t, err)

		preMergeTip := env.mustReadBranch(t, primary.ID).LastCommit
		require.NotNil(t, preMergeTip)

		merged, err := env.mrService.CompleteMerge(ctx, project, dave, mr.MergeRequestID)
		require.NoError(t, err)
		assert.Equal(t, models.MergeRequestStatusMerged, merged.Status)
		require.NotNil(t, merged.MergedBy)
		assert.Equal(t, dave.UserID, *merged.MergedBy)
		require.NotNil(t, merged.MergeCommitHash)
		assert.Equal(t, 3, merged.Stats.ComponentsUpdated)

		// target now carries the source bytes
		current, err := env.store.Get(ctx, objectstore.CurrentPath(project.ID, primary.ID))
		require.NoError(t, err)
		assert.JSONEq(t, string(snapshotThreeElems), string(current))

		// the merge commit sits on the target with the pre-merge tip as parent
		commit, err := env.commits.FindByHash(*merged.MergeCommitHash)
		require.NoError(t, err)
		assert.Equal(t, primary.ID, commit.BranchID)
		assert.Equal(t, "Merge "+feature.Name+" into main", commit.Message)
		require.NotNil(t, commit.ParentCommitHash)
		assert.Equal(t, preMergeTip.Hash, *commit.ParentCommitHash)
		assert.Equal(t, 3, commit.Changes.ComponentsUpdated)
	})

	t.Run("threshold does not gate the merge", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		// zero reviews recorded, still mergeable by a manager
		merged, err := env.mrService.CompleteMerge(ctx, project, dave, mr.MergeRequestID)
		require.NoError(t, err)
		assert.Equal(t, models.MergeRequestStatusMerged, merged.Status)
	})

	t.Run("the creator cannot complete their own request", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		_, err := env.mrService.CompleteMerge(ctx, project, alice, mr.MergeRequestID)
		assert.Equal(t, shared.ErrorKindForbidden, shared.ErrorKindOf(err))
	})

	t.Run("designers cannot complete", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		_, err := env.mrService.CompleteMerge(ctx, project, bob, mr.MergeRequestID)
		assert.Equal(t, shared.ErrorKindForbidden, shared.ErrorKindOf(err))
	})

	t.Run("auto-delete marks the source branch merged", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, feature, mr := seedMergeSetup(t, env)

		project.Settings.BranchProtection.AutoDeleteMerged = true
		require.NoError(t, env.projects.Save(nil, &project))

		_, err := env.mrService.CompleteMerge(ctx, project, dave, mr.MergeRequestID)
		require.NoError(t, err)

		source := env.mustReadBranch(t, feature.ID)
		assert.Equal(t, models.BranchStatusMerged, source.Status)
	})
}

func TestRevertMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("restores the pre-merge snapshot", func(t *testing.T) {
		env := newTestEnv(t)
		project, primary, _, mr := seedMergeSetup(t, env)

		merged, err := env.mrService.CompleteMerge(ctx, project, dave, mr.MergeRequestID)
		require.NoError(t, err)

		reverted, err := env.mrService.RevertMerge(ctx, project, dave, merged.MergeRequestID)
		require.NoError(t, err)
		assert.Equal(t, models.MergeRequestStatusReverted, reverted.Status)
		require.NotNil(t, reverted.RevertedBy)
		assert.Equal(t, dave.UserID, *reverted.RevertedBy)

		current, err := env.store.Get(ctx, objectstore.CurrentPath(project.ID, primary.ID))
		require.NoError(t, err)
		assert.JSONEq(t, string(snapshotOneElement), string(current))

		// the revert lands as a new commit, history keeps the merge
		target := env.mustReadBranch(t, primary.ID)
		require.NotNil(t, target.LastCommit)
		assert.Contains(t, target.LastCommit.Message, "Reverted merge #1")

		commits, err := env.commits.ListByBranch(primary.ID, 0)
		require.NoError(t, err)
		assert.Len(t, commits, 3)

		assert.Contains(t, env.broker.eventKinds(), string(shared.EventMergeClosed))
		assert.Contains(t, env.broker.eventKinds(), string(shared.EventCommitCreated))
	})

	t.Run("only merged requests can be reverted", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		_, err := env.mrService.RevertMerge(ctx, project, dave, mr.MergeRequestID)
		assert.Equal(t, shared.ErrorKindConflict, shared.ErrorKindOf(err))
	})

	t.Run("designers cannot revert", func(t *testing.T) {
		env := newTestEnv(t)
		project, _, _, mr := seedMergeSetup(t, env)

		_, err := env.mrService.CompleteMerge(ctx, project, dave, mr.MergeRequestID)
		require.NoError(t, err)

		_, err = env.mrService.RevertMerge(ctx, project, bob, mr.MergeRequestID)
		assert.Equal(t, shared.ErrorKindForbidden, shared.ErrorKindOf(err))
	})
}
