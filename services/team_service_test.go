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
	"strings"
	"testing"
	"time"

	"github.com/inkvault-dev/inkvault/database/models"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvite(t *testing.T) {
	ctx := context.Background()
	manager := Actor{UserID: "alice", Email: "alice@example.org", Role: models.RoleManager}

	t.Run("creates a pending member with a placeholder user", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		member, err := env.teamService.Invite(ctx, project, manager, "Bob@Example.org", models.RoleDesigner)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.org", member.Email)
		assert.Equal(t, models.MemberStatusPending, member.Status)
		require.NotNil(t, member.InvitationToken)
		assert.True(t, strings.HasPrefix(member.UserID, "pending-"))

		user, err := env.users.FindByEmail("bob@example.org")
		require.NoError(t, err)
		assert.Equal(t, member.UserID, user.UserID)
	})

	t.Run("reuses a known user", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		user := models.User{UserID: "bob", Email: "bob@example.org", Name: "Bob"}
		require.NoError(t, env.users.Create(nil, &user))

		member, err := env.teamService.Invite(ctx, project, manager, "bob@example.org", models.RoleDesigner)
		require.NoError(t, err)
		assert.Equal(t, "bob", member.UserID)
	})

	t.Run("rejects a second membership for the same user", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		_, err := env.teamService.Invite(ctx, project, manager, "bob@example.org", models.RoleDesigner)
		require.NoError(t, err)
		_, err = env.teamService.Invite(ctx, project, manager, "bob@example.org", models.RoleManager)
		assert.Equal(t, shared.ErrorKindConflict, shared.ErrorKindOf(err))
	})
}

func TestAcceptInvitation(t *testing.T) {
	ctx := context.Background()
	manager := Actor{UserID: "alice", Email: "alice@example.org", Role: models.RoleManager}
	bobActor := Actor{UserID: "bob", Email: "bob@example.org"}

	t.Run("activates the membership and binds the identity", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		invited, err := env.teamService.Invite(ctx, project, manager, "bob@example.org", models.RoleDesigner)
		require.NoError(t, err)

		member, err := env.teamService.AcceptInvitation(ctx, bobActor, *invited.InvitationToken)
		require.NoError(t, err)
		assert.Equal(t, "bob", member.UserID)
		assert.Equal(t, models.MemberStatusActive, member.Status)
		assert.Nil(t, member.InvitationToken)
		require.NotNil(t, member.JoinedAt)
	})

	t.Run("unknown token", func(t *testing.T) {
		env := newTestEnv(t)
		_, _ = env.seedProject(t, manager)

		_, err := env.teamService.AcceptInvitation(ctx, bobActor, "no-such-token")
		assert.Equal(t, shared.ErrorKindNotFound, shared.ErrorKindOf(err))
	})

	t.Run("expired invitations are refused", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		invited, err := env.teamService.Invite(ctx, project, manager, "bob@example.org", models.RoleDesigner)
		require.NoError(t, err)

		invited.InvitedAt = time.Now().Add(-8 * 24 * time.Hour)
		require.NoError(t, env.members.Save(nil, &invited))

		_, err = env.teamService.AcceptInvitation(ctx, bobActor, *invited.InvitationToken)
		assert.Equal(t, shared.ErrorKindExpired, shared.ErrorKindOf(err))
	})
}

func TestUpdateMemberRole(t *testing.T) {
	ctx := context.Background()
	manager := Actor{UserID: "alice", Email: "alice@example.org", Role: models.RoleManager}

	t.Run("promotes a designer", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)
		env.addActiveMember(t, project, "bob", "bob@example.org", models.RoleDesigner)

		member, err := env.teamService.UpdateMemberRole(ctx, project, manager, "bob", models.RoleManager)
		require.NoError(t, err)
		assert.Equal(t, models.RoleManager, member.Role)
	})

	t.Run("refuses demoting the last active manager", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)
		env.addActiveMember(t, project, "bob", "bob@example.org", models.RoleDesigner)

		_, err := env.teamService.UpdateMemberRole(ctx, project, manager, "alice", models.RoleDesigner)
		assert.Equal(t, shared.ErrorKindConflict, shared.ErrorKindOf(err))
	})

	t.Run("allows the demotion once another manager exists", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)
		env.addActiveMember(t, project, "dave", "dave@example.org", models.RoleManager)

		member, err := env.teamService.UpdateMemberRole(ctx, project, manager, "alice", models.RoleDesigner)
		require.NoError(t, err)
		assert.Equal(t, models.RoleDesigner, member.Role)
	})
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	manager := Actor{UserID: "alice", Email: "alice@example.org", Role: models.RoleManager}

	t.Run("removes a designer", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)
		env.addActiveMember(t, project, "bob", "bob@example.org", models.RoleDesigner)

		require.NoError(t, env.teamService.RemoveMember(ctx, project, manager, "bob"))
		_, err := env.members.FindMember(project.ID, "bob")
		assert.Error(t, err)
	})

	t.Run("refuses removing the last active manager", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		err := env.teamService.RemoveMember(ctx, project, manager, "alice")
		assert.Equal(t, shared.ErrorKindConflict, shared.ErrorKindOf(err))
	})

	t.Run("unknown member", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		err := env.teamService.RemoveMember(ctx, project, manager, "ghost")
		assert.Equal(t, shared.ErrorKindNotFound, shared.ErrorKindOf(err))
	})
}

func TestAddDesigner(t *testing.T) {
	ctx := context.Background()
	manager := Actor{UserID: "alice", Email: "alice@example.org", Role: models.RoleManager}

	t.Run("adds an immediately active designer", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		member, err := env.teamService.AddDesigner(ctx, project, manager, "Erin Example", "erin@example.org")
		require.NoError(t, err)
		assert.Equal(t, models.RoleDesigner, member.Role)
		assert.Equal(t, models.MemberStatusActive, member.Status)
		require.NotNil(t, member.JoinedAt)
	})

	t.Run("synthesizes a placeholder email from the name", func(t *testing.T) {
		env := newTestEnv(t)
		project, _ := env.seedProject(t, manager)

		member, err := env.teamService.AddDesigner(ctx, project, manager, "Erin Example", "")
		require.NoError(t, err)
		assert.Equal(t, "erin.example@placeholder.local", member.Email)
	})
}
