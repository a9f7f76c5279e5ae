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
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	manager := Actor{UserID: "alice", Email: "alice@example.org", Role: models.RoleManager}

	t.Run("seeds the creator as manager and a primary main branch", func(t *testing.T) {
		env := newTestEnv(t)

		project, err := env.projectService.CreateProject(context.Background(), manager, "acme-design", "Acme Design", "brand assets")
		require.NoError(t, err)
		assert.Equal(t, models.DefaultMinReviews, project.Settings.BranchProtection.MinReviews)
		assert.True(t, project.Settings.BranchProtection.RequireApproval)

		member, err := env.members.FindMember(project.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, models.RoleManager, member.Role)
		assert.Equal(t, models.MemberStatusActive, member.Status)

		primary, err := env.branches.FindPrimary(project.ID)
		require.NoError(t, err)
		assert.Equal(t, "main", primary.Name)
		assert.True(t, primary.IsPrimary)
		assert.Equal(t, models.BranchStatusActive, primary.Status)
	})

	t.Run("rejects a duplicate project id", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.projectService.CreateProject(context.Background(), manager, "acme-design", "Acme Design", "")
		require.NoError(t, err)

		_, err = env.projectService.CreateProject(context.Background(), manager, "acme-design", "Other", "")
		assert.Equal(t, shared.ErrorKindConflict, shared.ErrorKindOf(err))
	})
}

func TestUpdateSettings(t *testing.T) {
	env := newTestEnv(t)
	manager := Actor{UserID: "alice", Email: "alice@example.org", Role: models.RoleManager}
	project, _ := env.seedProject(t, manager)

	t.Run("rejects a negative review threshold", func(t *testing.T) {
		settings := project.Settings
		settings.BranchProtection.MinReviews = -1
		_, err := env.projectService.UpdateSettings(context.Background(), project, settings)
		assert.Equal(t, shared.ErrorKindValidation, shared.ErrorKindOf(err))
	})

	t.Run("persists a zero review threshold", func(t *testing.T) {
		settings := project.Settings
		settings.BranchProtection.MinReviews = 0
		updated, err := env.projectService.UpdateSettings(context.Background(), project, settings)
		require.NoError(t, err)
		assert.Equal(t, 0, updated.Settings.BranchProtection.MinReviews)

		stored, err := env.projects.Read(project.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Settings.BranchProtection.MinReviews)
	})
}
