// Copyright (C) 2024 Tim Bastin, l3montree GmbH
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

package repositories

import (
	"github.com/inkvault-dev/inkvault/shared"
	"go.uber.org/fx"
)

// Module provides all repository constructors as their interfaces
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewProjectRepository, fx.As(new(shared.ProjectRepository)))),
	fx.Provide(fx.Annotate(NewUserRepository, fx.As(new(shared.UserRepository)))),
	fx.Provide(fx.Annotate(NewTeamMemberRepository, fx.As(new(shared.TeamMemberRepository)))),
	fx.Provide(fx.Annotate(NewBranchRepository, fx.As(new(shared.BranchRepository)))),
	fx.Provide(fx.Annotate(NewCommitRepository, fx.As(new(shared.CommitRepository)))),
	fx.Provide(fx.Annotate(NewMergeRequestRepository, fx.As(new(shared.MergeRequestRepository)))),
)
