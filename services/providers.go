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

package services

import (
	"github.com/inkvault-dev/inkvault/shared"
	"go.uber.org/fx"
)

// Module provides every domain service plus the per-project lock table
// and event publisher they share.
var Module = fx.Options(
	fx.Provide(NewProjectLocks),
	fx.Provide(NewEventPublisher),
	fx.Provide(NewTokenService),
	fx.Provide(fx.Annotate(NewTrustOnFirstUseVerifier, fx.As(new(shared.IdentityVerifier)))),
	fx.Provide(NewAuthService),
	fx.Provide(NewProjectService),
	fx.Provide(NewBranchService),
	fx.Provide(NewCommitService),
	fx.Provide(NewMergeRequestService),
	fx.Provide(NewTeamService),
)
