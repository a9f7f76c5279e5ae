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

package dtos

type MergeRequestCreateRequest struct {
	SourceBranch string `json:"sourceBranch" validate:"required"`
	TargetBranch string `json:"targetBranch" validate:"required"`
	Title        string `json:"title" validate:"required,max=256"`
	Description  string `json:"description"`
}

type ReviewRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approved requested_changes rejected"`
	Comment  *string `json:"comment"`
}
