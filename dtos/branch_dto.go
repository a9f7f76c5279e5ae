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

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/database/models"
)

type BranchCreateRequest struct {
	// Name is the short segment after the type, e.g. "login-flow".
	Name string `json:"name" validate:"required,max=128"`
	Type string `json:"type" validate:"required,oneof=main feature hotfix design experiment"`
	// BaseBranch is optional; the primary branch is the default base.
	BaseBranch string `json:"baseBranch" validate:"omitempty,max=256"`
}

type SnapshotSaveRequest struct {
	Snapshot json.RawMessage `json:"snapshot" validate:"required"`
}

type CheckoutRequest struct {
	// SourceBranchID identifies the branch the editor is leaving;
	// omitted on the first checkout of a session.
	SourceBranchID  *uuid.UUID      `json:"sourceBranchId"`
	CurrentSnapshot json.RawMessage `json:"currentSnapshot"`
}

type CheckoutResponse struct {
	Branch      models.Branch   `json:"branch"`
	Snapshot    json.RawMessage `json:"snapshot,omitempty"`
	HasSnapshot bool            `json:"hasSnapshot"`
	// Path names the blob the snapshot was resolved from, empty when
	// no tier answered.
	Path string `json:"path,omitempty"`
}
