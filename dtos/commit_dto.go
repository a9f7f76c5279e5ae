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

	"github.com/inkvault-dev/inkvault/database/models"
)

type CommitCreateRequest struct {
	Message  string          `json:"message" validate:"required,max=512"`
	Snapshot json.RawMessage `json:"snapshot" validate:"required"`
	// Changes is the editor's own change summary; derived from the
	// snapshot when omitted.
	Changes *models.CommitChanges `json:"changes"`
}

type RevertToCommitRequest struct {
	CommitHash string `json:"commitHash" validate:"required,len=12,hexadecimal"`
}
