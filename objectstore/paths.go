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
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package objectstore

import (
	"fmt"

	"github.com/google/uuid"
)

// CurrentPath is where a branch's mutable working snapshot lives.
func CurrentPath(projectID, branchID uuid.UUID) string {
	return fmt.Sprintf("projects/%s/branches/%s/current.json", projectID, branchID)
}

// CommitPath is where an immutable commit snapshot lives. Commit objects
// are only ever written once.
func CommitPath(projectID, branchID uuid.UUID, hash string) string {
	return fmt.Sprintf("projects/%s/branches/%s/commits/%s.json", projectID, branchID, hash)
}

// BranchPrefix covers everything stored for one branch.
func BranchPrefix(projectID, branchID uuid.UUID) string {
	return fmt.Sprintf("projects/%s/branches/%s/", projectID, branchID)
}

// ProjectPrefix covers everything stored for one project.
func ProjectPrefix(projectID uuid.UUID) string {
	return fmt.Sprintf("projects/%s/", projectID)
}
