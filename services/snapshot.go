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

package services

import "encoding/json"

// Snapshots are opaque to the repository except for this shallow shape,
// which is only used to derive the componentsUpdated statistic.
type snapshotShape struct {
	Pages []struct {
		Artboards []struct {
			Elements []json.RawMessage `json:"elements"`
		} `json:"artboards"`
	} `json:"pages"`
}

// CountComponents counts pages[0].artboards[0].elements. Malformed or
// empty documents count as zero, never as an error.
func CountComponents(snapshot []byte) int {
	var shape snapshotShape
	if err := json.Unmarshal(snapshot, &shape); err != nil {
		return 0
	}
	if len(shape.Pages) == 0 || len(shape.Pages[0].Artboards) == 0 {
		return 0
	}
	return len(shape.Pages[0].Artboards[0].Elements)
}

// ValidSnapshot reports whether the payload is syntactically valid JSON.
// Element internals are never interpreted.
func ValidSnapshot(snapshot []byte) bool {
	return json.Valid(snapshot)
}
