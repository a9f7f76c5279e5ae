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

package models

// SnapshotChunk backs the database variant of the object store. A blob is
// split into fixed-size chunks addressed by (path, seq); the path is the
// same convention the filesystem backend uses.
type SnapshotChunk struct {
	Model
	Path string `json:"path" gorm:"type:text;uniqueIndex:idx_snapshot_chunk_path_seq;not null"`
	Seq  int    `json:"seq" gorm:"uniqueIndex:idx_snapshot_chunk_path_seq;not null"`
	Data []byte `json:"-" gorm:"type:bytea;not null"`

	// Denormalized addressing metadata, useful for operator queries.
	ProjectID  string  `json:"projectId" gorm:"type:text;index"`
	BranchID   string  `json:"branchId" gorm:"type:text;index"`
	CommitHash *string `json:"commitHash" gorm:"type:text"`
}

func (m SnapshotChunk) TableName() string {
	return "snapshot_chunks"
}
