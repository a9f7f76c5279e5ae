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
	"context"
	"fmt"
	"strings"

	"github.com/inkvault-dev/inkvault/database/models"
	"gorm.io/gorm"
)

// chunkSize keeps individual rows well below postgres' row size comfort
// zone while a full snapshot stays within a handful of rows.
const chunkSize = 1 << 20

// DatabaseBackend stores objects as chunked rows in the snapshot_chunks
// table. It is the default backend, so a plain postgres deployment needs
// no extra infrastructure.
type DatabaseBackend struct {
	db *gorm.DB
}

func NewDatabaseBackend(db *gorm.DB) *DatabaseBackend {
	return &DatabaseBackend{db: db}
}

// pathMeta extracts the denormalized addressing columns from a store
// path. Unknown layouts simply leave the columns empty.
func pathMeta(path string) (projectID, branchID string, commitHash *string) {
	parts := strings.Split(path, "/")
	for i := 0; i < len(parts)-1; i++ {
		switch parts[i] {
		case "projects":
			projectID = parts[i+1]
		case "branches":
			branchID = parts[i+1]
		case "commits":
			hash := strings.TrimSuffix(parts[i+1], ".json")
			commitHash = &hash
		}
	}
	return projectID, branchID, commitHash
}

func (b *DatabaseBackend) Put(ctx context.Context, path string, data []byte) error {
	projectID, branchID, commitHash := pathMeta(path)

	chunks := make([]models.SnapshotChunk, 0, len(data)/chunkSize+1)
	for seq := 0; seq*chunkSize < len(data) || seq == 0; seq++ {
		start := seq * chunkSize
		end := min(start+chunkSize, len(data))
		chunks = append(chunks, models.SnapshotChunk{
			Path:       path,
			Seq:        seq,
			Data:       data[start:end],
			ProjectID:  projectID,
			BranchID:   branchID,
			CommitHash: commitHash,
		})
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path = ?", path).Delete(&models.SnapshotChunk{}).Error; err != nil {
			return fmt.Errorf("could not replace object chunks: %w", err)
		}
		return tx.Create(&chunks).Error
	})
}

func (b *DatabaseBackend) Get(ctx context.Context, path string) ([]byte, error) {
	var chunks []models.SnapshotChunk
	if err := b.db.WithContext(ctx).Where("path = ?", path).Order("seq ASC").Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("could not read object chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNotFound
	}

	var size int
	for _, c := range chunks {
		size += len(c.Data)
	}
	data := make([]byte, 0, size)
	for _, c := range chunks {
		data = append(data, c.Data...)
	}
	return data, nil
}

func (b *DatabaseBackend) Delete(ctx context.Context, path string) error {
	return b.db.WithContext(ctx).Where("path = ?", path).Delete(&models.SnapshotChunk{}).Error
}

func (b *DatabaseBackend) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	// every object owns exactly one seq 0 chunk, so counting those
	// yields object counts rather than chunk counts
	var count int64
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SnapshotChunk{}).
			Where("path LIKE ? AND seq = 0", prefix+"%").
			Count(&count).Error; err != nil {
			return fmt.Errorf("could not count objects under %s: %w", prefix, err)
		}
		return tx.Where("path LIKE ?", prefix+"%").Delete(&models.SnapshotChunk{}).Error
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
