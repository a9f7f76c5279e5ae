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
	"log/slog"

	"github.com/inkvault-dev/inkvault/config"
	"gorm.io/gorm"
)

// NewStoreFromConfig builds the configured store. The database backend
// is the default since it needs nothing beyond the postgres connection
// the service already has.
func NewStoreFromConfig(db *gorm.DB) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	kind := config.ObjectStoreBackend()
	switch kind {
	case "db":
		backend = NewDatabaseBackend(db)
	case "fs":
		backend, err = NewFSBackend(config.ObjectStorePath())
		if err != nil {
			return nil, err
		}
	case "s3":
		backend, err = NewS3Backend(context.Background(), config.S3Bucket(), config.S3Region())
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown object store backend: %s", kind)
	}

	slog.Info("object store initialized", "backend", kind)
	return NewStore(backend, config.MaxSnapshotBytes(), config.StoreTimeout()), nil
}
