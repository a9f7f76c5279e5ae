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

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CommitHash derives the 12 hex character commit identifier. The
// millisecond timestamp makes identical messages yield distinct hashes;
// the unique index on the commits table arbitrates the residual
// collision case.
func CommitHash(projectID, branchID, message, authorID string, parentHash *string, now time.Time) string {
	parent := ""
	if parentHash != nil {
		parent = *parentHash
	}

	input := strings.Join([]string{
		projectID,
		branchID,
		message,
		authorID,
		parent,
		strconv.FormatInt(now.UnixMilli(), 10),
	}, "-")

	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:12]
}

// NewInvitationToken returns a fresh 128 bit random token.
func NewInvitationToken() string {
	return uuid.New().String()
}

// NewPlaceholderUserID names a user created by invitation before their
// first login.
func NewPlaceholderUserID() string {
	return "pending-" + uuid.New().String()
}
