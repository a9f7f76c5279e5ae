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
	"regexp"
	"testing"
	"time"

	"github.com/inkvault-dev/inkvault/utils"
	"github.com/stretchr/testify/assert"
)

func TestCommitHash(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	t.Run("is 12 hex characters", func(t *testing.T) {
		hash := CommitHash("P1", "b1", "init", "u1", nil, now)
		assert.Regexp(t, regexp.MustCompile("^[0-9a-f]{12}$"), hash)
	})

	t.Run("is deterministic for identical inputs", func(t *testing.T) {
		a := CommitHash("P1", "b1", "init", "u1", utils.Ptr("aaaa"), now)
		b := CommitHash("P1", "b1", "init", "u1", utils.Ptr("aaaa"), now)
		assert.Equal(t, a, b)
	})

	t.Run("differs when the timestamp differs", func(t *testing.T) {
		a := CommitHash("P1", "b1", "init", "u1", nil, now)
		b := CommitHash("P1", "b1", "init", "u1", nil, now.Add(time.Millisecond))
		assert.NotEqual(t, a, b)
	})

	t.Run("differs with and without a parent", func(t *testing.T) {
		a := CommitHash("P1", "b1", "init", "u1", nil, now)
		b := CommitHash("P1", "b1", "init", "u1", utils.Ptr("bbbb"), now)
		assert.NotEqual(t, a, b)
	})
}

func TestCountComponents(t *testing.T) {
	t.Run("counts the first artboard of the first page", func(t *testing.T) {
		snapshot := []byte(`{"version":"1.0","pages":[{"artboards":[{"elements":[{},{},{}]}]}]}`)
		assert.Equal(t, 3, CountComponents(snapshot))
	})

	t.Run("empty pages count zero", func(t *testing.T) {
		assert.Equal(t, 0, CountComponents([]byte(`{"pages":[]}`)))
		assert.Equal(t, 0, CountComponents([]byte(`{"pages":[{"artboards":[]}]}`)))
	})

	t.Run("malformed input counts zero", func(t *testing.T) {
		assert.Equal(t, 0, CountComponents([]byte(`not json`)))
	})
}

func TestNewInvitationToken(t *testing.T) {
	assert.NotEqual(t, NewInvitationToken(), NewInvitationToken())
}
