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

package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBroker(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()

	channel := shared.ProjectChannel(uuid.New())

	t.Run("delivers to a subscriber of the channel", func(t *testing.T) {
		ch, err := broker.Subscribe(channel)
		require.NoError(t, err)
		defer broker.Unsubscribe(channel, ch)

		err = broker.Publish(context.Background(), shared.NewSimplePubSubMessage(channel, map[string]any{
			"event": string(shared.EventBranchCreated),
		}))
		require.NoError(t, err)

		select {
		case payload := <-ch:
			assert.Equal(t, string(shared.EventBranchCreated), payload["event"])
		case <-time.After(time.Second):
			t.Fatal("expected a message")
		}
	})

	t.Run("does not deliver across channels", func(t *testing.T) {
		ch, err := broker.Subscribe(channel)
		require.NoError(t, err)
		defer broker.Unsubscribe(channel, ch)

		other := shared.ProjectChannel(uuid.New())
		err = broker.Publish(context.Background(), shared.NewSimplePubSubMessage(other, map[string]any{"event": "x"}))
		require.NoError(t, err)

		select {
		case <-ch:
			t.Fatal("message leaked across project channels")
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("unsubscribe closes the channel", func(t *testing.T) {
		ch, err := broker.Subscribe(channel)
		require.NoError(t, err)

		broker.Unsubscribe(channel, ch)

		_, open := <-ch
		assert.False(t, open)
	})
}
