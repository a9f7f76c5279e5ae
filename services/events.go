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
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/inkvault-dev/inkvault/shared"
)

// EventPublisher pushes domain events onto the per-project channel.
// Emission is fire and forget and happens strictly after the metadata
// write of the operation that caused it.
type EventPublisher struct {
	broker shared.PubSubBroker
}

func NewEventPublisher(broker shared.PubSubBroker) *EventPublisher {
	return &EventPublisher{broker: broker}
}

// Emit publishes kind with the post-state entity as payload. Failures
// are logged, never returned; a lost event must not fail the command
// that caused it.
func (p *EventPublisher) Emit(projectID uuid.UUID, kind shared.EventKind, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("could not marshal event payload", "event", kind, "err", err)
		return
	}

	var payloadMap map[string]any
	if err := json.Unmarshal(data, &payloadMap); err != nil {
		// non-object payloads (e.g. a bare branch name) get wrapped
		var raw any
		_ = json.Unmarshal(data, &raw)
		payloadMap = map[string]any{"value": raw}
	}

	message := shared.NewSimplePubSubMessage(shared.ProjectChannel(projectID), map[string]any{
		"event": string(kind),
		"data":  payloadMap,
	})

	// Publishing stays on the calling goroutine so that two commands
	// serialized by the project section emit their events in order.
	// Subscriber channels are buffered, a slow watcher drops messages
	// instead of blocking us.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.broker.Publish(ctx, message); err != nil {
		slog.Error("could not publish event", "event", kind, "project", projectID, "err", err)
	}
}
