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
	"log/slog"
	"sync"

	"github.com/inkvault-dev/inkvault/shared"
)

// InMemoryBroker fans messages out to in-process subscribers. It is the
// default for single-node deployments and the capture point in tests.
type InMemoryBroker struct {
	mux         sync.RWMutex
	subscribers map[shared.PubSubChannel][]chan map[string]any
}

func NewInMemoryBroker() *InMemoryBroker {
	return &InMemoryBroker{
		subscribers: make(map[shared.PubSubChannel][]chan map[string]any),
	}
}

func (b *InMemoryBroker) Publish(ctx context.Context, message shared.PubSubMessage) error {
	b.mux.RLock()
	subscribers := b.subscribers[message.GetChannel()]
	b.mux.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber <- message.GetPayload():
		default:
			// slow subscribers lose messages, delivery is best effort
			slog.Warn("subscriber channel full, dropping message", "channel", message.GetChannel())
		}
	}
	return nil
}

func (b *InMemoryBroker) Subscribe(topic shared.PubSubChannel) (<-chan map[string]any, error) {
	ch := make(chan map[string]any, 100)

	b.mux.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mux.Unlock()

	return ch, nil
}

func (b *InMemoryBroker) Unsubscribe(topic shared.PubSubChannel, ch <-chan map[string]any) {
	b.mux.Lock()
	defer b.mux.Unlock()

	subscribers := b.subscribers[topic]
	for i, subscriber := range subscribers {
		if subscriber == ch {
			b.subscribers[topic] = append(subscribers[:i], subscribers[i+1:]...)
			close(subscriber)
			break
		}
	}
	if len(b.subscribers[topic]) == 0 {
		delete(b.subscribers, topic)
	}
}

func (b *InMemoryBroker) Close() error {
	b.mux.Lock()
	defer b.mux.Unlock()

	for topic, subscribers := range b.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
	return nil
}
