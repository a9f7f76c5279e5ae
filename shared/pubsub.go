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
package shared

import (
	"context"

	"github.com/google/uuid"
)

type PubSubChannel string

// ProjectChannel is the per-project event channel everything about a
// project gets published to.
func ProjectChannel(projectID uuid.UUID) PubSubChannel {
	return PubSubChannel("project:" + projectID.String())
}

// EventKind names the domain events broadcast to project watchers.
type EventKind string

const (
	EventBranchCreated EventKind = "branch:created"
	EventBranchUpdated EventKind = "branch:updated"
	EventBranchDeleted EventKind = "branch:deleted"

	EventCommitCreated EventKind = "commit:created"

	EventMergeCreated  EventKind = "merge:created"
	EventMergeReviewed EventKind = "merge:reviewed"
	EventMergeApproved EventKind = "merge:approved"
	EventMergeMerged   EventKind = "merge:merged"
	// EventMergeClosed is also what a revert broadcasts; the payload's
	// status field tells the two apart.
	EventMergeClosed EventKind = "merge:closed"

	EventMemberAdded   EventKind = "team:member_added"
	EventMemberUpdated EventKind = "team:member_updated"
	EventMemberRemoved EventKind = "team:member_removed"
)

type PubSubMessage interface {
	GetChannel() PubSubChannel
	GetPayload() map[string]any
}

type PubSubBroker interface {
	Publish(ctx context.Context, message PubSubMessage) error
	Subscribe(topic PubSubChannel) (<-chan map[string]any, error)
	Unsubscribe(topic PubSubChannel, ch <-chan map[string]any)
}

type SimpleMessage struct {
	Channel PubSubChannel
	Payload map[string]any
}

func (m SimpleMessage) GetChannel() PubSubChannel {
	return m.Channel
}

func (m SimpleMessage) GetPayload() map[string]any {
	return m.Payload
}

// NewSimplePubSubMessage creates a new SimpleMessage instance.
func NewSimplePubSubMessage(channel PubSubChannel, payload map[string]any) *SimpleMessage {
	return &SimpleMessage{
		Channel: channel,
		Payload: payload,
	}
}
