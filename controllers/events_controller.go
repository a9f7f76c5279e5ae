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
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package controllers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkvault-dev/inkvault/shared"
	"github.com/labstack/echo/v4"
)

// heartbeat keeps intermediaries from closing an idle stream.
const heartbeatInterval = 30 * time.Second

type EventsController struct {
	broker shared.PubSubBroker
}

func NewEventsController(broker shared.PubSubBroker) *EventsController {
	return &EventsController{broker: broker}
}

// @Summary Stream project events
// @Description Server-sent event stream of everything happening inside a project.
// @Security ApiKeyAuth
// @Param projectID path string true "Project identifier"
// @Produce text/event-stream
// @Success 200
// @Router /projects/{projectID}/events [get]
func (c *EventsController) Stream(ctx shared.Context) error {
	project := shared.GetProject(ctx)

	channel := shared.ProjectChannel(project.ID)
	messages, err := c.broker.Subscribe(channel)
	if err != nil {
		return shared.WrapAPIError(shared.ErrorKindInternal, "could not subscribe to project events", err)
	}
	defer c.broker.Unsubscribe(channel, messages)

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	slog.Debug("event stream opened", "project", project.ProjectID, "user", shared.GetSession(ctx).GetUserID())

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": keep-alive\n\n"); err != nil {
				return nil
			}
			res.Flush()
		case payload, ok := <-messages:
			if !ok {
				return nil
			}
			data, err := json.Marshal(payload)
			if err != nil {
				slog.Error("could not marshal project event", "project", project.ProjectID, "err", err)
				continue
			}
			event, _ := payload["event"].(string)
			if event != "" {
				fmt.Fprintf(res, "event: %s\n", event) //nolint:errcheck
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
