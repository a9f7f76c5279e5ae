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

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/inkvault-dev/inkvault/accesscontrol"
	"github.com/inkvault-dev/inkvault/cmd/inkvault/api"
	"github.com/inkvault-dev/inkvault/controllers"
	"github.com/inkvault-dev/inkvault/database"
	"github.com/inkvault-dev/inkvault/database/repositories"
	"github.com/inkvault-dev/inkvault/mail"
	"github.com/inkvault-dev/inkvault/objectstore"
	"github.com/inkvault-dev/inkvault/pubsub"
	"github.com/inkvault-dev/inkvault/router"
	"github.com/inkvault-dev/inkvault/services"
	"github.com/inkvault-dev/inkvault/shared"
	"go.uber.org/fx"
)

//	@title			inkvault API
//	@version		v1
//	@description	Version control for graphical design documents.

//	@license.name	AGPL-3

// @host		localhost:8080
// @BasePath	/api/v1
func main() {
	shared.LoadConfig() // nolint: errcheck
	shared.InitLogger()

	db, err := shared.DatabaseFactory()
	if err != nil {
		slog.Error(err.Error())
		panic(errors.New("failed to setup database connection"))
	}

	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		slog.Info("running database migrations...")
		if err := database.RunMigrations(db); err != nil {
			slog.Error("failed to run database migrations", "error", err)
			panic(errors.New("failed to run database migrations"))
		}
	} else {
		slog.Info("automatic migrations disabled via DISABLE_AUTOMIGRATE=true")
	}

	fx.New(
		fx.Supply(db),
		fx.Provide(pubsub.BrokerFactory),
		fx.Provide(api.NewServer),
		fx.Provide(objectstore.NewStoreFromConfig),
		fx.Provide(mail.NewMailerFromConfig),
		fx.Provide(fx.Annotate(mail.NewNotifier, fx.As(new(shared.Notifier)))),
		repositories.Module,
		accesscontrol.Module,
		services.Module,
		controllers.Module,
		router.Module,

		// we need to invoke all routers to register their routes
		fx.Invoke(func(sessionRouter router.SessionRouter) {}),
		fx.Invoke(func(projectRouter router.ProjectRouter) {}),
		fx.Invoke(func(srv api.Server) {}),
	).Run()
}
