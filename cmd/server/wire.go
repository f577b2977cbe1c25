// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/drraj1965/neurohealthhub-sub000/internal/app"
	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
	"github.com/drraj1965/neurohealthhub-sub000/internal/firebase"
	"github.com/drraj1965/neurohealthhub-sub000/internal/mail"
	"github.com/drraj1965/neurohealthhub-sub000/internal/netmon"
	"github.com/drraj1965/neurohealthhub-sub000/internal/platform/database"
	"github.com/drraj1965/neurohealthhub-sub000/internal/platform/logger"
	platformredis "github.com/drraj1965/neurohealthhub-sub000/internal/platform/redis"
	"github.com/drraj1965/neurohealthhub-sub000/internal/profile"
	"github.com/drraj1965/neurohealthhub-sub000/internal/reconcile"
	"github.com/drraj1965/neurohealthhub-sub000/internal/registration"
	"github.com/drraj1965/neurohealthhub-sub000/internal/role"
	"github.com/drraj1965/neurohealthhub-sub000/internal/verification"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		platformredis.New,
		provideCleanup,

		// Identity provider
		firebase.NewService,
		provideFirestoreClient,
		wire.Bind(new(netmon.CredentialRefresher), new(*firebase.Service)),

		// Profile tiers
		profile.NewAPIStore,
		profile.NewFirestoreStore,
		profile.NewLocalStore,
		profile.NewSessionStore,
		profile.NewService,
		profile.NewHandler,
		wire.Bind(new(netmon.Prober), new(*profile.FirestoreStore)),

		// Role resolution
		role.NewFirestoreDirectory,
		wire.Bind(new(role.Directory), new(*role.FirestoreDirectory)),
		role.NewResolver,
		wire.Bind(new(reconcile.RoleResolver), new(*role.Resolver)),
		wire.Bind(new(profile.AllowlistChecker), new(*role.Resolver)),

		// Network monitor and reconciliation
		netmon.NewMonitor,
		netmon.NewHandler,
		reconcile.NewOrchestrator,
		reconcile.NewHandler,
		wire.Bind(new(verification.Reconciler), new(*reconcile.Orchestrator)),

		// Verification and registration
		mail.New,
		verification.NewFirebaseProvider,
		verification.NewService,
		verification.NewHandler,
		registration.NewService,
		registration.NewHandler,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
