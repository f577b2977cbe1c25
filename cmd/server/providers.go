// File: cmd/server/providers.go
package main

import (
	"log"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/drraj1965/neurohealthhub-sub000/internal/firebase"
	"github.com/drraj1965/neurohealthhub-sub000/internal/platform/database"
	platformredis "github.com/drraj1965/neurohealthhub-sub000/internal/platform/redis"
)

func provideFirestoreClient(svc *firebase.Service) *firestore.Client {
	return svc.Firestore()
}

func provideCleanup(
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *platformredis.Client,
	fbService *firebase.Service,
) func() {
	return func() {
		logger.Info("Executing cleanup tasks...")
		database.CloseGORMDB(db)
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Failed to close redis client during cleanup", zap.Error(err))
			}
		}
		if err := fbService.Close(); err != nil {
			logger.Warn("Failed to close firebase service during cleanup", zap.Error(err))
		}
		if err := logger.Sync(); err != nil {
			log.Printf("ERROR: Failed to sync logger during cleanup: %v", err)
		}
		log.Println("Cleanup finished.")
	}
}
