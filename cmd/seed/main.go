// Command seed loads the specialist catalog into the configured store and, optionally,
// registers a contact card so notifications can be tried against a local account.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"aroti/config"
	"aroti/database"
	"aroti/models"
	"aroti/utils"

	"go.uber.org/zap"
)

func main() {
	userID := flag.String("user", "", "identity-provider subject to register a contact for")
	name := flag.String("name", "", "contact name")
	email := flag.String("email", "", "contact e-mail")
	pushToken := flag.String("push-token", "", "device push token")
	pushPlatform := flag.String("push-platform", models.PushPlatformFCM, "push platform (fcm or expo)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	if cfg.DatabaseDriver == "memory" {
		logger.Fatal("Seeding the in-memory driver has no lasting effect; set DATABASE_DRIVER")
	}
	cfg.SeedCatalog = true

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stores, err := database.OpenStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() { _ = stores.Close(context.Background()) }()

	specialists, err := stores.Specialists.List(ctx, models.SpecialistFilter{})
	if err != nil {
		logger.Fatal("Failed to read back the catalog", zap.Error(err))
	}
	logger.Info("Catalog seeded", zap.String("driver", cfg.DatabaseDriver), zap.Int("specialists", len(specialists)))

	if *userID == "" {
		return
	}
	now := time.Now().UTC()
	user := &models.User{ID: *userID, Name: *name, Email: *email, PushToken: *pushToken, Traits: []string{}, CreatedAt: now, UpdatedAt: now}
	if *pushToken != "" {
		user.PushPlatform = *pushPlatform
	}
	if err := stores.Users.Save(ctx, user); err != nil {
		logger.Fatal("Failed to save contact", zap.Error(err))
	}
	logger.Info("Contact saved", zap.String("userId", user.ID))
}
