package database

import (
	"context"
	"fmt"

	"aroti/config"
	sessionRepo "aroti/database/repository/session"
	specialistRepo "aroti/database/repository/specialist"
	userRepo "aroti/database/repository/user"

	"go.uber.org/zap"
)

// Stores bundles the repositories of one storage driver with its lifetime hooks.
type Stores struct {
	Specialists specialistRepo.SpecialistRepository
	Sessions    sessionRepo.SessionRepository
	Users       userRepo.UserRepository

	// Ping checks the backing store for readiness.
	Ping func(ctx context.Context) error
	// Close releases the connection.
	Close func(ctx context.Context) error
}

// OpenStores connects to the configured driver, prepares indexes or tables and optionally seeds the catalog.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	switch cfg.DatabaseDriver {
	case "mongo":
		return openMongoStores(ctx, cfg, logger)
	case "postgres":
		return openPostgresStores(ctx, cfg, logger)
	case "memory":
		logger.Warn("Using in-memory storage; data is lost on restart")
		return MemoryStores(), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
}

// MemoryStores returns seeded in-process stores.
func MemoryStores() *Stores {
	noop := func(context.Context) error { return nil }
	return &Stores{
		Specialists: specialistRepo.NewMemorySpecialistRepo(SeedSpecialists(), SeedReviews()),
		Sessions:    sessionRepo.NewMemorySessionRepo(),
		Users:       userRepo.NewMemoryUserRepo(),
		Ping:        noop,
		Close:       noop,
	}
}

func openMongoStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	client, err := ConnectMongo(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.MongoDatabase)

	specialists := specialistRepo.NewMongoSpecialistRepo(db)
	sessions := sessionRepo.NewMongoSessionRepo(db)
	users := userRepo.NewMongoUserRepo(db)

	for name, ensure := range map[string]func(context.Context) error{
		"specialists": specialists.EnsureIndexes,
		"sessions":    sessions.EnsureIndexes,
		"users":       users.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if cfg.SeedCatalog {
		if err := specialists.Seed(ctx, SeedSpecialists(), SeedReviews()); err != nil {
			logger.Error("Failed to seed catalog", zap.Error(err))
		}
	}

	return &Stores{
		Specialists: specialists,
		Sessions:    sessions,
		Users:       users,
		Ping:        func(ctx context.Context) error { return client.Ping(ctx, nil) },
		Close:       client.Disconnect,
	}, nil
}

func openPostgresStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	db, err := OpenPostgres(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	specialists := specialistRepo.NewGormSpecialistRepo(db)
	sessions := sessionRepo.NewGormSessionRepo(db)
	users := userRepo.NewGormUserRepo(db)

	if err := specialists.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog: %w", err)
	}
	if err := sessions.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate sessions: %w", err)
	}
	if err := users.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate users: %w", err)
	}
	if cfg.SeedCatalog {
		if err := specialists.Seed(ctx, SeedSpecialists(), SeedReviews()); err != nil {
			logger.Error("Failed to seed catalog", zap.Error(err))
		}
	}

	return &Stores{
		Specialists: specialists,
		Sessions:    sessions,
		Users:       users,
		Ping:        sqlDB.PingContext,
		Close:       func(context.Context) error { return sqlDB.Close() },
	}, nil
}
