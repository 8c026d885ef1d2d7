package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/sweetshop/sweets-api/internal/api/handler"
	"github.com/sweetshop/sweets-api/internal/core/ports"
	"github.com/sweetshop/sweets-api/internal/infrastructure/db/mongo"
	"github.com/sweetshop/sweets-api/internal/infrastructure/db/postgres"
	"github.com/sweetshop/sweets-api/internal/infrastructure/db/redis"
	"github.com/sweetshop/sweets-api/internal/pkg/config"
	"github.com/sweetshop/sweets-api/pkg/logger"
)

// app holds the external connections shared by the commands.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	mongoClient *mongodriver.Client
	mongoDB     *mongodriver.Database
	pg          *pgxpool.Pool   // nil unless USER_STORE=postgres
	rdb         *goredis.Client // nil unless REDIS_ADDR is set
}

// bootstrap loads configuration, initialises logging and opens every store
// the configuration asks for.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWith(ctx, envconfig.OsLookuper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "sweets-api",
	})

	a := &app{cfg: cfg, log: log}

	a.mongoClient, a.mongoDB, err = mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	if cfg.UserStore == config.UserStorePostgres {
		a.pg, err = postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		log.Info().Msg("connected to postgres")
	}

	if cfg.Redis.Addr != "" {
		a.rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	}

	return a, nil
}

// userRepository returns the credential store selected by USER_STORE.
func (a *app) userRepository() ports.UserRepository {
	if a.pg != nil {
		return postgres.NewUserRepository(a.pg)
	}
	return mongo.NewUserRepository(a.mongoDB)
}

func (a *app) readinessChecks() []handler.DependencyCheck {
	checks := []handler.DependencyCheck{handler.MongoCheck(a.mongoDB)}
	if a.pg != nil {
		checks = append(checks, handler.PostgresCheck(a.pg))
	}
	if a.rdb != nil {
		checks = append(checks, handler.RedisCheck(a.rdb))
	}
	return checks
}

func (a *app) close(ctx context.Context) {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongodb disconnect")
		}
	}
}
