package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-clothing-rental/internal/config"
	"github.com/ariefcatur/go-clothing-rental/internal/logx"
	"github.com/ariefcatur/go-clothing-rental/internal/postgres"
	"github.com/ariefcatur/go-clothing-rental/internal/seed"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logx.New(cfg.ServiceName+"-seed", cfg.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := postgres.Migrate(cfg.PostgresDSN, logger); err != nil {
		logger.Fatalf("migrate: %v", err)
	}
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN, 4)
	if err != nil {
		logger.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	sum, err := seed.Run(ctx, postgres.NewStore(pool), seed.Admin{
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
	}, cfg.BcryptCost, logger)
	if err != nil {
		logger.Fatalf("seed: %v", err)
	}
	fmt.Println(sum)
}
