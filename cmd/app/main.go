package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"economy-service/config"
	"economy-service/internal/application/usecase"
	"economy-service/internal/domain"
	"economy-service/internal/infrastructure/cache"
	"economy-service/internal/infrastructure/repository"
	"economy-service/internal/jobs"
	"economy-service/internal/middleware"
	"economy-service/internal/security"
	handlers "economy-service/internal/transport/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("DB Connection failed:", err)
	}

	if err := db.AutoMigrate(
		&domain.UserAccount{},
		&domain.AutopilotState{},
		&domain.StreakState{},
		&domain.InventoryItem{},
		&domain.ActiveConsumable{},
		&domain.Loadout{},
		&domain.ItemDefinition{},
		&domain.EconomyConfig{},
		&domain.IdempotencyRecord{},
		&domain.LeaderboardEntry{},
	); err != nil {
		log.Fatal("Migration failed:", err)
	}

	store := repository.NewStore(db)
	if err := store.SeedDefaults(context.Background()); err != nil {
		log.Fatal("Seeding defaults failed:", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis at", cfg.RedisAddr)

	lb := cache.NewLeaderboardCache(rdb)
	rateLimiter := middleware.NewRateLimiter(rdb)
	tokens := security.NewTokenManager(cfg.AccessSecret)

	economy := usecase.NewEconomyUseCase(store, lb)
	economyHandler := handlers.NewEconomyHandler(economy)
	router := handlers.NewRouter(economyHandler, tokens, rateLimiter)

	sweeper := jobs.NewSweeper(store, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)
	go sweeper.Run(context.Background())

	log.Printf("Economy Service running on %s", cfg.HTTPPort)
	if err := router.Run(cfg.HTTPPort); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
