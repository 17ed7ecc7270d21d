package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"WxEdge/internal/di"
	"WxEdge/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	city := flag.String("city", "", "city code override (NYC, CHI, MIA)")
	oneshot := flag.Bool("oneshot", false, "run a single tick, print the dashboard, and exit")
	flag.Parse()

	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *city != "" {
		cfg.Refresh.City = *city
		if err := cfg.Validate(); err != nil {
			log.Fatalf("config invalid: %v", err)
		}
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *oneshot {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := app.RunOnce(ctx, os.Stdout); err != nil {
			log.Fatalf("tick failed: %v", err)
		}
		return
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
