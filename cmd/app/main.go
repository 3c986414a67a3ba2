package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"MarketSentry/internal/di"
	"MarketSentry/internal/usecase"
	"MarketSentry/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	demo := flag.Bool("demo", false, "replay the 2024-02-05 manipulation episode and exit")
	live := flag.Bool("live", false, "run live monitoring")
	asset := flag.String("asset", "", "restrict live monitoring to one asset, e.g. BTC")
	flag.Parse()

	// .env carries vendor API keys; absence is fine in demo mode
	_ = godotenv.Load()

	if *demo {
		runDemo()
		return
	}
	if !*live {
		fmt.Fprintln(os.Stderr, "nothing to do: pass -demo or -live (optionally with -asset)")
		os.Exit(2)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	cfg.ScopeToAsset(*asset)

	log.Printf("env=%s backend=%s assets=%v", cfg.Environment, cfg.Backend.Type, cfg.Detection.Assets)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	log.Printf("clickhouse: connected and schema ready - db: %s", cfg.ClickHouse.Database)
	log.Printf("kafka: brokers=%v ticks=%s alerts=%s", cfg.Kafka.Brokers, cfg.Kafka.TicksTopic, cfg.Kafka.AlertsTopic)

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}

// runDemo replays the recorded coordinated-dump episode through the full
// agent and fusion pipeline without any external infrastructure.
func runDemo() {
	risk, iv, signals, err := usecase.NewDemo().Run(context.Background())
	if err != nil {
		log.Fatalf("demo run failed: %v", err)
	}

	fmt.Println("=== MarketSentry demo: replay of 2024-02-05 BTC coordinated dump ===")
	for _, s := range signals {
		fmt.Printf("\n[%s] severity=%s confidence=%.2f\n  %s\n", s.Agent, s.Severity, s.Confidence, s.Reasoning)
	}

	fmt.Printf("\n=== Fused assessment ===\nseverity=%s confidence=%.2f\n%s\n", risk.Severity, risk.Confidence, risk.Explanation)
	for _, ref := range risk.SimilarEvents {
		fmt.Printf("precedent: %s (similarity %.2f)\n", ref.Name, ref.Similarity)
	}

	if iv == nil {
		fmt.Println("\nno intervention: gate not crossed")
		return
	}

	fmt.Println("\n=== Intervention ===")
	out, err := json.MarshalIndent(iv, "", "  ")
	if err != nil {
		log.Fatalf("marshal intervention: %v", err)
	}
	fmt.Println(string(out))
}
