package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"TrendRadar/internal/config"
	"TrendRadar/internal/notifier"
	"TrendRadar/internal/pipeline"
	"TrendRadar/internal/recorder"
	"TrendRadar/internal/scheduler"
	"TrendRadar/internal/source"
	"TrendRadar/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := flag.String("config", "config.yaml", "path to config.yaml")
	outDir := flag.String("out-dir", "outputs", "output directory")
	refresh := flag.Bool("refresh", false, "refresh cached market data")
	watch := flag.Bool("watch", false, "keep running and rescore on the daily cron schedule")
	flag.Parse()

	// .env is optional; real env vars win over file values either way.
	if err := godotenv.Load(); err == nil {
		log.Println("[INFO] loaded environment from .env")
	}

	log.Println("[INFO] TrendRadar starting...")

	if v := os.Getenv("CONFIG_PATH"); v != "" && !isFlagSet("config") {
		*cfgPath = v
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	st, err := store.NewStore(cfg.Data.CacheDir)
	if err != nil {
		log.Fatalf("[FATAL] init series store: %v", err)
	}

	fetcher := source.NewYahooFetcher(cfg.Proxy)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	p := &pipeline.Pipeline{
		Config:   cfg,
		Store:    st,
		Fetcher:  fetcher,
		Recorder: rec,
		OutDir:   *outDir,
		Refresh:  *refresh,
	}

	if !*watch {
		if _, err := p.Run(); err != nil {
			log.Fatalf("[FATAL] run: %v", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		log.Println("[INFO] Telegram notifications enabled")
	}

	sched := scheduler.NewScheduler(ctx, p, tn)
	if err := sched.RegisterDaily(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, scoring now")
		go sched.RunNow()
	}

	log.Println("[INFO] TrendRadar is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] TrendRadar stopped")
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
