package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"pofcore/command"
	"pofcore/config"
	"pofcore/engine"
	"pofcore/messaging"
	"pofcore/notify"
	"pofcore/progress"
	"pofcore/report"
	"pofcore/routing"
	"pofcore/store"
	"pofcore/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "pofcore.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("pofcore", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("pofcore: database open (%s)", cfg.Database.Driver)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	var redisStore *progress.RedisStore
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("pofcore: redis not available (%v), running without cache", err)
	} else {
		log.Printf("pofcore: redis connected (%s)", cfg.Redis.Address)
		redisStore = progress.NewRedisStore(redisClient)
	}
	cancel()
	defer redisClient.Close()

	// Progress manager
	progressMgr := progress.NewManager(db, redisStore)
	if err := progressMgr.SyncRedisFromSQL(); err != nil {
		log.Printf("pofcore: cache warm failed: %v", err)
	}

	// Webhook notifier
	var notifier *notify.Client
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewClient(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
		log.Printf("pofcore: webhook notifier enabled (%s)", cfg.Notify.WebhookURL)
	}

	// Messaging client
	msgClient, err := messaging.New(cfg.Messaging)
	if err != nil {
		log.Fatalf("messaging: %v", err)
	}
	if msgClient != nil {
		if err := msgClient.Connect(); err != nil {
			log.Printf("pofcore: messaging connect failed (%v)", err)
		} else {
			log.Printf("pofcore: messaging connected (%s)", cfg.Messaging.Backend)
		}
		defer msgClient.Close()
	}

	// Engine and command layer
	eng := engine.New(engine.Config{
		FactoryID:   cfg.FactoryID,
		TopicPrefix: cfg.Messaging.NotifyTopicPrefix,
		DB:          db,
		Progress:    progressMgr,
		Notifier:    notifier,
	})
	planner := routing.NewPlanner(&cfg.Policy)
	commander := command.New(db, planner, progressMgr, eng.Emitter())

	// Inbound machine telemetry
	consumer := messaging.NewStatusConsumer(db, commander)
	if err := consumer.Start(msgClient, cfg.Messaging.MachineStatusTopic); err != nil {
		log.Printf("pofcore: consumer start failed: %v", err)
	}

	// Outbox drainer
	drainCtx, stopDrainer := context.WithCancel(context.Background())
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.FactoryID, cfg.Messaging.OutboxDrainInterval)
	go drainer.Run(drainCtx)
	defer stopDrainer()

	// Web server
	reportGen := report.NewGenerator(db, progressMgr)
	handlers := www.NewHandlers(cfg, db, commander, progressMgr, reportGen, msgClient)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handlers.Router(),
	}

	go func() {
		log.Printf("pofcore: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("pofcore: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("pofcore: shutting down...")
	stopDrainer()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("pofcore: stopped")
}
