package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"TaskLedger/Config"
	"TaskLedger/Controllers"
	"TaskLedger/FiberConfig"
	"TaskLedger/Models"
	"TaskLedger/Services"
	"TaskLedger/Slack"
	"TaskLedger/Storage"
	"TaskLedger/middleware"
)

func main() {
	cfg, err := Config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	setupLogging(cfg.LogDir)

	db, err := Models.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	opts := Services.Options{
		RatePerHour: cfg.RatePerHour,
		Location:    cfg.Location,
	}
	if cfg.SlackEnabled() {
		opts.Notifier = Slack.NewNotifier(cfg.SlackToken, cfg.SlackChannel, cfg.SlackAPIURL)
		log.Printf("Slack notifications enabled for channel %s", cfg.SlackChannel)
	}
	ledger := Services.New(db, opts)

	if cfg.ManagerUsername != "" && cfg.ManagerPassword != "" {
		if _, err := ledger.Users.EnsureManager(context.Background(), cfg.ManagerUsername, cfg.ManagerPassword); err != nil {
			log.Fatalf("Error seeding manager: %v", err)
		}
	}

	handler := &Controllers.Handler{
		Ledger: ledger,
		Proofs: Storage.NewProofStore(cfg.UploadDir, cfg.ProofMaxWidth),
		Tokens: middleware.Tokens{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL},
		LogDir: cfg.LogDir,
	}
	app := FiberConfig.New(cfg, handler)
	if err := FiberConfig.Serve(cfg, app); err != nil {
		log.Fatal(err)
	}
}

// setupLogging sends process logs to stdout and <dir>/application.log.
func setupLogging(dir string) {
	if dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Error creating logs directory: %v\n", err)
		return
	}
	logFile, err := os.OpenFile(filepath.Join(dir, "application.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.SetFlags(log.Ldate | log.Ltime)
}
