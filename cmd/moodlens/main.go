// Command moodlens serves the playlist mood analysis API.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/moodlens/moodlens/internal/analysis"
	"github.com/moodlens/moodlens/internal/config"
	"github.com/moodlens/moodlens/internal/logging"
	"github.com/moodlens/moodlens/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	analyzer := analysis.New(cfg.AnalysisConfig(), log)

	server := web.NewServer(cfg.Server, analyzer, log)
	return server.Run()
}
