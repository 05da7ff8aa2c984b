package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/JamesChan/ngit/utils"
)

func main() {
	configPath := flag.String("config", "", "path to a toml config file")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ngit: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := utils.NewDefaultLogger(cfg.LogLevel)
	if err := NewREPL(ctx, log, cfg).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "ngit: %v\n", err)
		os.Exit(1)
	}
}
