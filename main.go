package main

import (
	"flag"
	"log"
	"os"

	"github.com/go-authcore/authcore/internal/bootstrap"
	"github.com/go-authcore/authcore/internal/config"
	"github.com/go-authcore/authcore/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		version.PrintVersion()
		os.Exit(0)
	}

	cfg := config.Load()
	if err := bootstrap.Run(cfg); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}
