package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ptybridge/ptybridge/internal/config"
	"github.com/ptybridge/ptybridge/internal/server"
)

func main() {
	httpEnabled := flag.Bool("http", false, "Enable the HTTP ops surface")
	port := flag.String("port", "", "HTTP ops surface port")
	dev := flag.Bool("dev", false, "Development logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("ptybridge", server.Version)
		return
	}

	cfg := config.LoadOrDefault()
	if *httpEnabled {
		cfg.Server.Enabled = true
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ptybridge:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "ptybridge:", err)
		os.Exit(1)
	}
}
