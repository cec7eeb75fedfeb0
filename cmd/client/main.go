package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/trackmeta/internal/client/cli"
	"github.com/dmitrijs2005/trackmeta/internal/client/config"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	// The REPL blocks on stdin, so an interrupt closes the app from here.
	go func() {
		<-ctx.Done()
		if err := app.Close(); err != nil {
			log.Printf("%v", err)
		}
		os.Exit(0)
	}()

	app.Run(ctx)

}
