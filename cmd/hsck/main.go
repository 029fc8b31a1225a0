package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/nhle/hsck/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, cli.DefaultConfig(), os.Args[1:])
	stop()
	os.Exit(code)
}
