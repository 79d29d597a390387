package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/Makepad-fr/tadasync/internal/cli"
)

func main() {
	// store errors belong in the log files, not on the terminal
	_ = flag.CommandLine.Set("stderrthreshold", "FATAL")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.DefaultEnv(), os.Args[1:])
	stop()
	glog.Flush()
	os.Exit(code)
}
