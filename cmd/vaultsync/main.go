package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rizzk/vaultsync/internal/config"
)

// Version information - injected at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	app := NewDefaultApp(config.VersionInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	})
	root := newRootCommand(app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-c:
			_, _ = fmt.Fprintf(app.Stdout, "\nReceived signal %v, stopping vaultsync...\n", sig)
			cancel()
		case <-done:
			return
		}

		// give the loop time to finish an in-flight snapshot
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			app.CleanupOnSignal()
			app.exit(0)
		}
	}()

	err := root.ExecuteContext(ctx)
	close(done)
	_ = app.Close()

	if err != nil {
		_, _ = fmt.Fprintf(app.Stderr, "❌ Error: %v\n", err)
		app.exit(1)
	}
}
