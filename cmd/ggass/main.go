// Command ggass renders ASS/SSA subtitles and serves them over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/ggass/cmd/ggass/commands"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root.ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
