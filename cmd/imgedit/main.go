// Command imgedit is a console front end for the image editor: it loads a
// file, applies operations from a numbered menu and saves the result.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phambaophuc/image-editor/internal/config"
	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/compress"
	"github.com/phambaophuc/image-editor/internal/services/dispatcher"
	"github.com/phambaophuc/image-editor/internal/services/params"
	"github.com/phambaophuc/image-editor/internal/services/session"
	"github.com/phambaophuc/image-editor/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	apiURL := flag.String("api", cfg.Processing.BaseURL, "image processing service base URL")
	output := flag.String("out", models.DownloadFilename, "where to save the edited image")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <image>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := utils.NewLogger(*logLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(os.Stdin)
	prompter := params.NewTerminalPrompter(in, os.Stdout)

	state := session.NewState("console", session.Options{
		Dispatcher: dispatcher.NewHTTPDispatcher(*apiURL, cfg.Processing.Timeout, logger),
		Collector:  params.NewCollector(prompter, logger),
		Compressor: compress.NewCompressor(compress.DefaultOptions, logger),
		Logger:     logger,
	})
	defer state.Close()

	ed := &editor{
		state:  state,
		in:     in,
		out:    os.Stdout,
		output: *output,
	}
	if err := ed.load(ctx, flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := ed.run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
