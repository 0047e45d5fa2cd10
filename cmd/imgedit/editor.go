package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/params"
	"github.com/phambaophuc/image-editor/internal/services/session"
)

type editor struct {
	state  *session.State
	in     *bufio.Reader
	out    io.Writer
	output string
}

func (e *editor) load(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	snap, err := e.state.SelectImage(ctx, data, filepath.Base(path), http.DetectContentType(data))
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	fmt.Fprintf(e.out, "Loaded %s (%d bytes, %s)\n", path, snap.Size, snap.MIMEType)
	return nil
}

func (e *editor) run(ctx context.Context) error {
	ops := models.Descriptors()

	for {
		e.printMenu(ops)

		line, err := e.in.ReadString('\n')
		choice := strings.ToLower(strings.TrimSpace(line))
		if err != nil && choice == "" {
			return nil
		}

		switch choice {
		case "":
			continue
		case "q":
			return nil
		case "s":
			if err := e.save(); err != nil {
				fmt.Fprintln(e.out, err)
			}
			continue
		}

		n, convErr := strconv.Atoi(choice)
		if convErr != nil || n < 1 || n > len(ops) {
			fmt.Fprintf(e.out, "Unknown choice %q\n", choice)
			continue
		}
		e.apply(ctx, ops[n-1])

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (e *editor) printMenu(ops []models.OperationDescriptor) {
	fmt.Fprintln(e.out)
	for i, desc := range ops {
		fmt.Fprintf(e.out, "%d. %s\n", i+1, desc.Label)
	}
	fmt.Fprintln(e.out, "s. Save")
	fmt.Fprintln(e.out, "q. Quit")
	fmt.Fprint(e.out, "> ")
}

func (e *editor) apply(ctx context.Context, desc models.OperationDescriptor) {
	err := e.state.ApplyOperation(ctx, desc.Operation)
	switch {
	case err == nil:
		snap := e.state.Snapshot()
		fmt.Fprintf(e.out, "%s applied (%d bytes)\n", desc.Label, snap.Size)
	case errors.Is(err, params.ErrCancelled):
		fmt.Fprintln(e.out, "Cancelled")
	default:
		if msg := e.state.Snapshot().LastError; msg != "" {
			fmt.Fprintln(e.out, msg)
			return
		}
		fmt.Fprintln(e.out, err)
	}
}

func (e *editor) save() error {
	artifact, err := e.state.Download()
	if err != nil {
		return fmt.Errorf("nothing to save: %w", err)
	}
	if err := os.WriteFile(e.output, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	fmt.Fprintf(e.out, "Saved %s\n", e.output)
	return nil
}
