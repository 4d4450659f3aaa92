// Command transitcat reads a transport-network query envelope as JSON,
// builds the catalogue/graph/renderer it describes, answers every stat
// request in the batch, and writes the responses as a JSON array.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/transitcat/transitcat/internal/config"
	"github.com/transitcat/transitcat/internal/requests"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var inputPath, outputPath string

	cmd := &cobra.Command{
		Use:   "transitcat",
		Short: "Offline transport-network query engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(inputPath, outputPath)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "-", "path to the request envelope JSON file, or - for stdin")
	cmd.Flags().StringVar(&outputPath, "output", "-", "path to write the response JSON array, or - for stdout")

	return cmd
}

func run(inputPath, outputPath string) error {
	cfg := config.Load()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	in, err := openInput(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	var env requests.Envelope
	if err := json.NewDecoder(in).Decode(&env); err != nil {
		return fmt.Errorf("decode request envelope: %w", err)
	}

	orchestrator, err := requests.New(env, cfg.StrictDistances, logger)
	if err != nil {
		return fmt.Errorf("build catalogue: %w", err)
	}

	responses := orchestrator.Run(env.StatRequests)

	out, err := openOutput(outputPath)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer out.Close()

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(responses); err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}

	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
