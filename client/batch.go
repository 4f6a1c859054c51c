package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aleph-zero/guardstack/telemetry"
)

type BatchConfig struct {
	ClientConfig *Config
	Filename     string
}

type BatchOption func(*BatchConfig)

func NewBatchConfig(options ...BatchOption) *BatchConfig {
	cfg := &BatchConfig{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithFilename(filename string) BatchOption {
	return func(cfg *BatchConfig) {
		cfg.Filename = filename
	}
}

func WithClientConfig(clientConfig *Config) BatchOption {
	return func(cfg *BatchConfig) {
		cfg.ClientConfig = clientConfig
	}
}

func BootstrapBatch(config *BatchConfig) {
	ctx := context.Background()
	shutdown, _ := telemetry.New(serviceName, serviceVersion, collectorURL)
	defer shutdown()

	file, err := os.Open(config.Filename)
	if err != nil {
		fmt.Printf("Error opening file '%s': %s\n", config.Filename, err)
		return
	}
	defer file.Close()

	if err := runBatch(ctx, config.ClientConfig.endpoint(), newHTTPClient(), file, os.Stdout); err != nil {
		fmt.Printf("Error running batch: %s\n", err)
	}
}

// runBatch sends the script in r to the server one statement at a time, so
// that a failing statement is reported against its own line.
func runBatch(ctx context.Context, endpoint string, client *http.Client, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		result, err := submit(ctx, client, endpoint, line)
		if err != nil {
			fmt.Fprintf(w, "line %d: %s\n", lineNum, err)
			continue
		}
		printResult(w, result)
	}
	return scanner.Err()
}
