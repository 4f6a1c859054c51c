package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleph-zero/guardstack/service/script"
	"github.com/aleph-zero/guardstack/telemetry"
	"github.com/chzyer/readline"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName       = "guardstack-cli"
	serviceVersion    = "0.0.1"
	readlineConfigDir = ".config/guardstack"
)

var collectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

type Config struct {
	RemoteAddr string
	RemotePort int
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithRemoteAddr(addr string) Option {
	return func(cfg *Config) {
		cfg.RemoteAddr = addr
	}
}

func WithRemotePort(port uint16) Option {
	return func(cfg *Config) {
		cfg.RemotePort = int(port)
	}
}

func (c *Config) endpoint() string {
	return fmt.Sprintf("http://%s:%d/script", c.RemoteAddr, c.RemotePort)
}

func Bootstrap(config *Config) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rl, err := setupReadline()
	if err != nil {
		slog.Error("Error setting up readline config", "error", err)
		return
	}
	defer rl.Close()

	shutdown, _ := telemetry.New(serviceName, serviceVersion, collectorURL)
	defer shutdown()

	client := newHTTPClient()
	endpoint := config.endpoint()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		result, err := submit(ctx, client, endpoint, line)
		if err != nil {
			slog.Error("Error executing script", "error", err)
			continue
		}
		printResult(os.Stdout, result)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   time.Second * 30,
	}
}

// RemoteError is returned when the server rejects a script.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func submit(ctx context.Context, client *http.Client, endpoint, text string) (*script.Result, error) {
	traceCtx, span := telemetry.StartSpan(ctx, "client.script", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(traceCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Add("q", text)
	req.URL.RawQuery = q.Encode()

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&body)
		return nil, RemoteError{StatusCode: res.StatusCode, Message: body.Error}
	}

	result := &script.Result{}
	if err := json.NewDecoder(res.Body).Decode(result); err != nil {
		return nil, err
	}
	return result, nil
}

func printResult(w io.Writer, result *script.Result) {
	for _, output := range result.Outputs {
		switch {
		case output.Error != "":
			fmt.Fprintf(w, "%s: ERROR %s\n", output.Command, output.Error)
		case output.Snapshot != nil:
			data, _ := json.MarshalIndent(output.Snapshot, "", "  ")
			fmt.Fprintf(w, "%s:\n%s\n", output.Command, data)
		case len(output.Values) > 0:
			fmt.Fprintf(w, "%s: %s\n", output.Command, strings.Join(output.Values, ", "))
		default:
			fmt.Fprintf(w, "%s: %s\n", output.Command, output.Diagnosis)
		}
	}
	fmt.Fprintf(w, "(%d commands, %d failed, %s)\n", len(result.Outputs), result.Failed, result.Duration)
}

func setupReadline() (rl *readline.Instance, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(home, readlineConfigDir)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		return nil, err
	}

	return readline.NewEx(&readline.Config{
		Prompt:            "\033[31mguardstack> \033[0m ",
		HistoryFile:       filepath.Join(dir, "guardstack.history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}
