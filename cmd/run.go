package cmd

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "log/slog"
    "os"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/report"
    "github.com/aleph-zero/guardstack/service/registry"
    "github.com/aleph-zero/guardstack/service/script"
    "github.com/spf13/cobra"
    "github.com/spf13/viper"
)

var runCmd = &cobra.Command{
    Use:   "run [script]",
    Short: "Run a script in-process",
    Long:  "Run a command script against in-process stacks and print the result. Reads stdin when no file is given.",
    Args:  cobra.MaximumNArgs(1),
    RunE: func(cmd *cobra.Command, args []string) error {
        var in io.Reader = cmd.InOrStdin()
        if len(args) == 1 && args[0] != "-" {
            file, err := os.Open(args[0])
            if err != nil {
                return err
            }
            defer file.Close()
            in = file
        }

        logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
            Level: slog.LevelInfo,
        }))
        return runScript(cmd.Context(), logger, in, cmd.OutOrStdout())
    },
}

func runScript(ctx context.Context, logger *slog.Logger, in io.Reader, out io.Writer) error {
    text, err := io.ReadAll(in)
    if err != nil {
        return fmt.Errorf("reading script: %w", err)
    }

    options, err := stackOptions()
    if err != nil {
        return err
    }

    sink, closer, err := report.NewSink(logger, viper.GetString("stack.report-file"))
    if err != nil {
        return err
    }
    defer closer.Close()

    reg := registry.NewService(
        registry.WithMemoryLimit(viper.GetInt("stack.memory-limit")),
        registry.WithStackOptions(options...),
        registry.WithStackOptions(engine.WithReporter(sink), engine.WithLogger(logger)))

    result, err := script.NewService(reg).Execute(ctx, string(text))
    if err != nil {
        return err
    }

    encoder := json.NewEncoder(out)
    encoder.SetIndent("", "  ")
    return encoder.Encode(result)
}

func init() {
    rootCmd.AddCommand(runCmd)
}
