package cmd

import (
    "bytes"
    "context"
    "encoding/json"
    "log/slog"
    "path/filepath"
    "strings"
    "testing"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/service/script"
    "github.com/spf13/viper"
    "github.com/stretchr/testify/require"
)

func TestRunScript(t *testing.T) {
    viper.Reset()
    t.Cleanup(viper.Reset)
    viper.Set("stack.canary", true)
    viper.Set("stack.hash", true)
    viper.Set("stack.poison", true)
    viper.Set("stack.poison-mode", "byte")
    viper.Set("stack.poison-byte", engine.NewConfig().PoisonByte)
    viper.Set("stack.report-file", filepath.Join(t.TempDir(), "report.json"))

    var logs, out bytes.Buffer
    logger := slog.New(slog.NewJSONHandler(&logs, nil))

    in := strings.NewReader("CREATE s;\nPUSH s 5;\nCORRUPT s TRAILING 1 0;\nPOP s\n")
    require.NoError(t, runScript(context.Background(), logger, in, &out))

    var result script.Result
    require.NoError(t, json.Unmarshal(out.Bytes(), &result))
    require.Equal(t, 1, result.Failed)
    require.Equal(t, engine.CanaryMismatch, result.Outputs[3].Diagnosis)
    require.Contains(t, logs.String(), "CANARY_MISMATCH")
}

func TestRunScript_InvalidPoisonMode(t *testing.T) {
    viper.Reset()
    t.Cleanup(viper.Reset)
    viper.Set("stack.poison-mode", "sometimes")

    err := runScript(context.Background(), slog.Default(), strings.NewReader("CREATE s"), &bytes.Buffer{})
    require.Error(t, err)
}

func TestStackOptions(t *testing.T) {
    viper.Reset()
    t.Cleanup(viper.Reset)
    viper.Set("stack.canary", false)
    viper.Set("stack.hash", true)
    viper.Set("stack.poison", false)
    viper.Set("stack.poison-mode", "slot")
    viper.Set("stack.poison-byte", 0x5A)

    options, err := stackOptions()
    require.NoError(t, err)

    config := engine.NewConfig(options...)
    require.False(t, config.Canary)
    require.True(t, config.Hash)
    require.False(t, config.Poison)
    require.Equal(t, engine.PoisonSlotScan, config.PoisonMode)
    require.Equal(t, byte(0x5A), config.PoisonByte)
}
