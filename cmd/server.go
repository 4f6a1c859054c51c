package cmd

import (
    "fmt"
    "os"

    "github.com/aleph-zero/guardstack/server"
    "github.com/spf13/cobra"
    "github.com/spf13/viper"
)

var serverCmd = &cobra.Command{
    Use:   "server",
    Short: "Run a guardstack server",
    Long:  "Run a guardstack server hosting named stacks over HTTP",
    Run: func(cmd *cobra.Command, args []string) {
        options, err := stackOptions()
        if err != nil {
            fmt.Fprintln(os.Stderr, err)
            os.Exit(1)
        }

        config := server.NewConfig(
            server.WithAddress(viper.GetString("server.addr")),
            server.WithPort(viper.GetUint16("server.port")),
            server.WithMemoryLimit(viper.GetInt("stack.memory-limit")),
            server.WithReportFile(viper.GetString("stack.report-file")),
            server.WithStackOptions(options...))
        server.Bootstrap(config)
    },
}

const (
    apiListenAddr = "0.0.0.0"
    apiListenPort = 1234
)

func init() {
    rootCmd.AddCommand(serverCmd)

    serverCmd.PersistentFlags().String("server.addr", apiListenAddr, "Address to bind to")
    serverCmd.PersistentFlags().Uint16("server.port", apiListenPort, "Port to listen on")

    viper.BindPFlag("server.addr", serverCmd.PersistentFlags().Lookup("server.addr"))
    viper.BindPFlag("server.port", serverCmd.PersistentFlags().Lookup("server.port"))
}
