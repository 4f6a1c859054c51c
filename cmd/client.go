package cmd

import (
	"github.com/aleph-zero/guardstack/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Run a guardstack client",
	Long:  "Run an interactive guardstack client that sends command scripts to a server",
	Run: func(cmd *cobra.Command, args []string) {
		client.Bootstrap(clientConfig())
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a script file",
	Long:  "Send a command script file to a guardstack server one line at a time",
	Run: func(cmd *cobra.Command, args []string) {
		config := client.NewBatchConfig(
			client.WithClientConfig(clientConfig()),
			client.WithFilename(viper.GetString("client.batch.file")))
		client.BootstrapBatch(config)
	},
}

const (
	remoteAddr = "127.0.0.1"
	remotePort = 1234
)

func clientConfig() *client.Config {
	return client.NewConfig(
		client.WithRemoteAddr(viper.GetString("client.remote-addr")),
		client.WithRemotePort(viper.GetUint16("client.remote-port")))
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.PersistentFlags().String("client.remote-addr", remoteAddr, "Address to connect to")
	clientCmd.PersistentFlags().Uint16("client.remote-port", remotePort, "Port to connect to")

	viper.BindPFlag("client.remote-addr", clientCmd.PersistentFlags().Lookup("client.remote-addr"))
	viper.BindPFlag("client.remote-port", clientCmd.PersistentFlags().Lookup("client.remote-port"))

	clientCmd.AddCommand(batchCmd)
	batchCmd.Flags().String("client.batch.file", "", "Script file to run")
	batchCmd.MarkFlagRequired("client.batch.file")

	viper.BindPFlag("client.batch.file", batchCmd.Flags().Lookup("client.batch.file"))
}
