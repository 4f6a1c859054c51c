package cmd

import (
    "fmt"
    "os"
    "path/filepath"

    "github.com/spf13/cobra"
    "github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
    Use:   "guardstack",
    Short: "Integrity-checked stacks",
    Long:  `guardstack: growable stacks that detect their own corruption`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
    err := rootCmd.Execute()
    if err != nil {
        os.Exit(1)
    }
}

func init() {
    cobra.OnInitialize(initConfig)

    rootCmd.PersistentFlags().StringVar(
        &cfgFile, "config", "", "config file (default is $HOME/.config/guardstack/guardstack.yaml)")
    addStackFlags(rootCmd.PersistentFlags())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
    if cfgFile != "" {
        viper.SetConfigFile(cfgFile) // use config file from the flag.
    } else {
        home, err := os.UserHomeDir()
        cobra.CheckErr(err)

        viper.AddConfigPath(filepath.Join(home, ".config/guardstack"))
        viper.SetConfigType("yaml")
        viper.SetConfigName("guardstack")
    }

    viper.AutomaticEnv() // read in environment variables that match

    if err := viper.ReadInConfig(); err != nil {
        // it's ok if we don't have a config file, we can fall back to defaults
        if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
            fmt.Fprintln(os.Stderr, err)
            os.Exit(1)
        }
    }
}
