package cmd

import (
    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/engine/poison"
    "github.com/spf13/pflag"
    "github.com/spf13/viper"
)

// addStackFlags registers the detector settings shared by every command that
// hosts stacks.
func addStackFlags(flags *pflag.FlagSet) {
    flags.Bool("stack.canary", true, "Guard the element storage with canary words")
    flags.Bool("stack.hash", true, "Keep a content hash of the element storage")
    flags.Bool("stack.poison", true, "Fill free slots with the poison byte and scan for it")
    flags.String("stack.poison-mode", "byte", "Live slot poison scan: byte or slot")
    flags.Uint8("stack.poison-byte", poison.DefaultByte, "Poison byte value")
    flags.Int("stack.memory-limit", 0, "Bytes each stack may allocate, guards included (0 for unlimited)")
    flags.String("stack.report-file", "", "Append diagnosis reports to this file")

    for _, key := range []string{"stack.canary", "stack.hash", "stack.poison", "stack.poison-mode",
        "stack.poison-byte", "stack.memory-limit", "stack.report-file"} {
        viper.BindPFlag(key, flags.Lookup(key))
    }
}

// stackOptions turns the configured detector settings into engine options.
func stackOptions() ([]engine.Option, error) {
    mode, err := engine.ParsePoisonMode(viper.GetString("stack.poison-mode"))
    if err != nil {
        return nil, err
    }
    return []engine.Option{
        engine.WithCanary(viper.GetBool("stack.canary")),
        engine.WithHash(viper.GetBool("stack.hash")),
        engine.WithPoison(viper.GetBool("stack.poison")),
        engine.WithPoisonMode(mode),
        engine.WithPoisonByte(uint8(viper.GetUint("stack.poison-byte"))),
    }, nil
}
