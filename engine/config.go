package engine

import (
    "fmt"
    "log/slog"
    "strings"

    "github.com/aleph-zero/guardstack/engine/checksum"
    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/poison"
)

// PoisonMode selects how live slots are scanned for poison.
type PoisonMode int

const (
    // PoisonByteScan flags a live slot holding any poison byte.
    PoisonByteScan PoisonMode = iota
    // PoisonSlotScan flags a live slot only when all of its bytes are poison.
    PoisonSlotScan
)

func (m PoisonMode) String() string {
    switch m {
    case PoisonByteScan:
        return "byte"
    case PoisonSlotScan:
        return "slot"
    default:
        return fmt.Sprintf("PoisonMode(%d)", m)
    }
}

func ParsePoisonMode(s string) (PoisonMode, error) {
    switch strings.ToLower(s) {
    case "", "byte":
        return PoisonByteScan, nil
    case "slot":
        return PoisonSlotScan, nil
    default:
        return -1, fmt.Errorf("invalid poison mode: %s", s)
    }
}

/* *** Stack Config *** */

type Config struct {
    Canary     bool
    Hash       bool
    Poison     bool
    PoisonMode PoisonMode
    PoisonByte byte
    Hasher     checksum.Func
    Allocator  guard.Allocator
    Reporter   Reporter
    Logger     *slog.Logger
    CallSite   CallSite
}

type Option func(*Config)

// NewConfig returns a config with every detector enabled.
func NewConfig(options ...Option) *Config {
    cfg := &Config{
        Canary:     true,
        Hash:       true,
        Poison:     true,
        PoisonMode: PoisonByteScan,
        PoisonByte: poison.DefaultByte,
        Hasher:     checksum.XXHash,
    }
    for _, option := range options {
        option(cfg)
    }
    if cfg.Allocator == nil {
        cfg.Allocator = guard.NewGoAllocator()
    }
    if cfg.Hasher == nil {
        cfg.Hasher = checksum.XXHash
    }
    return cfg
}

func WithCanary(enabled bool) Option {
    return func(c *Config) {
        c.Canary = enabled
    }
}

func WithHash(enabled bool) Option {
    return func(c *Config) {
        c.Hash = enabled
    }
}

func WithPoison(enabled bool) Option {
    return func(c *Config) {
        c.Poison = enabled
    }
}

func WithPoisonMode(mode PoisonMode) Option {
    return func(c *Config) {
        c.PoisonMode = mode
    }
}

func WithPoisonByte(b byte) Option {
    return func(c *Config) {
        c.PoisonByte = b
    }
}

func WithHasher(hasher checksum.Func) Option {
    return func(c *Config) {
        c.Hasher = hasher
    }
}

func WithAllocator(allocator guard.Allocator) Option {
    return func(c *Config) {
        c.Allocator = allocator
    }
}

func WithReporter(reporter Reporter) Option {
    return func(c *Config) {
        c.Reporter = reporter
    }
}

func WithLogger(logger *slog.Logger) Option {
    return func(c *Config) {
        c.Logger = logger
    }
}

func WithCallSite(site CallSite) Option {
    return func(c *Config) {
        c.CallSite = site
    }
}
