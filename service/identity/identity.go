package identity

import (
    "github.com/aleph-zero/guardstack/engine"
    "github.com/google/uuid"
)

type Service interface {
    Identify() Model
}

type ServiceProvider struct {
    model Model
}

// NewService describes this server: a fresh instance id, where it listens
// and the detector settings its stacks are created with.
func NewService(version, address string, port uint16, memoryLimit int, options ...engine.Option) Service {
    cfg := engine.NewConfig(options...)
    return &ServiceProvider{model: Model{
        Identity: uuid.NewString(),
        Version:  version,
        Address:  address,
        Port:     port,
        Detectors: Detectors{
            Canary:      cfg.Canary,
            Hash:        cfg.Hash,
            Poison:      cfg.Poison,
            PoisonMode:  cfg.PoisonMode.String(),
            PoisonByte:  cfg.PoisonByte,
            MemoryLimit: memoryLimit,
        },
    }}
}

func (sp ServiceProvider) Identify() Model {
    return sp.model
}

type Model struct {
    Identity  string    `json:"identity"`
    Version   string    `json:"version"`
    Address   string    `json:"address"`
    Port      uint16    `json:"port"`
    Detectors Detectors `json:"detectors"`
}

type Detectors struct {
    Canary      bool   `json:"canary"`
    Hash        bool   `json:"hash"`
    Poison      bool   `json:"poison"`
    PoisonMode  string `json:"poisonMode"`
    PoisonByte  byte   `json:"poisonByte"`
    MemoryLimit int    `json:"memoryLimit"`
}
