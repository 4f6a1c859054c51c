package registry

import (
    "context"
    "errors"
    "fmt"
    "slices"
    "sync"

    "github.com/aleph-zero/guardstack/engine"
    "github.com/aleph-zero/guardstack/engine/guard"
    "github.com/aleph-zero/guardstack/engine/types"
    log "github.com/go-chi/httplog/v2"
)

type Service interface {
    Create(ctx context.Context, name string, typ types.Type, capacity int) (Instance, error)
    Get(name string) (Instance, error)
    Names() []string
    Destroy(ctx context.Context, name string) error
}

type ServiceProvider struct {
    lock   sync.RWMutex
    config *Config
    stacks map[string]Instance
}

func NewService(options ...Option) Service {
    return &ServiceProvider{
        config: NewConfig(options...),
        stacks: make(map[string]Instance),
    }
}

// Create constructs a stack of the given element type and registers it under
// name. A stack that fails to construct is not registered.
func (s *ServiceProvider) Create(ctx context.Context, name string, typ types.Type, capacity int) (Instance, error) {
    s.lock.Lock()
    defer s.lock.Unlock()

    if _, ok := s.stacks[name]; ok {
        log.LogEntry(ctx).Error("Stack already exists", "stack", name)
        return nil, Error{
            ErrorCode: StackExists,
            Message:   fmt.Sprintf("stack %s already exists", name),
        }
    }

    inst, err := s.newInstance(name, typ)
    if err != nil {
        return nil, err
    }

    if err = inst.construct(capacity); err != nil {
        log.LogEntry(ctx).Error("Error constructing stack", "stack", name, "type", typ, "error", err)
        return nil, fmt.Errorf("constructing stack %s: %w", name, err)
    }

    s.stacks[name] = inst
    log.LogEntry(ctx).Info("Stack created", "stack", name, "type", typ, "capacity", capacity)
    return inst, nil
}

func (s *ServiceProvider) Get(name string) (Instance, error) {
    s.lock.RLock()
    defer s.lock.RUnlock()

    inst, ok := s.stacks[name]
    if !ok {
        return nil, noSuchStack(name)
    }
    return inst, nil
}

// Names returns the registered stack names in sorted order.
func (s *ServiceProvider) Names() []string {
    s.lock.RLock()
    defer s.lock.RUnlock()

    names := make([]string, 0, len(s.stacks))
    for k := range s.stacks {
        names = append(names, k)
    }
    slices.Sort(names)
    return names
}

// Destroy destroys the named stack and removes it from the registry. The
// stack is removed even when destruction reports corruption; that diagnosis
// is returned.
func (s *ServiceProvider) Destroy(ctx context.Context, name string) error {
    s.lock.Lock()
    defer s.lock.Unlock()

    inst, ok := s.stacks[name]
    if !ok {
        return noSuchStack(name)
    }
    delete(s.stacks, name)

    if err := inst.Destroy(); err != nil {
        log.LogEntry(ctx).Error("Error destroying stack", "stack", name, "error", err)
        return fmt.Errorf("destroying stack %s: %w", name, err)
    }
    log.LogEntry(ctx).Info("Stack destroyed", "stack", name)
    return nil
}

func (s *ServiceProvider) newInstance(name string, typ types.Type) (Instance, error) {
    options := s.stackOptions(name)
    switch typ {
    case types.INTEGER:
        return newInstance(name, typ, engine.NumberCodec[int64](), parseInt[int64](64), formatInt[int64], options), nil
    case types.INT32:
        return newInstance(name, typ, engine.NumberCodec[int32](), parseInt[int32](32), formatInt[int32], options), nil
    case types.FLOAT:
        return newInstance(name, typ, engine.NumberCodec[float64](), parseFloat, formatFloat, options), nil
    case types.BYTE:
        return newInstance(name, typ, engine.NumberCodec[uint8](), parseByte, formatByte, options), nil
    default:
        return nil, Error{
            ErrorCode: InvalidType,
            Message:   fmt.Sprintf("stack %s has unsupported element type %s", name, typ),
        }
    }
}

func (s *ServiceProvider) stackOptions(name string) []engine.Option {
    options := slices.Clone(s.config.StackOptions)
    options = append(options, engine.WithCallSite(engine.CallSite{Label: name}))
    if s.config.MemoryLimit > 0 {
        options = append(options, engine.WithAllocator(guard.NewLimitAllocator(s.config.MemoryLimit)))
    }
    return options
}

func noSuchStack(name string) error {
    return Error{
        ErrorCode: NoSuchStack,
        Message:   fmt.Sprintf("stack %s does not exist", name),
    }
}

/* *** Registry Config *** */

type Config struct {
    MemoryLimit  int
    StackOptions []engine.Option
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
    cfg := &Config{}
    for _, option := range options {
        option(cfg)
    }
    return cfg
}

// WithMemoryLimit gives every stack its own allocator capped at limit bytes.
func WithMemoryLimit(limit int) Option {
    return func(config *Config) {
        config.MemoryLimit = limit
    }
}

func WithStackOptions(options ...engine.Option) Option {
    return func(config *Config) {
        config.StackOptions = append(config.StackOptions, options...)
    }
}

/* *** Errors *** */

type ErrorCode int

const (
    StackExists ErrorCode = iota + 1
    NoSuchStack
    InvalidType
    InvalidValue
)

type Error struct {
    ErrorCode ErrorCode
    Message   string
    Err       error
}

func (e Error) Error() string {
    if e.Err != nil {
        return e.Message + ": " + e.Err.Error()
    }
    return e.Message
}

func (e Error) Unwrap() error {
    return e.Err
}

func (e Error) Is(target error) bool {
    var other Error
    if !errors.As(target, &other) {
        return false
    }
    ignoreErrorCode := other.ErrorCode == 0
    ignoreMessage := other.Message == ""
    matchErrorCode := other.ErrorCode == e.ErrorCode
    matchMessage := other.Message == e.Message

    return matchMessage && matchErrorCode || matchMessage && ignoreErrorCode || ignoreMessage && matchErrorCode
}
