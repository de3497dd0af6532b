package pages

import (
    "context"
    "sync"
)

type memoryRepository struct {
    mu      sync.RWMutex
    configs map[string]Config
}

// NewMemoryRepository constructs an in-memory configuration store for
// development and tests. It starts empty; callers seed it with EnsureDefault.
func NewMemoryRepository() Repository {
    return &memoryRepository{configs: make(map[string]Config)}
}

func (r *memoryRepository) Get(_ context.Context, name string) (Config, error) {
    r.mu.RLock()
    defer r.mu.RUnlock()
    cfg, ok := r.configs[name]
    if !ok {
        return Config{}, ErrNotFound
    }
    return cloneConfig(cfg), nil
}

func (r *memoryRepository) Save(_ context.Context, cfg Config) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if _, ok := r.configs[cfg.Name]; !ok {
        return ErrNotFound
    }
    r.configs[cfg.Name] = cloneConfig(cfg)
    return nil
}

func (r *memoryRepository) EnsureDefault(_ context.Context, cfg Config) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if _, ok := r.configs[cfg.Name]; ok {
        return nil
    }
    r.configs[cfg.Name] = cloneConfig(cfg)
    return nil
}

func cloneConfig(cfg Config) Config {
    out := Config{Name: cfg.Name}
    out.Page1 = append([]string{}, cfg.Page1...)
    out.Page2 = append([]string{}, cfg.Page2...)
    out.Page3 = append([]string{}, cfg.Page3...)
    return out
}
