package onboarding

import (
    "context"
    "sort"
    "sync"
)

type memoryRepository struct {
    mu    sync.RWMutex
    users map[string]User
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
    return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    for _, existing := range r.users {
        if existing.Email == user.Email {
            return ErrEmailTaken
        }
    }
    for _, existing := range r.users {
        if existing.Username == user.Username {
            return ErrUsernameTaken
        }
    }
    user.Data = cloneData(user.Data)
    r.users[user.ID] = user
    return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
    r.mu.RLock()
    defer r.mu.RUnlock()
    user, ok := r.users[id]
    if !ok {
        return User{}, ErrNotFound
    }
    user.Data = cloneData(user.Data)
    return user, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
    r.mu.RLock()
    defer r.mu.RUnlock()
    for _, user := range r.users {
        if user.Email == email {
            user.Data = cloneData(user.Data)
            return user, nil
        }
    }
    return User{}, ErrNotFound
}

func (r *memoryRepository) UpdateProgress(_ context.Context, id string, data map[string]any, step int) (User, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    user, ok := r.users[id]
    if !ok {
        return User{}, ErrNotFound
    }
    user.Data = cloneData(data)
    user.CurrentStep = step
    r.users[id] = user
    user.Data = cloneData(user.Data)
    return user, nil
}

func (r *memoryRepository) SetStep(_ context.Context, id string, step int) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    user, ok := r.users[id]
    if !ok {
        return ErrNotFound
    }
    user.CurrentStep = step
    r.users[id] = user
    return nil
}

func (r *memoryRepository) ResetAllSteps(_ context.Context) (int64, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    for id, user := range r.users {
        user.CurrentStep = StepInitial
        r.users[id] = user
    }
    return int64(len(r.users)), nil
}

func (r *memoryRepository) List(_ context.Context) ([]User, error) {
    r.mu.RLock()
    defer r.mu.RUnlock()
    users := make([]User, 0, len(r.users))
    for _, user := range r.users {
        user.Data = cloneData(user.Data)
        users = append(users, user)
    }
    sort.Slice(users, func(i, j int) bool {
        if users[i].CreatedAt.Equal(users[j].CreatedAt) {
            return users[i].ID < users[j].ID
        }
        return users[i].CreatedAt.Before(users[j].CreatedAt)
    })
    return users, nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if _, ok := r.users[id]; !ok {
        return ErrNotFound
    }
    delete(r.users, id)
    return nil
}

// cloneData copies the top level of an onboarding document so callers cannot
// mutate stored state through shared references.
func cloneData(data map[string]any) map[string]any {
    if data == nil {
        return map[string]any{}
    }
    out := make(map[string]any, len(data))
    for k, v := range data {
        out[k] = v
    }
    return out
}
