package pages

import (
    "context"
    "errors"
    "fmt"

    "github.com/stepwise-app/stepwise/internal/apperr"
    "github.com/stepwise-app/stepwise/internal/notification"
)

const msgConfigMissing = "Admin configuration not found. Please initialize the database using 'initdb'."

// ProgressResetter rolls every user back to the first onboarding step.
// The onboarding service satisfies it.
type ProgressResetter interface {
    ResetAllSteps(ctx context.Context) (int64, error)
}

// Service manages the page configuration and the global progress reset that
// follows every change to it.
type Service struct {
    repo     Repository
    users    ProgressResetter
    notifier notification.Notifier
}

// NewService builds a page configuration service.
func NewService(repo Repository, users ProgressResetter, notifier notification.Notifier) *Service {
    return &Service{repo: repo, users: users, notifier: notifier}
}

// Patch carries a partial configuration update. Nil fields keep the stored
// list; non-nil fields replace it wholesale, including with an empty list.
type Patch struct {
    Page1 *[]string
    Page2 *[]string
    Page3 *[]string
}

// Get returns the singleton configuration.
func (s *Service) Get(ctx context.Context) (Config, error) {
    cfg, err := s.repo.Get(ctx, DefaultName)
    if err != nil {
        return Config{}, mapMissing(err)
    }
    return cfg, nil
}

// Update applies the patch to the singleton configuration and then resets
// every user's progress to the first step. The two writes are separate
// statements: when the reset fails the configuration change stands and the
// caller sees an internal error.
func (s *Service) Update(ctx context.Context, patch Patch) (Config, error) {
    cfg, err := s.repo.Get(ctx, DefaultName)
    if err != nil {
        return Config{}, mapMissing(err)
    }

    if patch.Page1 != nil {
        cfg.Page1 = *patch.Page1
    }
    if patch.Page2 != nil {
        cfg.Page2 = *patch.Page2
    }
    if patch.Page3 != nil {
        cfg.Page3 = *patch.Page3
    }

    if err := s.repo.Save(ctx, cfg); err != nil {
        return Config{}, mapMissing(err)
    }

    count, err := s.users.ResetAllSteps(ctx)
    if err != nil {
        return Config{}, fmt.Errorf("page config saved but progress reset failed: %w", err)
    }

    if s.notifier != nil {
        _ = s.notifier.Send(ctx, notification.Message{
            Kind:        notification.KindPageConfigChanged,
            Destination: DefaultName,
            Body:        fmt.Sprintf("Page layout changed, %d users reset to step 1", count),
        })
    }

    return cfg, nil
}

func mapMissing(err error) error {
    if errors.Is(err, ErrNotFound) {
        return apperr.Internal(msgConfigMissing)
    }
    return err
}
