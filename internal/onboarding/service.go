package onboarding

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "golang.org/x/crypto/bcrypt"

    "github.com/stepwise-app/stepwise/internal/apperr"
    "github.com/stepwise-app/stepwise/internal/notification"
)

// Client-facing messages. The frontend matches on these strings, so they are
// part of the wire contract.
const (
    msgFieldsRequired = "Username, email, password, and age are required."
    msgAgeNotNumber   = "Age must be a valid number."
    msgAgeInvalid     = "Invalid age provided."
    msgAgeUnderage    = "Cannot Onboard You, Please have an adult to register your details."
    msgEmailTaken     = "User with this email already exists."
    msgUsernameTaken  = "User with this username already exists."
    msgUserNotFound   = "User not found."
    msgRegistered     = "User registered successfully."
    msgCompleted      = "Onboarding completed successfully!"
)

const adultAge = 18

// Service manages the onboarding lifecycle of users.
type Service struct {
    repo     Repository
    notifier notification.Notifier
}

// NewService creates a new onboarding service.
func NewService(repo Repository, notifier notification.Notifier) *Service {
    return &Service{repo: repo, notifier: notifier}
}

// RegisterInput captures a validated registration request.
type RegisterInput struct {
    Username string
    Email    string
    Password string
    Age      int
}

// Register creates a user with a hashed password, a seeded onboarding
// document and the initial step. Age gating happens before any uniqueness
// check so an underage attempt never reaches storage.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
    if input.Age < 1 {
        return User{}, apperr.Validation(msgAgeInvalid)
    }
    if input.Age < adultAge {
        return User{}, apperr.Forbidden(msgAgeUnderage)
    }

    digest, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
    if err != nil {
        return User{}, err
    }

    user := User{
        ID:             newUserID(),
        Username:       input.Username,
        Email:          input.Email,
        PasswordDigest: string(digest),
        Age:            input.Age,
        Data:           map[string]any{"email": input.Email, "age": input.Age},
        CurrentStep:    StepInitial,
        CreatedAt:      time.Now().UTC(),
    }

    if err := s.repo.Create(ctx, user); err != nil {
        switch {
        case errors.Is(err, ErrEmailTaken):
            return User{}, apperr.Conflict(msgEmailTaken)
        case errors.Is(err, ErrUsernameTaken):
            return User{}, apperr.Conflict(msgUsernameTaken)
        }
        return User{}, err
    }

    return user, nil
}

// Authenticate verifies an email/password pair against the stored digest.
// It never issues tokens; callers only learn whether the credentials match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
    user, err := s.repo.FindByEmail(ctx, email)
    if err != nil {
        if errors.Is(err, ErrNotFound) {
            return User{}, apperr.Unauthorized("invalid credentials")
        }
        return User{}, err
    }

    if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordDigest), []byte(password)); err != nil {
        return User{}, apperr.Unauthorized("invalid credentials")
    }

    return user, nil
}

// Progress returns the user's stored onboarding state.
func (s *Service) Progress(ctx context.Context, id string) (User, error) {
    user, err := s.repo.FindByID(ctx, id)
    if err != nil {
        return User{}, mapNotFound(err)
    }
    return user, nil
}

// UpdateInput carries a partial onboarding submission. A zero Step means the
// client did not propose one.
type UpdateInput struct {
    Data map[string]any
    Step int
}

// UpdateData shallow-merges the submitted document into the stored one and
// advances the step monotonically: the stored step only changes when the
// proposal is higher.
func (s *Service) UpdateData(ctx context.Context, id string, input UpdateInput) (User, error) {
    user, err := s.repo.FindByID(ctx, id)
    if err != nil {
        return User{}, mapNotFound(err)
    }

    merged := mergeData(user.Data, input.Data)
    step := user.CurrentStep
    if input.Step > step {
        step = input.Step
    }

    updated, err := s.repo.UpdateProgress(ctx, id, merged, step)
    if err != nil {
        return User{}, mapNotFound(err)
    }
    return updated, nil
}

// Complete pins the user's step to StepComplete regardless of prior state.
func (s *Service) Complete(ctx context.Context, id string) error {
    user, err := s.repo.FindByID(ctx, id)
    if err != nil {
        return mapNotFound(err)
    }

    if err := s.repo.SetStep(ctx, id, StepComplete); err != nil {
        return mapNotFound(err)
    }

    if s.notifier != nil {
        _ = s.notifier.Send(ctx, notification.Message{
            Kind:        notification.KindOnboardingComplete,
            Destination: user.Email,
            Body:        fmt.Sprintf("User %s finished onboarding", user.ID),
        })
    }

    return nil
}

// List returns every registered user.
func (s *Service) List(ctx context.Context) ([]User, error) {
    return s.repo.List(ctx)
}

// Delete removes a user permanently.
func (s *Service) Delete(ctx context.Context, id string) error {
    if err := s.repo.Delete(ctx, id); err != nil {
        return mapNotFound(err)
    }
    return nil
}

// ResetAllSteps rolls every user back to the first step. The page
// configuration service calls this after a layout change so users revisit
// the flow with the new components.
func (s *Service) ResetAllSteps(ctx context.Context) (int64, error) {
    return s.repo.ResetAllSteps(ctx)
}

func mapNotFound(err error) error {
    if errors.Is(err, ErrNotFound) {
        return apperr.NotFound(msgUserNotFound)
    }
    return err
}

// mergeData overlays incoming top-level keys onto the stored document.
// Last writer wins per key; stored keys absent from the submission survive.
func mergeData(stored, incoming map[string]any) map[string]any {
    merged := make(map[string]any, len(stored)+len(incoming))
    for k, v := range stored {
        merged[k] = v
    }
    for k, v := range incoming {
        merged[k] = v
    }
    return merged
}

func newUserID() string {
    return "backend-user-" + uuid.NewString()[:8]
}
