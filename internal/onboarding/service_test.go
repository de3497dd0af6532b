package onboarding

import (
    "context"
    "errors"
    "strings"
    "testing"

    "github.com/stepwise-app/stepwise/internal/apperr"
)

func newTestService() *Service {
    return NewService(NewMemoryRepository(), nil)
}

func wantCode(t *testing.T, err error, code apperr.Code) *apperr.Error {
    t.Helper()
    if err == nil {
        t.Fatalf("expected %s error, got nil", code)
    }
    var ae *apperr.Error
    if !errors.As(err, &ae) {
        t.Fatalf("expected %s error, got %v", code, err)
    }
    if ae.Code != code {
        t.Fatalf("expected code %s, got %s (%s)", code, ae.Code, ae.Message)
    }
    return ae
}

func TestRegisterSeedsUser(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    user, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw123456", Age: 30})
    if err != nil {
        t.Fatalf("register: %v", err)
    }

    if !strings.HasPrefix(user.ID, "backend-user-") {
        t.Fatalf("unexpected id format %q", user.ID)
    }
    if len(user.ID) != len("backend-user-")+8 {
        t.Fatalf("expected 8 character id suffix, got %q", user.ID)
    }
    if user.CurrentStep != StepInitial {
        t.Fatalf("expected initial step, got %d", user.CurrentStep)
    }
    if user.Data["email"] != "ada@example.com" || user.Data["age"] != 30 {
        t.Fatalf("expected seeded onboarding data, got %v", user.Data)
    }
    if user.PasswordDigest == "pw123456" || user.PasswordDigest == "" {
        t.Fatalf("password must be stored as a digest")
    }
}

func TestRegisterRejectsInvalidAge(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    _, err := svc.Register(ctx, RegisterInput{Username: "kid", Email: "kid@example.com", Password: "pw", Age: 0})
    wantCode(t, err, apperr.CodeValidation)

    _, err = svc.Register(ctx, RegisterInput{Username: "kid", Email: "kid@example.com", Password: "pw", Age: -3})
    wantCode(t, err, apperr.CodeValidation)
}

func TestRegisterRejectsMinorsWithoutRecord(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    _, err := svc.Register(ctx, RegisterInput{Username: "kid", Email: "kid@example.com", Password: "pw", Age: 17})
    wantCode(t, err, apperr.CodeForbidden)

    users, err := svc.List(ctx)
    if err != nil {
        t.Fatalf("list: %v", err)
    }
    if len(users) != 0 {
        t.Fatalf("expected no records after rejected registration, got %d", len(users))
    }
}

func TestRegisterDuplicateEmailAndUsername(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    if _, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw", Age: 30}); err != nil {
        t.Fatalf("register: %v", err)
    }

    _, err := svc.Register(ctx, RegisterInput{Username: "other", Email: "ada@example.com", Password: "pw", Age: 30})
    ae := wantCode(t, err, apperr.CodeConflict)
    if ae.Message != msgEmailTaken {
        t.Fatalf("expected email conflict message, got %q", ae.Message)
    }

    _, err = svc.Register(ctx, RegisterInput{Username: "ada", Email: "new@example.com", Password: "pw", Age: 30})
    ae = wantCode(t, err, apperr.CodeConflict)
    if ae.Message != msgUsernameTaken {
        t.Fatalf("expected username conflict message, got %q", ae.Message)
    }

    users, err := svc.List(ctx)
    if err != nil {
        t.Fatalf("list: %v", err)
    }
    if len(users) != 1 {
        t.Fatalf("expected duplicate attempts to leave one record, got %d", len(users))
    }
}

func TestRegisterChecksEmailBeforeUsername(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    if _, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw", Age: 30}); err != nil {
        t.Fatalf("register: %v", err)
    }

    // Both fields collide; the email conflict must win.
    _, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw", Age: 30})
    ae := wantCode(t, err, apperr.CodeConflict)
    if ae.Message != msgEmailTaken {
        t.Fatalf("expected email conflict to be reported first, got %q", ae.Message)
    }
}

func TestAuthenticate(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    if _, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "secret99", Age: 30}); err != nil {
        t.Fatalf("register: %v", err)
    }

    user, err := svc.Authenticate(ctx, "ada@example.com", "secret99")
    if err != nil {
        t.Fatalf("authenticate: %v", err)
    }
    if user.Username != "ada" {
        t.Fatalf("expected ada, got %s", user.Username)
    }

    _, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
    wantCode(t, err, apperr.CodeUnauthorized)

    _, err = svc.Authenticate(ctx, "nobody@example.com", "secret99")
    wantCode(t, err, apperr.CodeUnauthorized)
}

func TestUpdateDataMergesShallow(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    user, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw", Age: 30})
    if err != nil {
        t.Fatalf("register: %v", err)
    }

    updated, err := svc.UpdateData(ctx, user.ID, UpdateInput{
        Data: map[string]any{"aboutMe": "hi", "age": 31},
        Step: 2,
    })
    if err != nil {
        t.Fatalf("update: %v", err)
    }

    if updated.Data["email"] != "ada@example.com" {
        t.Fatalf("stored keys must survive a merge, got %v", updated.Data)
    }
    if updated.Data["aboutMe"] != "hi" {
        t.Fatalf("new keys must be added, got %v", updated.Data)
    }
    if updated.Data["age"] != 31 {
        t.Fatalf("colliding keys must take the incoming value, got %v", updated.Data)
    }
    if updated.CurrentStep != 2 {
        t.Fatalf("expected step 2, got %d", updated.CurrentStep)
    }
}

func TestUpdateDataStepNeverRegresses(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    user, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw", Age: 30})
    if err != nil {
        t.Fatalf("register: %v", err)
    }

    if _, err := svc.UpdateData(ctx, user.ID, UpdateInput{Step: 3}); err != nil {
        t.Fatalf("advance: %v", err)
    }

    updated, err := svc.UpdateData(ctx, user.ID, UpdateInput{Step: 1})
    if err != nil {
        t.Fatalf("regress attempt: %v", err)
    }
    if updated.CurrentStep != 3 {
        t.Fatalf("step must not regress, got %d", updated.CurrentStep)
    }

    // An omitted step proposal leaves progress untouched.
    updated, err = svc.UpdateData(ctx, user.ID, UpdateInput{Data: map[string]any{"x": 1}})
    if err != nil {
        t.Fatalf("update without step: %v", err)
    }
    if updated.CurrentStep != 3 {
        t.Fatalf("omitted step must keep progress, got %d", updated.CurrentStep)
    }
}

func TestUpdateDataUnknownUser(t *testing.T) {
    svc := newTestService()
    _, err := svc.UpdateData(context.Background(), "backend-user-missing", UpdateInput{Step: 2})
    ae := wantCode(t, err, apperr.CodeNotFound)
    if ae.Message != msgUserNotFound {
        t.Fatalf("expected user not found message, got %q", ae.Message)
    }
}

func TestCompletePinsStep(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    user, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw", Age: 30})
    if err != nil {
        t.Fatalf("register: %v", err)
    }

    if err := svc.Complete(ctx, user.ID); err != nil {
        t.Fatalf("complete: %v", err)
    }
    got, err := svc.Progress(ctx, user.ID)
    if err != nil {
        t.Fatalf("progress: %v", err)
    }
    if got.CurrentStep != StepComplete {
        t.Fatalf("expected step %d, got %d", StepComplete, got.CurrentStep)
    }

    // Completing twice stays pinned.
    if err := svc.Complete(ctx, user.ID); err != nil {
        t.Fatalf("second complete: %v", err)
    }

    if err := svc.Complete(ctx, "backend-user-missing"); err == nil {
        t.Fatalf("expected not found for unknown user")
    }
}

func TestDeleteRemovesUser(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    user, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw", Age: 30})
    if err != nil {
        t.Fatalf("register: %v", err)
    }

    if err := svc.Delete(ctx, user.ID); err != nil {
        t.Fatalf("delete: %v", err)
    }

    _, err = svc.Progress(ctx, user.ID)
    wantCode(t, err, apperr.CodeNotFound)

    err = svc.Delete(ctx, user.ID)
    wantCode(t, err, apperr.CodeNotFound)
}

func TestResetAllSteps(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    first, err := svc.Register(ctx, RegisterInput{Username: "ada", Email: "ada@example.com", Password: "pw", Age: 30})
    if err != nil {
        t.Fatalf("register: %v", err)
    }
    second, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "pw", Age: 40})
    if err != nil {
        t.Fatalf("register: %v", err)
    }

    if _, err := svc.UpdateData(ctx, first.ID, UpdateInput{Step: 3}); err != nil {
        t.Fatalf("advance: %v", err)
    }
    if err := svc.Complete(ctx, second.ID); err != nil {
        t.Fatalf("complete: %v", err)
    }

    count, err := svc.ResetAllSteps(ctx)
    if err != nil {
        t.Fatalf("reset: %v", err)
    }
    if count != 2 {
        t.Fatalf("expected 2 users reset, got %d", count)
    }

    for _, id := range []string{first.ID, second.ID} {
        got, err := svc.Progress(ctx, id)
        if err != nil {
            t.Fatalf("progress: %v", err)
        }
        if got.CurrentStep != StepInitial {
            t.Fatalf("expected step reset for %s, got %d", id, got.CurrentStep)
        }
    }
}
