package routes

import (
    "encoding/json"
    "io"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/gofiber/fiber/v2"

    "github.com/stepwise-app/stepwise/internal/config"
    "github.com/stepwise-app/stepwise/internal/logging"
    "github.com/stepwise-app/stepwise/internal/middleware"
)

func devConfig() config.Config {
    return config.Config{
        AppName:            "stepwise-test",
        AppEnv:             "development",
        Port:               "8081",
        RegisterRateLimit:  100,
        RegisterRateWindow: time.Minute,
        IdempotencyTTL:     time.Minute,
    }
}

func setupApp(t *testing.T) *fiber.App {
    t.Helper()
    logger := logging.Discard()
    app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
    if err := Setup(app, Deps{Cfg: devConfig(), Logger: logger}); err != nil {
        t.Fatalf("setup: %v", err)
    }
    return app
}

func request(t *testing.T, app *fiber.App, method, target, payload string) (int, []byte) {
    t.Helper()
    var body io.Reader
    if payload != "" {
        body = strings.NewReader(payload)
    }
    req := httptest.NewRequest(method, target, body)
    if payload != "" {
        req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
    }
    resp, err := app.Test(req)
    if err != nil {
        t.Fatalf("app.Test: %v", err)
    }
    raw, err := io.ReadAll(resp.Body)
    if err != nil {
        t.Fatalf("read body: %v", err)
    }
    resp.Body.Close()
    return resp.StatusCode, raw
}

func decodeMap(t *testing.T, raw []byte) map[string]any {
    t.Helper()
    var decoded map[string]any
    if err := json.Unmarshal(raw, &decoded); err != nil {
        t.Fatalf("invalid json %s: %v", raw, err)
    }
    return decoded
}

func TestRootMessage(t *testing.T) {
    app := setupApp(t)

    status, raw := request(t, app, fiber.MethodGet, "/", "")
    if status != fiber.StatusOK {
        t.Fatalf("expected %d got %d", fiber.StatusOK, status)
    }
    if got := decodeMap(t, raw)["message"]; got != "Onboarding Backend is running!" {
        t.Fatalf("unexpected message %v", got)
    }
}

func TestHealthzWithStoresDisabled(t *testing.T) {
    app := setupApp(t)

    status, raw := request(t, app, fiber.MethodGet, "/healthz", "")
    if status != fiber.StatusOK {
        t.Fatalf("expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }
    body := decodeMap(t, raw)
    stores, _ := body["status"].(map[string]any)
    if stores["postgres"] != "disabled" || stores["redis"] != "disabled" {
        t.Fatalf("expected disabled stores, got %v", stores)
    }
    if body["env"] != "development" {
        t.Fatalf("expected development env, got %v", body["env"])
    }
}

func TestSetupRequiresDatabaseOutsideDev(t *testing.T) {
    cfg := devConfig()
    cfg.AppEnv = "production"

    app := fiber.New()
    if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err == nil {
        t.Fatalf("expected setup to fail without a database in production")
    }
}

func TestOnboardingFlow(t *testing.T) {
    app := setupApp(t)

    // Register with a string age, the way the web client sends it.
    status, raw := request(t, app, fiber.MethodPost, "/register",
        `{"username":"ada","email":"ada@example.com","password":"pw123456","age":"30"}`)
    if status != fiber.StatusCreated {
        t.Fatalf("register: expected %d got %d (%s)", fiber.StatusCreated, status, raw)
    }
    id, _ := decodeMap(t, raw)["userId"].(string)
    if !strings.HasPrefix(id, "backend-user-") {
        t.Fatalf("unexpected userId %q", id)
    }

    status, raw = request(t, app, fiber.MethodGet, "/user/"+id+"/progress", "")
    if status != fiber.StatusOK {
        t.Fatalf("progress: expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }
    body := decodeMap(t, raw)
    if body["currentStep"] != float64(1) {
        t.Fatalf("expected step 1, got %v", body["currentStep"])
    }
    data, _ := body["onboardingData"].(map[string]any)
    if data["email"] != "ada@example.com" || data["age"] != float64(30) {
        t.Fatalf("expected seeded data, got %v", data)
    }

    status, raw = request(t, app, fiber.MethodPut, "/user/"+id+"/update_data",
        `{"onboardingData":{"aboutMe":"hi","address":"1 Main St"},"currentStep":2}`)
    if status != fiber.StatusOK {
        t.Fatalf("update: expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }
    if got := decodeMap(t, raw)["currentStep"]; got != float64(2) {
        t.Fatalf("expected step 2, got %v", got)
    }

    // The default page layout is seeded for the in-memory store.
    status, raw = request(t, app, fiber.MethodGet, "/admin/config", "")
    if status != fiber.StatusOK {
        t.Fatalf("get config: expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }
    cfgBody := decodeMap(t, raw)
    page1, _ := cfgBody["page1"].([]any)
    if len(page1) != 2 || page1[0] != "email" || page1[1] != "age" {
        t.Fatalf("unexpected default page1 %v", cfgBody["page1"])
    }

    // A layout change resets every user back to the first step.
    status, raw = request(t, app, fiber.MethodPut, "/admin/config", `{"page2":["aboutMe"]}`)
    if status != fiber.StatusOK {
        t.Fatalf("put config: expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }
    cfgBody = decodeMap(t, raw)
    page2, _ := cfgBody["page2"].([]any)
    if len(page2) != 1 || page2[0] != "aboutMe" {
        t.Fatalf("expected replaced page2, got %v", cfgBody["page2"])
    }
    if got, _ := cfgBody["page1"].([]any); len(got) != 2 {
        t.Fatalf("expected page1 untouched, got %v", cfgBody["page1"])
    }

    status, raw = request(t, app, fiber.MethodGet, "/user/"+id+"/progress", "")
    if status != fiber.StatusOK {
        t.Fatalf("progress after reset: expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }
    body = decodeMap(t, raw)
    if body["currentStep"] != float64(1) {
        t.Fatalf("expected reset to step 1, got %v", body["currentStep"])
    }
    data, _ = body["onboardingData"].(map[string]any)
    if data["aboutMe"] != "hi" {
        t.Fatalf("collected data must survive a reset, got %v", data)
    }

    status, raw = request(t, app, fiber.MethodPost, "/user/"+id+"/complete", "")
    if status != fiber.StatusOK {
        t.Fatalf("complete: expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }

    status, raw = request(t, app, fiber.MethodGet, "/user/"+id+"/progress", "")
    if status != fiber.StatusOK {
        t.Fatalf("progress after complete: expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }
    if got := decodeMap(t, raw)["currentStep"]; got != float64(4) {
        t.Fatalf("expected completed step 4, got %v", got)
    }

    status, raw = request(t, app, fiber.MethodGet, "/admin/users", "")
    if status != fiber.StatusOK {
        t.Fatalf("list: expected %d got %d (%s)", fiber.StatusOK, status, raw)
    }
    var users []map[string]any
    if err := json.Unmarshal(raw, &users); err != nil {
        t.Fatalf("decode users: %v", err)
    }
    if len(users) != 1 || users[0]["id"] != id {
        t.Fatalf("unexpected user list %s", raw)
    }
    if strings.Contains(string(raw), "password") {
        t.Fatalf("user list must not leak password material: %s", raw)
    }

    status, _ = request(t, app, fiber.MethodDelete, "/admin/users/"+id, "")
    if status != fiber.StatusOK {
        t.Fatalf("delete: expected %d got %d", fiber.StatusOK, status)
    }

    status, raw = request(t, app, fiber.MethodGet, "/user/"+id+"/progress", "")
    if status != fiber.StatusNotFound {
        t.Fatalf("expected %d after delete, got %d (%s)", fiber.StatusNotFound, status, raw)
    }
    if got := decodeMap(t, raw)["error"]; got != "User not found." {
        t.Fatalf("unexpected error body %v", got)
    }
}

func TestAdminConfigRejectsMalformedBody(t *testing.T) {
    app := setupApp(t)

    status, _ := request(t, app, fiber.MethodPut, "/admin/config", `{"page2":`)
    if status != fiber.StatusBadRequest {
        t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
    }
}
