package onboarding

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stepwise-app/stepwise/internal/apperr"
)

// Handler exposes onboarding endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an onboarding HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// registerRequest leaves age untyped because clients send it both as a JSON
// number and as a numeric string.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Age      any    `json:"age"`
}

type registerResponse struct {
	Message        string         `json:"message"`
	UserID         string         `json:"userId"`
	OnboardingData map[string]any `json:"onboardingData"`
	CurrentStep    int            `json:"currentStep"`
	Username       string         `json:"username"`
}

type userResponse struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	Email          string         `json:"email"`
	Age            int            `json:"age"`
	OnboardingData map[string]any `json:"onboardingData"`
	CurrentStep    int            `json:"currentStep"`
	CreatedAt      string         `json:"created_at"`
}

type updateRequest struct {
	OnboardingData map[string]any `json:"onboardingData"`
	CurrentStep    *int           `json:"currentStep"`
}

type authenticateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if req.Username == "" || req.Email == "" || req.Password == "" || ageMissing(req.Age) {
		return apperr.Validation(msgFieldsRequired)
	}

	age, ok := parseAge(req.Age)
	if !ok {
		return apperr.Validation(msgAgeNotNumber)
	}

	user, err := h.service.Register(c.UserContext(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Age:      age,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(registerResponse{
		Message:        msgRegistered,
		UserID:         user.ID,
		OnboardingData: user.Data,
		CurrentStep:    user.CurrentStep,
		Username:       user.Username,
	})
}

// Authenticate verifies a password against the stored digest. No session or
// token is created.
func (h *Handler) Authenticate(c *fiber.Ctx) error {
	var req authenticateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"userId":      user.ID,
		"username":    user.Username,
		"currentStep": user.CurrentStep,
	})
}

// Progress returns the stored onboarding state for a user.
func (h *Handler) Progress(c *fiber.Ctx) error {
	user, err := h.service.Progress(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(user))
}

// UpdateData merges submitted onboarding data and advances the step.
func (h *Handler) UpdateData(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	input := UpdateInput{Data: req.OnboardingData}
	if req.CurrentStep != nil {
		input.Step = *req.CurrentStep
	}

	user, err := h.service.UpdateData(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(user))
}

// Complete marks the onboarding flow finished for a user.
func (h *Handler) Complete(c *fiber.Ctx) error {
	if err := h.service.Complete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": msgCompleted})
}

// List returns every registered user.
func (h *Handler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, toResponse(user))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Delete removes a user by identifier.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": fmt.Sprintf("User %s deleted successfully.", id),
	})
}

func toResponse(user User) userResponse {
	return userResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		Age:            user.Age,
		OnboardingData: user.Data,
		CurrentStep:    user.CurrentStep,
		CreatedAt:      user.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// ageMissing treats absent values, empty strings, zero numbers and false as
// "not provided". The string "0" counts as provided and fails the minimum
// age check instead.
func ageMissing(v any) bool {
	switch a := v.(type) {
	case nil:
		return true
	case string:
		return a == ""
	case float64:
		return a == 0
	case bool:
		return !a
	}
	return false
}

// parseAge accepts JSON numbers and numeric strings. Fractional numbers
// truncate toward zero.
func parseAge(v any) (int, bool) {
	switch a := v.(type) {
	case float64:
		return int(a), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
