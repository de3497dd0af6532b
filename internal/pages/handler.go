package pages

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the admin page configuration endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a page configuration HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type configResponse struct {
	Page1 []string `json:"page1"`
	Page2 []string `json:"page2"`
	Page3 []string `json:"page3"`
}

// updateRequest uses pointers so an omitted page keeps its stored list while
// an explicit empty list clears it.
type updateRequest struct {
	Page1 *[]string `json:"page1"`
	Page2 *[]string `json:"page2"`
	Page3 *[]string `json:"page3"`
}

// Get returns the current page configuration.
func (h *Handler) Get(c *fiber.Ctx) error {
	cfg, err := h.service.Get(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(cfg))
}

// Update applies a partial configuration change and returns the result.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	cfg, err := h.service.Update(c.UserContext(), Patch{
		Page1: req.Page1,
		Page2: req.Page2,
		Page3: req.Page3,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(cfg))
}

func toResponse(cfg Config) configResponse {
	return configResponse{Page1: cfg.Page1, Page2: cfg.Page2, Page3: cfg.Page3}
}
