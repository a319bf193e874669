package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/pkg/util"
)

// FormConfigHandler serves the stored ticket form configuration.
type FormConfigHandler struct {
	configs repository.FormConfigRepository
}

// NewFormConfigHandler constructs handler.
func NewFormConfigHandler(configs repository.FormConfigRepository) *FormConfigHandler {
	return &FormConfigHandler{configs: configs}
}

// Get GET /tickets/config/formConfig.
func (h *FormConfigHandler) Get(c *fiber.Ctx) error {
	config, err := h.configs.Get(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"formConfig": config})
}

// Update PUT /tickets/config/formConfig.
func (h *FormConfigHandler) Update(c *fiber.Ctx) error {
	var req dto.FormConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}

	updates := map[string]any{}
	if req.Fields != nil {
		updates["fields"] = req.Fields
	}
	if req.ModuleOptions != nil {
		updates["moduleOptions"] = req.ModuleOptions
	}
	if req.CategoryOptions != nil {
		updates["categoryOptions"] = req.CategoryOptions
	}
	if req.SubCategoryOptions != nil {
		updates["subCategoryOptions"] = req.SubCategoryOptions
	}

	config, err := h.configs.Upsert(c.UserContext(), updates)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"formConfig": config})
}
