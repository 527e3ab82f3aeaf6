package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"home-panel/internal/common/middleware"
	"home-panel/internal/dashboard/models"
	"home-panel/internal/dashboard/repository"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
)

// DeviceStore ведёт каталог устройств.
type DeviceStore interface {
	ListDevices(ctx context.Context, userID string) ([]models.Device, error)
	UpsertDevice(ctx context.Context, userID string, d models.Device) error
	DeleteDevice(ctx context.Context, userID, id string) error
}

// Refresher применяет изменения каталога к открытой панели.
type Refresher interface {
	Refresh(ctx context.Context, userID string) error
}

// ============================================================
// Devices Handler
// ============================================================

type DevicesHandler struct {
	devices    DeviceStore
	workspaces Refresher
	logger     *log.Logger
}

func NewDevicesHandler(devices DeviceStore, workspaces Refresher, logger *log.Logger) *DevicesHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &DevicesHandler{devices: devices, workspaces: workspaces, logger: logger.WithPrefix("DEVICES")}
}

func (h *DevicesHandler) Register(r fiber.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Upsert)
	r.Delete("/:id", h.Delete)
}

func (h *DevicesHandler) List(c fiber.Ctx) error {
	list, err := h.devices.ListDevices(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "list devices", err)
	}
	if list == nil {
		list = []models.Device{}
	}
	return c.JSON(fiber.Map{"devices": list})
}

type deviceRequest struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Enabled  *bool          `json:"enabled"`
	IsOnline bool           `json:"isOnline"`
	Data     map[string]any `json:"data"`
}

// Upsert добавляет или обновляет устройство. enabled по умолчанию true.
func (h *DevicesHandler) Upsert(c fiber.Ctx) error {
	var req deviceRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	if req.ID == "" {
		return fiber.NewError(http.StatusBadRequest, "device id is required")
	}

	d := models.Device{
		ID:       req.ID,
		Name:     req.Name,
		Type:     req.Type,
		Enabled:  req.Enabled == nil || *req.Enabled,
		IsOnline: req.IsOnline,
		Data:     req.Data,
	}
	userID := middleware.UserID(c)
	if err := h.devices.UpsertDevice(c.Context(), userID, d); err != nil {
		return h.internal(c, "upsert device", err)
	}
	h.refresh(c, userID)
	return c.Status(http.StatusCreated).JSON(d)
}

func (h *DevicesHandler) Delete(c fiber.Ctx) error {
	userID := middleware.UserID(c)
	err := h.devices.DeleteDevice(c.Context(), userID, c.Params("id"))
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "device not found")
	}
	if err != nil {
		return h.internal(c, "delete device", err)
	}
	h.refresh(c, userID)
	return c.JSON(fiber.Map{"message": "device deleted"})
}

// refresh не проваливает запрос: каталог уже изменён, панель догонит при Sync.
func (h *DevicesHandler) refresh(c fiber.Ctx, userID string) {
	if err := h.workspaces.Refresh(c.Context(), userID); err != nil {
		h.logger.Warn("workspace refresh failed", "user", userID, "err", err)
	}
}

func (h *DevicesHandler) internal(c fiber.Ctx, op string, err error) error {
	h.logger.Error(op, "user", middleware.UserID(c), "err", err)
	return fiber.NewError(http.StatusInternalServerError, "internal server error")
}
