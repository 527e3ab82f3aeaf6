package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"home-panel/internal/common/middleware"
	dashrepo "home-panel/internal/dashboard/repository"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Dashboard Config (legacy)
// ============================================================

// GetDashboardConfig отдаёт раскладку целиком, как её ждёт старый клиент.
func (h *AuthHandler) GetDashboardConfig(c fiber.Ctx) error {
	doc, ok, err := h.layouts.LoadDocument(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "load dashboard config", err)
	}
	if !ok {
		return c.JSON(fiber.Map{"config": fiber.Map{}})
	}
	return c.JSON(fiber.Map{"config": doc})
}

type dashboardConfigRequest struct {
	Config json.RawMessage `json:"config"`
}

func (h *AuthHandler) SaveDashboardConfig(c fiber.Ctx) error {
	var req dashboardConfigRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if err := h.saveLayout(c, req.Config); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "dashboard configuration saved"})
}

// ============================================================
// User Settings
// ============================================================

func (h *AuthHandler) ListSettings(c fiber.Ctx) error {
	settings, err := h.repo.ListSettings(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "list settings", err)
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *AuthHandler) GetSetting(c fiber.Ctx) error {
	key := c.Params("key")
	value, ok, err := h.repo.GetSetting(c.Context(), middleware.UserID(c), key)
	if err != nil {
		return h.internal(c, "get setting", err)
	}
	if !ok {
		return c.JSON(fiber.Map{"key": key, "value": nil})
	}
	return c.JSON(fiber.Map{"key": key, "value": value})
}

type settingRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (h *AuthHandler) SaveSetting(c fiber.Ctx) error {
	var req settingRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Key == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "setting key is required"})
	}
	if err := h.storeSetting(c, req.Key, req.Value); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "user setting saved successfully"})
}

func (h *AuthHandler) UpdateSetting(c fiber.Ctx) error {
	var req settingRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if err := h.storeSetting(c, c.Params("key"), req.Value); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "user setting updated successfully"})
}

// storeSetting сохраняет значение как строку. Раскладка идёт через
// LayoutRepository, чтобы в базе всегда лежал документ одного формата.
func (h *AuthHandler) storeSetting(c fiber.Ctx, key string, raw json.RawMessage) error {
	value := settingValue(raw)
	if key == dashrepo.LayoutSettingKey {
		return h.saveLayout(c, []byte(value))
	}
	if err := h.repo.SaveSetting(c.Context(), middleware.UserID(c), key, value); err != nil {
		return h.internal(c, "save setting", err)
	}
	return nil
}

func (h *AuthHandler) saveLayout(c fiber.Ctx, data []byte) error {
	userID := middleware.UserID(c)
	rec, err := dashrepo.DecodeLayout(data)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid layout")
	}
	// открытая панель фиксирует незавершённый жест и дописывает свою очередь,
	// а при следующем обращении перечитает раскладку из базы
	h.workspaces.Close(userID)
	if err := h.layouts.SaveLayout(c.Context(), userID, rec); err != nil {
		return h.internal(c, "save layout", err)
	}
	h.logger.Info("layout replaced", "user", userID, "widgets", len(rec))
	return nil
}

// settingValue разворачивает JSON-строку; остальные значения хранятся как JSON.
func settingValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if trimmed[0] == '"' && json.Unmarshal(trimmed, &s) == nil {
		return s
	}
	return string(trimmed)
}
