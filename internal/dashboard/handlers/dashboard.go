package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"home-panel/internal/common/middleware"
	"home-panel/internal/dashboard/engine"
	"home-panel/internal/dashboard/models"
	"home-panel/internal/dashboard/service"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
)

// LayoutReader читает сохранённую раскладку.
type LayoutReader interface {
	Load(ctx context.Context, userID string) (engine.Record, bool, error)
}

// ============================================================
// Dashboard Handler
// ============================================================

type DashboardHandler struct {
	workspaces  *service.Workspaces
	layouts     LayoutReader
	logger      *log.Logger
	saveTimeout time.Duration
}

func NewDashboardHandler(workspaces *service.Workspaces, layouts LayoutReader, logger *log.Logger) *DashboardHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &DashboardHandler{
		workspaces:  workspaces,
		layouts:     layouts,
		logger:      logger.WithPrefix("DASHBOARD"),
		saveTimeout: 5 * time.Second,
	}
}

// Register вешает маршруты на группу /api/dashboard. Группа уже защищена сессией.
func (h *DashboardHandler) Register(r fiber.Router) {
	r.Get("/widgets", h.Widgets)
	r.Post("/pointer", h.Pointer)
	r.Post("/layout/save", h.SaveLayout)
	r.Get("/layout", h.Layout)
	r.Post("/sync", h.Sync)
	r.Get("/stats", h.Stats)
}

type widgetsResponse struct {
	service.Snapshot
	Devices []models.Device `json:"devices"`
}

// Widgets отдаёт текущую проекцию панели вместе с данными устройств.
func (h *DashboardHandler) Widgets(c fiber.Ctx) error {
	w, err := h.workspaces.Open(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "open workspace", err)
	}
	return c.JSON(widgetsResponse{Snapshot: w.Snapshot(), Devices: w.Devices()})
}

type pointerRequest struct {
	Type   string        `json:"type"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
	Widget string        `json:"widget"`
	Handle string        `json:"handle"`
	Origin *engine.Point `json:"origin"`
}

type pointerResponse struct {
	service.Snapshot
	Handled bool `json:"handled"`
}

var eventKinds = map[string]engine.EventKind{
	"down": engine.PointerDown,
	"move": engine.PointerMove,
	"up":   engine.PointerUp,
}

// Pointer принимает одно событие указателя. Пока capture=true, клиент
// шлёт move/up с уровня документа, а не с виджета.
func (h *DashboardHandler) Pointer(c fiber.Ctx) error {
	var req pointerRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	kind, ok := eventKinds[req.Type]
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "type must be down, move or up")
	}
	ev := engine.PointerEvent{
		Kind:   kind,
		Pos:    engine.Point{X: req.X, Y: req.Y},
		Widget: engine.WidgetID(req.Widget),
	}
	if req.Handle != "" {
		handle, ok := engine.ParseHandle(req.Handle)
		if !ok {
			return fiber.NewError(http.StatusBadRequest, "unknown resize handle")
		}
		ev.Handle = handle
	}

	w, err := h.workspaces.Open(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "open workspace", err)
	}
	snapshot, handled := w.Dispatch(ev, req.Origin)
	return c.JSON(pointerResponse{Snapshot: snapshot, Handled: handled})
}

// SaveLayout сохраняет текущую раскладку и ждёт результата, чтобы вернуть сигнал.
func (h *DashboardHandler) SaveLayout(c fiber.Ctx) error {
	w, err := h.workspaces.Open(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "open workspace", err)
	}
	w.Save()

	ctx, cancel := context.WithTimeout(c.Context(), h.saveTimeout)
	defer cancel()
	if err := w.Flush(ctx); err != nil {
		h.logger.Warn("save still pending", "user", w.UserID(), "err", err)
	}
	return c.JSON(w.Snapshot())
}

// Layout отдаёт раскладку в том виде, в каком она лежит в базе (единицы сетки).
func (h *DashboardHandler) Layout(c fiber.Ctx) error {
	rec, ok, err := h.layouts.Load(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "load layout", err)
	}
	if !ok {
		rec = engine.Record{}
	}
	return c.JSON(fiber.Map{"layout": rec, "saved": ok})
}

func (h *DashboardHandler) Sync(c fiber.Ctx) error {
	w, err := h.workspaces.Sync(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "sync workspace", err)
	}
	return c.JSON(widgetsResponse{Snapshot: w.Snapshot(), Devices: w.Devices()})
}

func (h *DashboardHandler) Stats(c fiber.Ctx) error {
	w, err := h.workspaces.Open(c.Context(), middleware.UserID(c))
	if err != nil {
		return h.internal(c, "open workspace", err)
	}
	return c.JSON(w.Stats())
}

func (h *DashboardHandler) internal(c fiber.Ctx, op string, err error) error {
	h.logger.Error(op, "user", middleware.UserID(c), "err", err)
	return fiber.NewError(http.StatusInternalServerError, "internal server error")
}
