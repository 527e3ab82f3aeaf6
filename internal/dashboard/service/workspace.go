package service

import (
	"context"
	"fmt"
	"math"
	"sync"

	"home-panel/internal/dashboard/engine"
	"home-panel/internal/dashboard/models"

	"github.com/charmbracelet/log"
)

// DeviceLister читает каталог устройств пользователя.
type DeviceLister interface {
	ListDevices(ctx context.Context, userID string) ([]models.Device, error)
}

// LayoutStore читает и пишет сохранённые раскладки.
type LayoutStore interface {
	Saver
	Load(ctx context.Context, userID string) (engine.Record, bool, error)
}

// ============================================================
// Capture
// ============================================================

// captureFlag запоминает, должны ли у клиента висеть глобальные обработчики move/up.
type captureFlag struct {
	attached bool
}

func (c *captureFlag) Attach() { c.attached = true }
func (c *captureFlag) Detach() { c.attached = false }

// ============================================================
// Workspace
// ============================================================

// Snapshot содержит то, что клиент рисует после каждого события.
type Snapshot struct {
	Widgets   []engine.View `json:"widgets"`
	Capturing bool          `json:"capture"`
	Signal    *Signal       `json:"signal,omitempty"`
}

// Workspace держит живую панель одного пользователя. Все изменения раскладки
// проходят под одним мьютексом, он же играет роль единственного UI-потока.
type Workspace struct {
	userID string
	logger *log.Logger

	mu      sync.Mutex
	devices []models.Device
	layout  *engine.Layout
	ctrl    *engine.Controller
	capture *captureFlag
	bridge  *Bridge
}

func newWorkspace(userID string, grid engine.Grid, bridge *Bridge, logger *log.Logger) *Workspace {
	layout := engine.NewLayout(grid)
	capture := &captureFlag{}
	return &Workspace{
		userID:  userID,
		logger:  logger,
		layout:  layout,
		capture: capture,
		bridge:  bridge,
		ctrl: engine.NewController(layout,
			engine.WithCapture(capture),
			engine.WithCommitter(bridge),
		),
	}
}

func (w *Workspace) UserID() string {
	return w.userID
}

// Snapshot возвращает текущее состояние без изменений.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Dispatch передаёт событие указателя контроллеру. origin, если задан,
// обновляет положение контейнера перед обработкой события.
func (w *Workspace) Dispatch(ev engine.PointerEvent, origin *engine.Point) (Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if origin != nil {
		w.ctrl.SetOrigin(*origin)
	}
	handled := w.ctrl.Dispatch(ev)
	if !handled {
		w.logger.Debug("pointer event ignored", "user", w.userID, "kind", ev.Kind, "widget", ev.Widget)
	}
	return w.snapshotLocked(), handled
}

// Refresh применяет новый список устройств, сохраняя текущую геометрию.
func (w *Workspace) Refresh(devices []models.Device) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reconcileLocked(devices, w.layout.Record())
}

// Sync перечитывает устройства и сохранённую раскладку из хранилища.
// Перед чтением дожидается уже отправленных сохранений.
func (w *Workspace) Sync(ctx context.Context, devices DeviceLister, layouts LayoutStore) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.bridge.Flush(ctx); err != nil {
		return fmt.Errorf("flush saves: %w", err)
	}
	list, err := devices.ListDevices(ctx, w.userID)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	persisted, ok, err := layouts.Load(ctx, w.userID)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	if !ok {
		persisted = nil
	}
	w.reconcileLocked(list, persisted)
	return nil
}

// Save отправляет текущую раскладку на сохранение вне жеста.
func (w *Workspace) Save() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bridge.Commit(w.layout.Record())
}

// Flush ждёт, пока все отправленные раскладки дойдут до хранилища.
func (w *Workspace) Flush(ctx context.Context) error {
	return w.bridge.Flush(ctx)
}

func (w *Workspace) Record() engine.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.layout.Record()
}

// Devices возвращает копию списка включённых устройств.
func (w *Workspace) Devices() []models.Device {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Device(nil), w.devices...)
}

// Stats считает сводку по включённым устройствам.
func (w *Workspace) Stats() models.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ComputeStats(w.devices)
}

// close фиксирует незавершённый жест и дожидается очереди сохранений.
// Возвращает число сохранений, которые ещё не были записаны на момент закрытия.
func (w *Workspace) close() int {
	w.mu.Lock()
	if w.ctrl.Active() {
		w.logger.Info("committing unfinished gesture", "user", w.userID, "widget", w.ctrl.State().Target())
		w.ctrl.End()
	}
	pending := w.bridge.Pending()
	w.mu.Unlock()

	w.bridge.Close()
	return pending
}

func (w *Workspace) reconcileLocked(devices []models.Device, persisted engine.Record) {
	enabled := make([]models.Device, 0, len(devices))
	ids := make([]engine.WidgetID, 0, len(devices))
	for _, d := range devices {
		if !d.Enabled {
			continue
		}
		enabled = append(enabled, d)
		ids = append(ids, engine.WidgetID(d.ID))
	}
	w.devices = enabled
	w.layout.Reconcile(ids, persisted)
}

func (w *Workspace) snapshotLocked() Snapshot {
	s := Snapshot{
		Widgets:   engine.Project(w.layout, w.ctrl.State()),
		Capturing: w.capture.attached,
	}
	if sig, ok := w.bridge.Signal(); ok {
		s.Signal = &sig
	}
	return s
}

// ============================================================
// Quick Stats
// ============================================================

func ComputeStats(devices []models.Device) models.Stats {
	stats := models.Stats{TotalDevices: len(devices)}

	var tempSum, humSum float64
	var tempN, humN int
	for _, d := range devices {
		if d.IsOnline {
			stats.OnlineDevices++
		} else {
			stats.OfflineDevices++
		}
		if v, ok := number(d.Data["Temp"]); ok {
			tempSum += v
			tempN++
		}
		if v, ok := number(d.Data["Humidity"]); ok {
			humSum += v
			humN++
		}
		if d.Data["Door"] == "Open" || d.Data["Motion"] == "Detected" || d.Data["Status"] == "Wet" {
			stats.Alerts++
		}
	}
	if tempN > 0 {
		stats.Temperature = round1(tempSum / float64(tempN))
	}
	if humN > 0 {
		stats.Humidity = round1(humSum / float64(humN))
	}
	return stats
}

// number принимает только ненулевые числа: нулевое показание считается отсутствующим.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	return f, f != 0
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
