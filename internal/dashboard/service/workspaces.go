package service

import (
	"context"
	"fmt"
	"sync"

	"home-panel/internal/dashboard/engine"

	"github.com/charmbracelet/log"
)

// ============================================================
// Workspace Registry
// ============================================================

// Workspaces держит по одному Workspace на пользователя.
type Workspaces struct {
	devices DeviceLister
	layouts LayoutStore
	grid    engine.Grid
	logger  *log.Logger
	opts    []BridgeOption

	mu     sync.Mutex
	active map[string]*Workspace
	// закрывается, когда очередь сохранений закрываемого workspace пуста
	closing map[string]chan struct{}
}

func NewWorkspaces(devices DeviceLister, layouts LayoutStore, grid engine.Grid, logger *log.Logger, opts ...BridgeOption) *Workspaces {
	if logger == nil {
		logger = log.Default()
	}
	return &Workspaces{
		devices: devices,
		layouts: layouts,
		grid:    grid.Normalize(),
		logger:  logger.WithPrefix("DASHBOARD"),
		opts:    opts,
		active:  make(map[string]*Workspace),
		closing: make(map[string]chan struct{}),
	}
}

// Open возвращает открытый workspace пользователя или загружает его из хранилища.
// Если прежний workspace ещё закрывается, Open ждёт, пока его сохранения дойдут до базы.
func (ws *Workspaces) Open(ctx context.Context, userID string) (*Workspace, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	for {
		if w, ok := ws.active[userID]; ok {
			return w, nil
		}
		done, ok := ws.closing[userID]
		if !ok {
			break
		}
		ws.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			ws.mu.Lock()
			return nil, ctx.Err()
		}
		ws.mu.Lock()
	}

	opts := append([]BridgeOption{WithBridgeLogger(ws.logger.WithPrefix("BRIDGE"))}, ws.opts...)
	bridge := NewBridge(userID, ws.layouts, opts...)
	w := newWorkspace(userID, ws.grid, bridge, ws.logger)
	if err := w.Sync(ctx, ws.devices, ws.layouts); err != nil {
		bridge.Close()
		return nil, fmt.Errorf("open workspace: %w", err)
	}

	ws.active[userID] = w
	ws.logger.Info("workspace opened", "user", userID, "widgets", w.layout.Len())
	return w, nil
}

// Sync перечитывает устройства и раскладку открытого workspace.
func (ws *Workspaces) Sync(ctx context.Context, userID string) (*Workspace, error) {
	w, err := ws.Open(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := w.Sync(ctx, ws.devices, ws.layouts); err != nil {
		return nil, err
	}
	return w, nil
}

// Refresh применяет изменения каталога устройств к уже открытому workspace.
// Если workspace не открыт, делать нечего: он прочитает устройства при открытии.
func (ws *Workspaces) Refresh(ctx context.Context, userID string) error {
	ws.mu.Lock()
	w, ok := ws.active[userID]
	ws.mu.Unlock()
	if !ok {
		return nil
	}

	devices, err := ws.devices.ListDevices(ctx, userID)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	w.Refresh(devices)
	return nil
}

// Close фиксирует незавершённый жест, сохраняет очередь и забывает workspace пользователя.
func (ws *Workspaces) Close(userID string) {
	ws.mu.Lock()
	w, ok := ws.active[userID]
	if !ok {
		ws.mu.Unlock()
		return
	}
	done := ws.releaseLocked(userID)
	ws.mu.Unlock()

	pending := w.close()
	ws.finish(userID, done)
	ws.logger.Info("workspace closed", "user", userID, "flushed", pending)
}

func (ws *Workspaces) CloseAll() {
	ws.mu.Lock()
	all := ws.active
	dones := make(map[string]chan struct{}, len(all))
	for userID := range all {
		dones[userID] = ws.releaseLocked(userID)
	}
	ws.mu.Unlock()

	for userID, w := range all {
		w.close()
		ws.finish(userID, dones[userID])
	}
}

// releaseLocked убирает workspace из активных и помечает его закрывающимся.
func (ws *Workspaces) releaseLocked(userID string) chan struct{} {
	delete(ws.active, userID)
	done := make(chan struct{})
	ws.closing[userID] = done
	return done
}

func (ws *Workspaces) finish(userID string, done chan struct{}) {
	ws.mu.Lock()
	if ws.closing[userID] == done {
		delete(ws.closing, userID)
	}
	ws.mu.Unlock()
	close(done)
}

func (ws *Workspaces) Len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.active)
}
