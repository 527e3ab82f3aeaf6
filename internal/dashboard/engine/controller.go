package engine

// ============================================================
// Pointer Events
// ============================================================

type EventKind uint8

const (
	PointerDown EventKind = iota + 1
	PointerMove
	PointerUp
)

func (k EventKind) String() string {
	switch k {
	case PointerDown:
		return "down"
	case PointerMove:
		return "move"
	case PointerUp:
		return "up"
	}
	return "unknown"
}

// PointerEvent описывает сырое событие указателя. Widget и Handle заполняются только для down:
// Handle != HandleNone означает нажатие на ручку изменения размера.
type PointerEvent struct {
	Kind   EventKind
	Pos    Point
	Widget WidgetID
	Handle Handle
}

// Capture подключает глобальные обработчики move/up на время активного жеста.
type Capture interface {
	Attach()
	Detach()
}

// Committer принимает раскладку по окончании жеста.
type Committer interface {
	Commit(Record)
}

type nopCapture struct{}

func (nopCapture) Attach() {}
func (nopCapture) Detach() {}

// ============================================================
// Pointer Interaction Controller
// ============================================================

// Controller реализует конечный автомат жестов поверх Layout.
// Однопоточный: все вызовы должны идти из одного потока (или под одним мьютексом).
type Controller struct {
	layout  *Layout
	state   Gesture
	capture Capture
	commit  Committer
	origin  Point
}

type Option func(*Controller)

func WithCapture(c Capture) Option {
	return func(ctrl *Controller) {
		if c != nil {
			ctrl.capture = c
		}
	}
}

func WithCommitter(c Committer) Option {
	return func(ctrl *Controller) {
		ctrl.commit = c
	}
}

// WithOrigin задаёт начало координат контейнера в пространстве указателя.
func WithOrigin(p Point) Option {
	return func(ctrl *Controller) {
		ctrl.origin = p
	}
}

func NewController(layout *Layout, opts ...Option) *Controller {
	c := &Controller{
		layout:  layout,
		state:   Idle{},
		capture: nopCapture{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() Gesture {
	return c.state
}

func (c *Controller) Active() bool {
	return !IsIdle(c.state)
}

func (c *Controller) SetOrigin(p Point) {
	c.origin = p
}

// Dispatch принимает все события указателя.
// Возвращает true, если событие было обработано.
func (c *Controller) Dispatch(ev PointerEvent) bool {
	switch ev.Kind {
	case PointerDown:
		// нажатие на ручку никогда не превращается в начало перетаскивания
		if ev.Handle != HandleNone {
			return c.StartResize(ev.Widget, ev.Handle, ev.Pos)
		}
		return c.StartDrag(ev.Widget, ev.Pos)
	case PointerMove:
		return c.Move(ev.Pos)
	case PointerUp:
		return c.End()
	}
	return false
}

// StartDrag начинает перетаскивание. Отклоняется, если жест уже идёт или виджет неизвестен.
func (c *Controller) StartDrag(id WidgetID, pos Point) bool {
	if c.Active() {
		return false
	}
	r, ok := c.layout.Rect(id)
	if !ok {
		return false
	}

	c.state = Dragging{
		ID:           id,
		PointerStart: pos,
		Offset: Point{
			X: pos.X - c.origin.X - float64(r.X),
			Y: pos.Y - c.origin.Y - float64(r.Y),
		},
	}
	c.capture.Attach()
	return true
}

// StartResize начинает изменение размера за ручку h.
func (c *Controller) StartResize(id WidgetID, h Handle, pos Point) bool {
	if c.Active() || !h.Valid() {
		return false
	}
	r, ok := c.layout.Rect(id)
	if !ok {
		return false
	}

	c.state = Resizing{
		ID:           id,
		Handle:       h,
		PointerStart: pos,
		StartRect:    r,
	}
	c.capture.Attach()
	return true
}

// Move обновляет геометрию активного виджета. Без активного жеста ничего не делает.
func (c *Controller) Move(pos Point) bool {
	switch g := c.state.(type) {
	case Dragging:
		c.drag(g, pos)
		return true
	case Resizing:
		c.resize(g, pos)
		return true
	}
	return false
}

// End завершает жест и отправляет раскладку на сохранение.
func (c *Controller) End() bool {
	if !c.Active() {
		return false
	}
	c.state = Idle{}
	c.capture.Detach()
	if c.commit != nil {
		c.commit.Commit(c.layout.Record())
	}
	return true
}

func (c *Controller) drag(g Dragging, pos Point) {
	current, ok := c.layout.Rect(g.ID)
	if !ok {
		// виджет удалён во время жеста
		return
	}
	c.layout.SetRect(g.ID, dragRect(c.layout.Grid(), current, pos, c.origin, g.Offset))
}

func (c *Controller) resize(g Resizing, pos Point) {
	if _, ok := c.layout.Rect(g.ID); !ok {
		return
	}
	dx := pos.X - g.PointerStart.X
	dy := pos.Y - g.PointerStart.Y
	c.layout.SetRect(g.ID, resizeRect(c.layout.Grid(), g.StartRect, g.Handle, dx, dy))
}

// ============================================================
// Geometry Rules
// ============================================================

func dragRect(g Grid, current Rect, pos, origin, offset Point) Rect {
	current.X = ClampMin(g.Snap(pos.X-origin.X-offset.X), 0)
	current.Y = ClampMin(g.Snap(pos.Y-origin.Y-offset.Y), 0)
	return current
}

func resizeRect(g Grid, start Rect, h Handle, dx, dy float64) Rect {
	x, width := resizeAxis(g, start.X, start.Width, dx, h.has(HandleW), h.has(HandleE), g.MinWidth)
	y, height := resizeAxis(g, start.Y, start.Height, dy, h.has(HandleN), h.has(HandleS), g.MinHeight)
	return Rect{
		X:      ClampMin(x, 0),
		Y:      ClampMin(y, 0),
		Width:  width,
		Height: height,
	}
}

// resizeAxis применяет правило ручки к одной оси.
// lead: край у начала координат (w/n), trail: дальний край (e/s).
// При движении lead противоположный край остаётся на месте: сдвиг начала считается
// из фактического изменения размера после ограничения минимумом.
func resizeAxis(g Grid, pos, size int, delta float64, lead, trail bool, minimum int) (int, int) {
	switch {
	case trail:
		return pos, ClampMin(g.Snap(float64(size)+delta), minimum)
	case lead:
		newSize := ClampMin(g.Snap(float64(size)-delta), minimum)
		if newSize == size {
			return pos, size
		}
		newPos := g.Snap(float64(pos + size - newSize))
		if newPos < 0 {
			// упёрлись в левый/верхний край контейнера
			return 0, pos + size
		}
		return newPos, newSize
	}
	return pos, size
}
