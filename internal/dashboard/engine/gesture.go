package engine

// ============================================================
// Gesture State
// ============================================================

// Gesture описывает текущее состояние жеста: Idle, Dragging или Resizing.
type Gesture interface {
	// Target возвращает виджет активного жеста; для Idle пустую строку.
	Target() WidgetID
	gesture()
}

type Idle struct{}

// Dragging: перетаскивание за тело виджета.
type Dragging struct {
	ID           WidgetID
	PointerStart Point
	// Offset хранит положение указателя внутри виджета в координатах контейнера.
	Offset Point
}

// Resizing: изменение размера за одну из восьми ручек.
type Resizing struct {
	ID           WidgetID
	Handle       Handle
	PointerStart Point
	StartRect    Rect
}

func (Idle) Target() WidgetID       { return "" }
func (g Dragging) Target() WidgetID { return g.ID }
func (g Resizing) Target() WidgetID { return g.ID }

func (Idle) gesture()     {}
func (Dragging) gesture() {}
func (Resizing) gesture() {}

// IsIdle сообщает, что активного жеста нет.
func IsIdle(g Gesture) bool {
	_, ok := g.(Idle)
	return ok || g == nil
}
