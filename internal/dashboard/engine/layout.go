package engine

// ============================================================
// Layout Store
// ============================================================

// Layout хранит в памяти авторитетную геометрию виджетов.
// Не потокобезопасен: владелец сериализует доступ сам.
type Layout struct {
	grid  Grid
	order []WidgetID
	rects map[WidgetID]Rect
}

func NewLayout(grid Grid) *Layout {
	return &Layout{
		grid:  grid.Normalize(),
		rects: make(map[WidgetID]Rect),
	}
}

func (l *Layout) Grid() Grid {
	return l.grid
}

// Reconcile сводит список устройств с сохранённой раскладкой.
// Каждый id получает ровно одну запись: из persisted (единицы сетки -> пиксели)
// или по умолчанию в три колонки. Записи для исчезнувших id отбрасываются.
func (l *Layout) Reconcile(ids []WidgetID, persisted Record) {
	saved := make(map[WidgetID]RecordItem, len(persisted))
	for _, item := range persisted {
		if _, dup := saved[item.I]; !dup {
			saved[item.I] = item
		}
	}

	order := make([]WidgetID, 0, len(ids))
	rects := make(map[WidgetID]Rect, len(ids))
	for _, id := range ids {
		if _, dup := rects[id]; dup {
			continue
		}
		index := len(order)
		if item, ok := saved[id]; ok {
			rects[id] = l.fromItem(item)
		} else {
			rects[id] = l.defaultRect(index)
		}
		order = append(order, id)
	}

	l.order = order
	l.rects = rects
}

// SetRect заменяет геометрию виджета. Неизвестный id игнорируется.
func (l *Layout) SetRect(id WidgetID, r Rect) bool {
	if _, ok := l.rects[id]; !ok {
		return false
	}
	l.rects[id] = r
	return true
}

func (l *Layout) Rect(id WidgetID) (Rect, bool) {
	r, ok := l.rects[id]
	return r, ok
}

func (l *Layout) IDs() []WidgetID {
	out := make([]WidgetID, len(l.order))
	copy(out, l.order)
	return out
}

func (l *Layout) Len() int {
	return len(l.order)
}

// Record переводит пиксели в единицы сетки в порядке списка устройств.
func (l *Layout) Record() Record {
	out := make(Record, 0, len(l.order))
	for _, id := range l.order {
		r := l.rects[id]
		out = append(out, RecordItem{
			I: id,
			X: l.grid.ToUnits(r.X),
			Y: l.grid.ToUnits(r.Y),
			W: l.grid.ToUnits(r.Width),
			H: l.grid.ToUnits(r.Height),
		})
	}
	return out
}

func (l *Layout) defaultRect(index int) Rect {
	g := l.grid
	col := index % 3
	row := index / 3
	return Rect{
		X:      col * (g.DefaultWidth + 2*g.Size),
		Y:      row * (g.DefaultHeight + 2*g.Size),
		Width:  g.DefaultWidth,
		Height: g.DefaultHeight,
	}
}

// fromItem восстанавливает пиксели и приводит их к инвариантам Rect.
func (l *Layout) fromItem(item RecordItem) Rect {
	g := l.grid
	return Rect{
		X:      ClampMin(g.ToPixels(item.X), 0),
		Y:      ClampMin(g.ToPixels(item.Y), 0),
		Width:  ClampMin(g.ToPixels(item.W), g.MinWidth),
		Height: ClampMin(g.ToPixels(item.H), g.MinHeight),
	}
}
