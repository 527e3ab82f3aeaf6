package engine

// View описывает виджет для отрисовки.
type View struct {
	ID       WidgetID `json:"id"`
	Rect     Rect     `json:"rect"`
	Dragging bool     `json:"isBeingDragged"`
	Resizing bool     `json:"isBeingResized"`
}

// Project строит список виджетов в порядке устройств и отмечает тот, что сейчас двигается.
func Project(l *Layout, g Gesture) []View {
	target := WidgetID("")
	if g != nil {
		target = g.Target()
	}
	_, dragging := g.(Dragging)
	_, resizing := g.(Resizing)

	views := make([]View, 0, l.Len())
	for _, id := range l.order {
		active := target != "" && id == target
		views = append(views, View{
			ID:       id,
			Rect:     l.rects[id],
			Dragging: active && dragging,
			Resizing: active && resizing,
		})
	}
	return views
}
