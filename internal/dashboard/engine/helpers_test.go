package engine

func right(r Rect) int  { return r.X + r.Width }
func bottom(r Rect) int { return r.Y + r.Height }

func findItem(rec Record, id WidgetID) (RecordItem, bool) {
	for _, item := range rec {
		if item.I == id {
			return item, true
		}
	}
	return RecordItem{}, false
}
