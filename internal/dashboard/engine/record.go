package engine

// ============================================================
// Geometry
// ============================================================

// WidgetID совпадает с id устройства.
type WidgetID string

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect хранит геометрию виджета в пикселях.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ============================================================
// Persisted Layout Record
// ============================================================

// RecordItem хранит геометрию одного виджета в единицах сетки.
type RecordItem struct {
	I WidgetID `json:"i"`
	X int      `json:"x"`
	Y int      `json:"y"`
	W int      `json:"w"`
	H int      `json:"h"`
}

// Record сериализуется в базу. Порядок элементов совпадает с порядком устройств.
type Record []RecordItem
