package engine

import (
	"testing"

	"gotest.tools/v3/assert"
)

func ids(names ...string) []WidgetID {
	out := make([]WidgetID, len(names))
	for i, n := range names {
		out[i] = WidgetID(n)
	}
	return out
}

func TestReconcile_DefaultFlow(t *testing.T) {
	l := NewLayout(DefaultGrid())
	l.Reconcile(ids("a", "b", "c", "d"), nil)

	want := []Rect{
		{X: 0, Y: 0, Width: 300, Height: 250},
		{X: 320, Y: 0, Width: 300, Height: 250},
		{X: 640, Y: 0, Width: 300, Height: 250},
		{X: 0, Y: 270, Width: 300, Height: 250},
	}
	for i, id := range l.IDs() {
		r, ok := l.Rect(id)
		assert.Assert(t, ok)
		assert.Equal(t, r, want[i], "widget %s", id)
	}
}

func TestReconcile_UsesPersistedAndDropsMissing(t *testing.T) {
	l := NewLayout(DefaultGrid())
	persisted := Record{
		{I: "b", X: 5, Y: 6, W: 40, H: 30},
		{I: "gone", X: 1, Y: 1, W: 20, H: 20},
	}
	l.Reconcile(ids("a", "b"), persisted)

	assert.DeepEqual(t, l.IDs(), ids("a", "b"))

	b, ok := l.Rect("b")
	assert.Assert(t, ok)
	assert.Equal(t, b, Rect{X: 50, Y: 60, Width: 400, Height: 300})

	a, _ := l.Rect("a")
	assert.Equal(t, a, Rect{X: 0, Y: 0, Width: 300, Height: 250})

	_, ok = l.Rect("gone")
	assert.Assert(t, !ok)
}

func TestReconcile_NormalizesPersisted(t *testing.T) {
	l := NewLayout(DefaultGrid())
	l.Reconcile(ids("a"), Record{{I: "a", X: -3, Y: 2, W: 5, H: 1}})

	r, _ := l.Rect("a")
	assert.Equal(t, r, Rect{X: 0, Y: 20, Width: MinWidth, Height: MinHeight})
}

func TestReconcile_DuplicateIDsKeepFirst(t *testing.T) {
	l := NewLayout(DefaultGrid())
	l.Reconcile(ids("a", "a", "b"), nil)

	assert.Equal(t, l.Len(), 2)
	b, _ := l.Rect("b")
	assert.Equal(t, b.X, 320)
}

func TestReconcile_Idempotent(t *testing.T) {
	devices := ids("a", "b", "c", "d", "e")

	first := NewLayout(DefaultGrid())
	first.Reconcile(devices, nil)

	second := NewLayout(DefaultGrid())
	second.Reconcile(devices, first.Record())

	assert.DeepEqual(t, Project(second, Idle{}), Project(first, Idle{}))

	// повторный вызов на том же хранилище ничего не меняет
	before := first.Record()
	first.Reconcile(devices, first.Record())
	assert.DeepEqual(t, first.Record(), before)
}

func TestSetRect_UnknownIDIsNoop(t *testing.T) {
	l := NewLayout(DefaultGrid())
	l.Reconcile(ids("a"), nil)

	assert.Assert(t, !l.SetRect("ghost", Rect{Width: 300, Height: 300}))
	assert.Equal(t, l.Len(), 1)
	_, ok := l.Rect("ghost")
	assert.Assert(t, !ok)

	assert.Assert(t, l.SetRect("a", Rect{X: 10, Y: 10, Width: 200, Height: 150}))
	r, _ := l.Rect("a")
	assert.Equal(t, r.X, 10)
}

func TestRecord_GridUnits(t *testing.T) {
	l := NewLayout(DefaultGrid())
	l.Reconcile(ids("a", "b"), nil)
	l.SetRect("b", Rect{X: 330, Y: 20, Width: 410, Height: 160})

	assert.DeepEqual(t, l.Record(), Record{
		{I: "a", X: 0, Y: 0, W: 30, H: 25},
		{I: "b", X: 33, Y: 2, W: 41, H: 16},
	})
}

func TestRecordFind(t *testing.T) {
	rec := Record{{I: "a", X: 1}, {I: "b", X: 2}}

	item, ok := findItem(rec, "b")
	assert.Assert(t, ok)
	assert.Equal(t, item.X, 2)

	_, ok = findItem(rec, "c")
	assert.Assert(t, !ok)
}
