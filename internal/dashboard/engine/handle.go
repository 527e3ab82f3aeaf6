package engine

// ============================================================
// Resize Handles
// ============================================================

// Handle задаёт набор краёв, которые двигает ручка изменения размера.
type Handle uint8

const HandleNone Handle = 0

const (
	HandleN Handle = 1 << iota
	HandleS
	HandleE
	HandleW
)

const (
	HandleNE = HandleN | HandleE
	HandleNW = HandleN | HandleW
	HandleSE = HandleS | HandleE
	HandleSW = HandleS | HandleW
)

var handleNames = map[Handle]string{
	HandleN:  "n",
	HandleS:  "s",
	HandleE:  "e",
	HandleW:  "w",
	HandleNE: "ne",
	HandleNW: "nw",
	HandleSE: "se",
	HandleSW: "sw",
}

// ParseHandle разбирает имя ручки: n, s, e, w, ne, nw, se, sw.
func ParseHandle(s string) (Handle, bool) {
	for h, name := range handleNames {
		if name == s {
			return h, true
		}
	}
	return HandleNone, false
}

// Valid сообщает, что ручка входит в восемь допустимых.
func (h Handle) Valid() bool {
	_, ok := handleNames[h]
	return ok
}

func (h Handle) String() string {
	if name, ok := handleNames[h]; ok {
		return name
	}
	return ""
}

func (h Handle) has(edge Handle) bool {
	return h&edge != 0
}

func (h Handle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}
