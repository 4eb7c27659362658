package access

// Level is the caller's resolved permission tier. Ordering matters:
// comparisons like level >= Poster gate the write path.
type Level int

const (
	None Level = iota
	Reader
	Poster
	Admin
)

func (l Level) String() string {
	switch l {
	case Reader:
		return "reader"
	case Poster:
		return "poster"
	case Admin:
		return "admin"
	default:
		return "none"
	}
}
