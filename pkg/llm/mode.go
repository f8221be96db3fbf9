package llm

// Mode tags which provider a request is dispatched to.
type Mode string

const (
	ModeOpenRouter Mode = "openrouter"
)

// Modes lists every provider mode the dispatcher understands.
func Modes() []Mode {
	return []Mode{ModeOpenRouter}
}

// Valid reports whether m is a known provider mode.
func (m Mode) Valid() bool {
	for _, known := range Modes() {
		if m == known {
			return true
		}
	}
	return false
}
