package profile

type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateEditing
	StateSaving
	StateSaveFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateEditing:
		return "editing"
	case StateSaving:
		return "saving"
	case StateSaveFailed:
		return "save_failed"
	default:
		return "unknown"
	}
}
