package gantt

// Palette holds the hex RGB fills used for the overlay.
type Palette struct {
	Planned        string
	Actual         string
	SubtaskPlanned string
	SubtaskActual  string
}

// DefaultPalette is bright green / blue for tasks and pale green / purple
// for subtasks.
func DefaultPalette() Palette {
	return Palette{
		Planned:        "00CC00",
		Actual:         "0000FF",
		SubtaskPlanned: "90EE90",
		SubtaskActual:  "800080",
	}
}

// Color returns the fill for a status, or "" for StatusNone.
func (p Palette) Color(status Status, subtask bool) string {
	switch status {
	case StatusPlanned:
		if subtask {
			return p.SubtaskPlanned
		}
		return p.Planned
	case StatusActual:
		if subtask {
			return p.SubtaskActual
		}
		return p.Actual
	}
	return ""
}
