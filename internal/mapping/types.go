package mapping

import (
	"strings"

	"ganttfmt/internal/gantt"
)

// NoMatch is the role the model answers for headers that hold no schedule date.
const NoMatch = "NO_MATCH"

// RoleMapping is one model-suggested header → date field assignment.
type RoleMapping struct {
	Header     string      `json:"header"`
	Field      gantt.Field `json:"-"`
	Role       string      `json:"role"`
	Confidence float64     `json:"confidence"`
}

// ColumnsFromMappings resolves suggested headers to column indices. Each
// field keeps its most confident header; headers are matched exactly first,
// then case-insensitively after trimming.
func ColumnsFromMappings(headers []string, mappings []RoleMapping) gantt.Columns {
	var cols gantt.Columns
	best := make(map[gantt.Field]float64)

	for _, m := range mappings {
		idx := headerIndex(headers, m.Header)
		if idx < 0 {
			continue
		}
		if conf, seen := best[m.Field]; seen && conf >= m.Confidence {
			continue
		}
		best[m.Field] = m.Confidence
		cols.Set(m.Field, idx)
	}

	return cols
}

func headerIndex(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for i, h := range headers {
		if strings.ToLower(strings.TrimSpace(h)) == name {
			return i
		}
	}
	return -1
}
