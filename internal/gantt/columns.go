package gantt

import "strings"

// Field is one of the four schedule dates a task row can carry.
type Field int

const (
	PlannedStart Field = iota
	PlannedEnd
	ActualStart
	ActualEnd
	fieldCount
)

var fieldNames = [fieldCount]string{"planned_start", "planned_end", "actual_start", "actual_end"}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "unknown"
	}
	return fieldNames[f]
}

// Fields returns all date fields in detection order.
func Fields() []Field {
	return []Field{PlannedStart, PlannedEnd, ActualStart, ActualEnd}
}

// ParseField maps a field name such as "planned_start" back to its Field.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Keywords lists the lower-case header substrings that identify each field.
type Keywords map[Field][]string

// DefaultKeywords returns the built-in header keywords.
func DefaultKeywords() Keywords {
	return Keywords{
		PlannedStart: {"planned start", "start date", "planned begin"},
		PlannedEnd:   {"planned end", "end date", "planned finish"},
		ActualStart:  {"actual start", "start actual"},
		ActualEnd:    {"actual end", "actual finish"},
	}
}

// Columns records which header index holds each field.
type Columns struct {
	// 1-based so the zero value means "nothing detected"
	pos [fieldCount]int
}

// Index returns the 0-based column index of a field.
func (c Columns) Index(f Field) (int, bool) {
	if f < 0 || f >= fieldCount || c.pos[f] == 0 {
		return -1, false
	}
	return c.pos[f] - 1, true
}

// Set records the 0-based column index of a field.
func (c *Columns) Set(f Field, index int) {
	if f < 0 || f >= fieldCount || index < 0 {
		return
	}
	c.pos[f] = index + 1
}

// Any reports whether at least one field was detected.
func (c Columns) Any() bool {
	for _, p := range c.pos {
		if p != 0 {
			return true
		}
	}
	return false
}

// Headers returns the detected header name per field.
func (c Columns) Headers(headers []string) map[Field]string {
	found := make(map[Field]string)
	for _, f := range Fields() {
		if idx, ok := c.Index(f); ok && idx < len(headers) {
			found[f] = headers[idx]
		}
	}
	return found
}

// ColumnResolver maps a sheet's headers to date fields when keyword
// detection finds none.
type ColumnResolver interface {
	ResolveColumns(sheet string, headers []string) (Columns, error)
}

// Detector finds date columns by case-insensitive keyword search.
type Detector struct {
	keywords [fieldCount][]string
}

// NewDetector builds a detector from the default keywords, replacing the
// list of any field present in overrides with a non-empty list.
func NewDetector(overrides Keywords) *Detector {
	d := &Detector{}
	defaults := DefaultKeywords()
	for _, f := range Fields() {
		list := defaults[f]
		if custom := overrides[f]; len(custom) > 0 {
			list = custom
		}
		for _, kw := range list {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				d.keywords[f] = append(d.keywords[f], kw)
			}
		}
	}
	return d
}

// Detect returns, for each field, the first header containing one of the
// field's keywords.
func (d *Detector) Detect(headers []string) Columns {
	var cols Columns
	for _, f := range Fields() {
		if idx := d.findColumn(headers, d.keywords[f]); idx >= 0 {
			cols.Set(f, idx)
		}
	}
	return cols
}

func (d *Detector) findColumn(headers []string, keywords []string) int {
	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		for _, kw := range keywords {
			if strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}
