package preview

import (
	"strings"
	"testing"
	"time"

	"ganttfmt/internal/gantt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func sampleSheets() []gantt.SheetTimeline {
	var cols gantt.Columns
	cols.Set(gantt.PlannedStart, 2)
	cols.Set(gantt.PlannedEnd, 3)

	table := &gantt.Table{
		Name:    "Plan",
		Headers: []string{"Task S. No", "Task", "Planned Start", "Planned End"},
		Columns: cols,
		Rows: []gantt.Row{
			{Values: []any{1.0, "Design", month(2023, time.December), month(2024, time.January)}},
			{Values: []any{"1.1", "Wireframes", nil, nil}, Subtask: true},
		},
	}

	return []gantt.SheetTimeline{
		{
			Table: table,
			Timeline: gantt.Timeline{
				Months: []time.Time{month(2023, time.December), month(2024, time.January)},
				Cells: [][]gantt.Status{
					{gantt.StatusPlanned, gantt.StatusActual},
					{gantt.StatusNone, gantt.StatusNone},
				},
			},
		},
		{
			Table:    &gantt.Table{Name: "Phase 2"},
			Timeline: gantt.Timeline{Months: []time.Time{month(2024, time.May)}},
		},
	}
}

func press(m tea.Model, key string) tea.Model {
	var msg tea.KeyMsg
	switch key {
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next
}

func TestViewRendersSheet(t *testing.T) {
	m := initialModel(sampleSheets(), gantt.DefaultPalette())
	view := m.View()

	assert.Contains(t, view, "Sheet 1/2: Plan")
	assert.Contains(t, view, "2023")
	assert.Contains(t, view, "2024")
	assert.Contains(t, view, "Dec Jan")
	assert.Contains(t, view, "1 Design")
	assert.Contains(t, view, "  1.1 Wireframes")
	assert.Contains(t, view, "subtask actual")
}

func TestUpdateSwitchesSheets(t *testing.T) {
	var m tea.Model = initialModel(sampleSheets(), gantt.DefaultPalette())

	m = press(m, "right")
	assert.Contains(t, m.View(), "Sheet 2/2: Phase 2")

	m = press(m, "right")
	assert.Contains(t, m.View(), "Sheet 2/2: Phase 2", "stays on the last sheet")

	m = press(m, "h")
	assert.Contains(t, m.View(), "Sheet 1/2: Plan")
}

func TestUpdateQuits(t *testing.T) {
	m := initialModel(sampleSheets(), gantt.DefaultPalette())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestViewHidesMonthsBeyondWidth(t *testing.T) {
	sheets := sampleSheets()
	next, _ := initialModel(sheets, gantt.DefaultPalette()).Update(tea.WindowSizeMsg{Width: labelWidth + 1 + cellWidth, Height: 20})

	view := next.View()
	assert.Contains(t, view, "1 later months hidden")
	assert.False(t, strings.Contains(view, "Dec Jan"))
}

func TestViewWithoutSheets(t *testing.T) {
	m := initialModel(nil, gantt.DefaultPalette())
	assert.Contains(t, m.View(), "No sheet")
}

func TestRowLabelTruncates(t *testing.T) {
	table := &gantt.Table{Headers: []string{"Task"}}
	row := gantt.Row{Values: []any{strings.Repeat("x", 40)}}

	label := rowLabel(table, row)
	assert.Equal(t, labelWidth-1, len([]rune(label)))
	assert.True(t, strings.HasSuffix(label, "…"))
}
