package preview

import (
	"fmt"
	"strings"
	"time"

	"ganttfmt/internal/gantt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	labelWidth = 28
	cellWidth  = 4
)

type model struct {
	sheets  []gantt.SheetTimeline
	palette gantt.Palette

	sheet  int
	offset int
	width  int
	height int

	titleStyle lipgloss.Style
	labelStyle lipgloss.Style
	helpStyle  lipgloss.Style
	emptyStyle lipgloss.Style
}

func initialModel(sheets []gantt.SheetTimeline, palette gantt.Palette) model {
	return model{
		sheets:  sheets,
		palette: palette,
		width:   120,
		height:  30,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(labelWidth),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		emptyStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "right", "l", "tab":
			if m.sheet < len(m.sheets)-1 {
				m.sheet++
				m.offset = 0
			}
		case "left", "h", "shift+tab":
			if m.sheet > 0 {
				m.sheet--
				m.offset = 0
			}
		case "down", "j":
			if m.offset < m.maxOffset() {
				m.offset++
			}
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "home", "g":
			m.offset = 0
		}
	}
	return m, nil
}

// visibleRows is the number of task rows that fit under the title, the
// two header lines, the legend and the help line.
func (m model) visibleRows() int {
	rows := m.height - 7
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m model) maxOffset() int {
	if len(m.sheets) == 0 {
		return 0
	}
	n := len(m.sheets[m.sheet].Table.Rows) - m.visibleRows()
	if n < 0 {
		return 0
	}
	return n
}

// visibleMonths caps the month columns to the terminal width.
func (m model) visibleMonths(total int) int {
	fit := (m.width - labelWidth - 1) / cellWidth
	if fit < 1 {
		fit = 1
	}
	if total < fit {
		return total
	}
	return fit
}

func (m model) View() string {
	if len(m.sheets) == 0 {
		return "No sheet contains a computable task timeline.\n"
	}

	st := m.sheets[m.sheet]
	months := st.Timeline.Months[:m.visibleMonths(len(st.Timeline.Months))]

	var b strings.Builder

	title := fmt.Sprintf("Sheet %d/%d: %s", m.sheet+1, len(m.sheets), st.Table.Name)
	b.WriteString(m.titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(strings.Repeat(" ", labelWidth+1))
	b.WriteString(yearLine(months))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", labelWidth+1))
	b.WriteString(monthLine(months))
	b.WriteString("\n")

	end := m.offset + m.visibleRows()
	if end > len(st.Table.Rows) {
		end = len(st.Table.Rows)
	}
	for i := m.offset; i < end; i++ {
		row := st.Table.Rows[i]
		b.WriteString(m.labelStyle.Render(rowLabel(st.Table, row)))
		b.WriteString(" ")
		for j := range months {
			b.WriteString(m.renderCell(st.Timeline.Cells[i][j], row.Subtask))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.legend())
	b.WriteString("\n")

	help := "←→/tab: sheet | ↑↓: scroll | q: quit"
	if hidden := len(st.Timeline.Months) - len(months); hidden > 0 {
		help += fmt.Sprintf(" | %d later months hidden", hidden)
	}
	b.WriteString(m.helpStyle.Render(help))

	return b.String()
}

func (m model) renderCell(status gantt.Status, subtask bool) string {
	color := m.palette.Color(status, subtask)
	if color == "" {
		return m.emptyStyle.Render(fmt.Sprintf("%-*s", cellWidth, " ·"))
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color("#" + color)).
		Render(strings.Repeat(" ", cellWidth-1)) + " "
}

func (m model) legend() string {
	swatch := func(color, text string) string {
		return lipgloss.NewStyle().Background(lipgloss.Color("#"+color)).Render("  ") + " " + text
	}
	return strings.Join([]string{
		swatch(m.palette.Planned, "planned"),
		swatch(m.palette.Actual, "actual"),
		swatch(m.palette.SubtaskPlanned, "subtask planned"),
		swatch(m.palette.SubtaskActual, "subtask actual"),
	}, "   ")
}

func yearLine(months []time.Time) string {
	var b strings.Builder
	for i, month := range months {
		if i == 0 || month.Month() == time.January {
			fmt.Fprintf(&b, "%-*d", cellWidth, month.Year())
		} else {
			b.WriteString(strings.Repeat(" ", cellWidth))
		}
	}
	return b.String()
}

func monthLine(months []time.Time) string {
	var b strings.Builder
	for _, month := range months {
		fmt.Fprintf(&b, "%-*s", cellWidth, month.Format("Jan"))
	}
	return b.String()
}

// rowLabel joins the first two text cells outside the date columns.
// Subtasks are indented.
func rowLabel(t *gantt.Table, row gantt.Row) string {
	dateCols := make(map[int]bool)
	for _, f := range gantt.Fields() {
		if idx, ok := t.Columns.Index(f); ok {
			dateCols[idx] = true
		}
	}

	var parts []string
	for i, v := range row.Values {
		if dateCols[i] || v == nil {
			continue
		}
		text := strings.TrimSpace(fmt.Sprint(v))
		if text == "" {
			continue
		}
		parts = append(parts, text)
		if len(parts) == 2 {
			break
		}
	}

	label := strings.Join(parts, " ")
	if row.Subtask {
		label = "  " + label
	}
	if len([]rune(label)) > labelWidth-1 {
		label = string([]rune(label)[:labelWidth-2]) + "…"
	}
	return label
}

// Run starts the interactive preview of the computed sheet timelines.
func Run(sheets []gantt.SheetTimeline, palette gantt.Palette) error {
	p := tea.NewProgram(initialModel(sheets, palette), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running preview: %w", err)
	}
	return nil
}
