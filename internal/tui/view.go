package tui

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/tavla/internal/domain"
)

// palette holds the chrome colors for one theme.
type palette struct {
	text      color.Color
	muted     color.Color
	dim       color.Color
	highlight color.Color
	danger    color.Color
	grab      color.Color
}

func paletteFor(theme domain.Theme) palette {
	if theme.Dark() {
		return palette{
			text:      lipgloss.Color("252"),
			muted:     lipgloss.Color("245"),
			dim:       lipgloss.Color("239"),
			highlight: lipgloss.Color("212"),
			danger:    lipgloss.Color("203"),
			grab:      lipgloss.Color("221"),
		}
	}
	return palette{
		text:      lipgloss.Color("236"),
		muted:     lipgloss.Color("242"),
		dim:       lipgloss.Color("250"),
		highlight: lipgloss.Color("162"),
		danger:    lipgloss.Color("160"),
		grab:      lipgloss.Color("130"),
	}
}

// columnColors resolves a column's accent and header colors for the theme.
func columnColors(style domain.ColumnStyle, theme domain.Theme, pal palette) (accent, bg, fg color.Color) {
	accent = pal.muted
	if style.Accent != "" {
		accent = lipgloss.Color(style.Accent)
	}
	bgRaw, fgRaw := style.Background, style.Text
	if theme.Dark() {
		bgRaw, fgRaw = style.DarkBackground, style.DarkText
	}
	bg, fg = nil, accent
	if bgRaw != "" {
		bg = lipgloss.Color(bgRaw)
	}
	if fgRaw != "" {
		fg = lipgloss.Color(fgRaw)
	}
	return accent, bg, fg
}

// View renders the board, footer, and any modal.
func (m Model) View() tea.View {
	if !m.ready || !m.loaded {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	theme := m.board.Theme
	pal := paletteFor(theme)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(pal.text)
	statusStyle := lipgloss.NewStyle().Foreground(pal.muted)

	header := titleStyle.Render("tavla") + statusStyle.Render("  "+string(theme))
	if m.drag != nil {
		if active, ok := m.board.Task(m.drag.activeID); ok {
			header += lipgloss.NewStyle().Bold(true).Foreground(pal.grab).Render("  dragging: " + truncate(active.Title, 32))
		}
	}

	columnViews := make([]string, 0, len(m.board.Columns))
	colWidth := m.columnWidth()
	colHeight := m.columnHeight()
	for colIdx, column := range m.board.Columns {
		columnViews = append(columnViews, m.renderColumn(colIdx, column, pal, colWidth, colHeight))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)

	sections := []string{header, "", body}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	var helpKeys help.KeyMap = m.keys
	if m.drag != nil {
		helpKeys = dragKeyMap{m.keys}
	}
	helpLine := lipgloss.NewStyle().
		Foreground(pal.muted).
		BorderTop(true).
		BorderForeground(pal.dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(helpKeys))

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine

	overlay := m.renderModeOverlay(pal, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(pal, m.width-8)
	}
	if overlay != "" {
		height := lipgloss.Height(full)
		if m.height > 0 {
			height = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, height))
	}

	v := tea.NewView(full)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

func (m Model) renderColumn(colIdx int, column domain.Column, pal palette, width, height int) string {
	theme := m.board.Theme
	accent, bg, fg := columnColors(column.Style, theme, pal)
	tasks := m.board.ByStatus(column.ID)

	border := pal.dim
	if colIdx == m.selectedColumn {
		border = accent
	}
	dropHere := m.drag != nil && m.drag.column == colIdx
	if dropHere {
		border = pal.grab
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MarginRight(1).
		Width(width)

	headStyle := lipgloss.NewStyle().Bold(true).Foreground(fg).Padding(0, 1)
	if bg != nil {
		headStyle = headStyle.Background(bg)
	}
	lines := []string{headStyle.Render(fmt.Sprintf("%s (%d)", column.Title, len(tasks))), ""}

	mutedStyle := lipgloss.NewStyle().Foreground(pal.muted)
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(pal.highlight)
	grabbedStyle := lipgloss.NewStyle().Bold(true).Foreground(pal.grab)
	dangerStyle := lipgloss.NewStyle().Foreground(pal.danger)
	textWidth := max(1, width-6)
	today := m.now().UTC().Format(domain.DueDateLayout)

	if len(tasks) == 0 {
		lines = append(lines, mutedStyle.Render("(empty)"))
	}
	for taskIdx, task := range tasks {
		selected := colIdx == m.selectedColumn && taskIdx == m.selectedTask
		grabbed := m.drag != nil && task.ID == m.drag.activeID
		cursor := dropHere && taskIdx == m.drag.row && !grabbed

		prefix := "  "
		switch {
		case grabbed:
			prefix = "≡ "
		case cursor:
			prefix = "▸ "
		case selected:
			prefix = "│ "
		}
		title := prefix + truncate(task.Title, textWidth)
		switch {
		case grabbed:
			title = grabbedStyle.Render(title)
		case selected || cursor:
			title = selectedStyle.Render(title)
		default:
			title = lipgloss.NewStyle().Foreground(pal.text).Render(title)
		}
		lines = append(lines, title)

		meta := make([]string, 0, 2)
		if m.fields.ShowPriority {
			meta = append(meta, string(task.Priority))
		}
		dueOverdue := false
		if m.fields.ShowDueDate && task.DueDate != nil {
			due := domain.FormatDueDate(task.DueDate)
			meta = append(meta, "due "+due)
			dueOverdue = due < today
		}
		if len(meta) > 0 {
			line := "  " + truncate(strings.Join(meta, " • "), textWidth)
			if dueOverdue {
				lines = append(lines, dangerStyle.Render(line))
			} else {
				lines = append(lines, mutedStyle.Render(line))
			}
		}
		if m.fields.ShowDescription && task.Description != "" {
			first, _, _ := strings.Cut(task.Description, "\n")
			lines = append(lines, mutedStyle.Render("  "+truncate(first, textWidth)))
		}
		if taskIdx < len(tasks)-1 {
			lines = append(lines, "")
		}
	}
	if dropHere && m.drag.row >= len(tasks) {
		lines = append(lines, selectedStyle.Render("▸ drop at end"))
	}

	return box.Render(fitLines(strings.Join(lines, "\n"), max(1, height-2)))
}

func (m Model) renderModeOverlay(pal palette, maxWidth int) string {
	if m.mode == modeNone {
		return ""
	}
	accent := pal.highlight
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	if maxWidth > 0 {
		boxStyle = boxStyle.Width(clamp(maxWidth, 36, 76))
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(pal.muted)
	var lines []string

	switch m.mode {
	case modeAddTask, modeEditTask:
		heading := "New Task"
		if m.mode == modeEditTask {
			heading = "Edit Task"
		}
		lines = append(lines, titleStyle.Render(heading))
		fieldWidth := max(18, clamp(maxWidth, 36, 76)-18)
		for i, in := range m.formInputs {
			labelStyle := hintStyle
			if i == m.formFocus {
				labelStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
			}
			label := labelStyle.Render(fmt.Sprintf("%-12s", taskFormFields[i]+":"))
			if i == taskFieldPriority {
				lines = append(lines, label+" "+m.renderPriorityPicker(accent, pal.muted))
				continue
			}
			in.SetWidth(fieldWidth)
			lines = append(lines, label+" "+in.View())
		}
		lines = append(lines, hintStyle.Render("↑/↓ field • tab priority • enter save • esc cancel"))

	case modeRenameColumn:
		lines = append(lines, titleStyle.Render("Rename Column"), m.renameInput.View())
		lines = append(lines, hintStyle.Render("enter save • esc cancel"))

	case modeConfirmDelete:
		task, _ := m.board.Task(m.pendingDelete)
		yes, no := "[ delete ]", "[ cancel ]"
		active := lipgloss.NewStyle().Bold(true).Foreground(pal.danger)
		if m.confirmChoice == 0 {
			yes = active.Render(yes)
			no = hintStyle.Render(no)
		} else {
			yes = hintStyle.Render(yes)
			no = active.Render(no)
		}
		lines = append(lines,
			titleStyle.Render("Delete Task"),
			fmt.Sprintf("Delete %q?", truncate(task.Title, 48)),
			"",
			yes+"  "+no,
			hintStyle.Render("y confirm • n/esc cancel • ←/→ choose"),
		)

	case modeTaskInfo:
		task, ok := m.board.Task(m.infoTaskID)
		if !ok {
			return ""
		}
		column, _ := m.board.Column(task.Status)
		due := "-"
		if task.DueDate != nil {
			due = domain.FormatDueDate(task.DueDate)
		}
		lines = append(lines,
			titleStyle.Render("Task Info"),
			lipgloss.NewStyle().Bold(true).Foreground(pal.text).Render(task.Title),
			hintStyle.Render("column: "+column.Title+" • priority: "+string(task.Priority)+" • due: "+due),
			hintStyle.Render("id: "+task.ID),
		)
		if desc := m.md.render(task.Description, clamp(maxWidth, 36, 76)-4, m.board.Theme.Dark()); desc != "" {
			lines = append(lines, "", desc)
		} else {
			lines = append(lines, "", hintStyle.Render("(no description)"))
		}
		lines = append(lines, "", hintStyle.Render("e edit • y copy title • esc close"))

	default:
		return ""
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderPriorityPicker(accent, muted color.Color) string {
	parts := make([]string, 0, len(priorityOptions))
	for idx, p := range priorityOptions {
		if idx == m.priorityIdx {
			parts = append(parts, lipgloss.NewStyle().Bold(true).Foreground(accent).Render("["+string(p)+"]"))
			continue
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(muted).Render(" "+string(p)+" "))
	}
	return strings.Join(parts, " ")
}

func (m Model) renderHelpOverlay(pal palette, maxWidth int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(pal.highlight).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(clamp(maxWidth, 36, 96))
	}
	h := m.help
	h.ShowAll = true
	h.SetWidth(clamp(maxWidth, 36, 96) - 4)
	title := lipgloss.NewStyle().Bold(true).Foreground(pal.highlight).Render("Keys")
	return style.Render(title + "\n" + h.View(m.keys) + "\n" + lipgloss.NewStyle().Foreground(pal.muted).Render("? or esc close"))
}

func (m Model) columnWidth() int {
	if len(m.board.Columns) == 0 {
		return 24
	}
	w := 28
	if m.width > 0 {
		// border (2) and margin (1) per column
		const colOverhead = 3
		if candidate := (m.width - len(m.board.Columns)*colOverhead) / len(m.board.Columns); candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 22, 48)
}

func (m Model) columnHeight() int {
	h := m.height - 6
	if h < 12 {
		return 12
	}
	return h
}

func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base using a lipgloss canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max == 1 {
		return string(rs[:1])
	}
	return string(rs[:max-1]) + "…"
}
