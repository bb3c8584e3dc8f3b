package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wast/errors"
	"github.com/wippyai/wast/script"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	directiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	posStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type directiveItem struct {
	directive script.Directive
	name      string
	line      int
	col       int
}

type browseModel struct {
	err      error
	filename string
	items    []directiveItem
	visible  []int
	filter   textinput.Model
	selected int
	state    modelState
}

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
	stateDetail
)

func newBrowseModel(filename string) *browseModel {
	ti := textinput.New()
	ti.Placeholder = "directive name"
	ti.Prompt = "filter: "
	ti.Width = 30
	return &browseModel{
		filename: filename,
		filter:   ti,
		state:    stateBrowse,
	}
}

type loadedMsg struct {
	err   error
	items []directiveItem
}

func (m *browseModel) Init() tea.Cmd {
	return m.loadScript
}

func (m *browseModel) loadScript() tea.Msg {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	source := string(data)

	root, err := script.Parse(source)
	if err != nil {
		if perr, ok := err.(*errors.Error); ok {
			line, col := errors.Position(source, perr.Offset)
			return loadedMsg{err: fmt.Errorf("%d:%d: %w", line, col, perr)}
		}
		return loadedMsg{err: err}
	}

	items := make([]directiveItem, len(root.Directives))
	for i, d := range root.Directives {
		line, col := errors.Position(source, d.Pos())
		items[i] = directiveItem{
			directive: d,
			name:      script.DirectiveName(d),
			line:      line,
			col:       col,
		}
	}
	return loadedMsg{items: items}
}

func (m *browseModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, it := range m.items {
		if query == "" || strings.Contains(it.name, query) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = 0
	}
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "enter", "esc":
				m.filter.Blur()
				m.state = stateBrowse
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.applyFilter()
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateBrowse && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateBrowse && m.selected < len(m.visible)-1 {
				m.selected++
			}

		case "/":
			if m.state == stateBrowse {
				m.state = stateFilter
				m.filter.Focus()
			}

		case "enter":
			if m.state == stateBrowse && len(m.visible) > 0 {
				m.state = stateDetail
			}

		case "esc":
			if m.state == stateDetail {
				m.state = stateBrowse
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.items = msg.items
		m.applyFilter()
	}

	return m, nil
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.items == nil {
		return "Loading script..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("WAST Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no directives match"))
			b.WriteString("\n")
		}
		for vi, i := range m.visible {
			it := m.items[i]
			row := fmt.Sprintf("%s %s",
				posStyle.Render(fmt.Sprintf("%5d:%-3d", it.line, it.col)),
				directiveStyle.Render(it.name))
			if vi == m.selected {
				b.WriteString(selectedStyle.Render("> "))
			} else {
				b.WriteString("  ")
			}
			b.WriteString(row)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • / filter • q quit"))

	case stateDetail:
		it := m.items[m.visible[m.selected]]
		b.WriteString(fmt.Sprintf("%s at %s\n\n",
			directiveStyle.Render(it.name),
			posStyle.Render(fmt.Sprintf("%d:%d", it.line, it.col))))
		b.WriteString(describeDirective(it.directive))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))
	}

	return b.String()
}

func describeDirective(d script.Directive) string {
	switch d := d.(type) {
	case *script.InlineModule:
		return fmt.Sprintf("id: %s\nfields: %d\n%s",
			orNone(d.Module.ID), len(d.Module.Fields), preview(d.Module.Source))
	case *script.QuoteModule:
		return fmt.Sprintf("id: %s\n%s", orNone(d.ID), preview(d.Text))
	case *script.BinaryModule:
		return fmt.Sprintf("id: %s\npayload: %d bytes\n%s",
			orNone(d.ID), len(d.Bytes), hexPreview(d.Bytes))
	case *script.Invoke:
		return describeInvoke(d)
	case *script.Register:
		return fmt.Sprintf("name: %q\nid: %s", d.Name, orNone(d.ID))
	case *script.AssertReturn:
		var b strings.Builder
		switch a := d.Action.(type) {
		case *script.Invoke:
			b.WriteString(describeInvoke(a))
		case *script.GetGlobal:
			fmt.Fprintf(&b, "get global %q (module %s)", a.Name, orNone(a.ID))
		}
		if d.Expected != nil {
			b.WriteString("\nexpect: ")
			b.WriteString(formatConst(*d.Expected))
		}
		return b.String()
	case *script.AssertTrap:
		return describeInvoke(d.Invoke) + fmt.Sprintf("\ntrap: %q", d.Expected)
	case *script.AssertExhaustion:
		return describeInvoke(d.Invoke) + fmt.Sprintf("\nexhaustion: %q", d.Expected)
	case *script.AssertMalformed:
		body := preview(d.Module.Text)
		if d.Module.Kind == script.Binary {
			body = hexPreview(d.Module.Bytes)
		}
		return fmt.Sprintf("error: %q\n%s", d.Expected, body)
	case *script.AssertInvalid:
		return fmt.Sprintf("error: %q\n%s", d.Expected, preview(d.Module.Source))
	case *script.AssertUnlinkable:
		return fmt.Sprintf("error: %q\n%s", d.Expected, preview(d.Module.Source))
	}
	return ""
}

func describeInvoke(inv *script.Invoke) string {
	args := make([]string, len(inv.Args))
	for i, a := range inv.Args {
		args[i] = formatConst(a)
	}
	return fmt.Sprintf("invoke %q (module %s)\nargs: (%s)",
		inv.Name, orNone(inv.ID), strings.Join(args, ", "))
}

func formatConst(c script.Const) string {
	switch c.Kind {
	case script.I32:
		return fmt.Sprintf("i32 %d", c.I32)
	case script.I64:
		return fmt.Sprintf("i64 %d", c.I64)
	case script.F32:
		return fmt.Sprintf("f32 %g", c.F32)
	case script.F64:
		return fmt.Sprintf("f64 %g", c.F64)
	default:
		return c.Kind.String()
	}
}

func orNone(id string) string {
	if id == "" {
		return "(none)"
	}
	return id
}

func preview(text string) string {
	const max = 400
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

func hexPreview(data []byte) string {
	const max = 64
	if len(data) > max {
		return fmt.Sprintf("% x ...", data[:max])
	}
	return fmt.Sprintf("% x", data)
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newBrowseModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
