package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

func helpKey(b key.Binding) string {
	h := b.Help()
	return HelpKeyStyle.Render(h.Key) + " " + HelpDescStyle.Render(h.Desc)
}

func renderHelpLine(width int, bindings ...key.Binding) string {
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		parts[i] = helpKey(b)
	}
	return FooterStyle.Width(width).Render(strings.Join(parts, "  "))
}

// renderHelp renders the context-sensitive footer for screen.
func (m Model) renderHelp() string {
	k := m.keys
	switch m.screen {
	case ScreenDetail:
		return renderHelpLine(m.width, k.Back, k.Edit, k.Delete, k.Moon, k.Quit)
	case ScreenForm:
		f := m.formKeys
		return renderHelpLine(m.width, f.Next, f.Save, f.AddImage, f.RemoveImage, f.Delete, f.Cancel)
	case ScreenMoon:
		return renderHelpLine(m.width, k.PrevMonth, k.NextMonth, k.Today, k.Back, k.Quit)
	default:
		return renderHelpLine(m.width, k.Up, k.Down, k.Select, k.Add, k.Edit, k.Delete, k.Refresh, k.Moon, k.Help, k.Quit)
	}
}

// renderFullHelp lists every binding on the current screen.
func (m Model) renderFullHelp() string {
	var bindings []key.Binding
	if m.screen == ScreenForm {
		f := m.formKeys
		bindings = []key.Binding{f.Next, f.Prev, f.Save, f.AddImage, f.RemoveImage, f.Delete, f.Cancel}
	} else {
		k := m.keys
		bindings = []key.Binding{k.Up, k.Down, k.Select, k.Back, k.Add, k.Edit, k.Delete, k.Confirm,
			k.Refresh, k.Moon, k.PrevMonth, k.NextMonth, k.Today, k.Help, k.Quit}
	}

	rows := make([]string, 0, len(bindings)+1)
	rows = append(rows, LabelStyle.Render("Keys"), "")
	for _, b := range bindings {
		h := b.Help()
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top,
			HelpKeyStyle.Width(14).Render(h.Key),
			HelpDescStyle.Render(h.Desc),
		))
	}
	return PanelStyle.Render(strings.Join(rows, "\n"))
}
