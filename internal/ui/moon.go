package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bft-labs/fishdiary/pkg/moon"
)

// cellWidth fits "dd E ppp%" where the emoji E is two cells wide.
const cellWidth = 11

// MoonModel is a month calendar of moon phases.
type MoonModel struct {
	year  int
	month time.Month
	today time.Time
	days  []moon.Day
}

// NewMoonModel shows the month containing now.
func NewMoonModel(now time.Time) MoonModel {
	return MoonModel{
		year:  now.Year(),
		month: now.Month(),
		today: now,
		days:  moon.Month(now.Year(), now.Month(), now.Location()),
	}
}

// Shift moves the calendar by delta months.
func (m MoonModel) Shift(delta int) MoonModel {
	first := time.Date(m.year, m.month, 1, 12, 0, 0, 0, m.today.Location()).AddDate(0, delta, 0)
	m.year = first.Year()
	m.month = first.Month()
	m.days = moon.Month(m.year, m.month, m.today.Location())
	return m
}

// View renders a Monday-first grid with the phase emoji and
// illumination for each day.
func (m MoonModel) View(width int) string {
	var b strings.Builder
	b.WriteString(LabelStyle.Render(fmt.Sprintf("%s %d", m.month, m.year)))
	b.WriteString("\n\n")

	for _, wd := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		b.WriteString(MutedStyle.Width(cellWidth).Render(wd))
	}
	b.WriteString("\n")

	if len(m.days) > 0 {
		offset := (int(m.days[0].Date.Weekday()) + 6) % 7
		b.WriteString(strings.Repeat(" ", cellWidth*offset))
		for i, d := range m.days {
			cell := fmt.Sprintf("%2d %s %3d%%", d.Date.Day(), d.Emoji, d.Info.Percent())
			style := lipgloss.NewStyle().Width(cellWidth)
			if sameDay(d.Date, m.today) {
				style = TodayStyle.Width(cellWidth)
			}
			b.WriteString(style.Render(cell))
			if (offset+i+1)%7 == 0 {
				b.WriteString("\n")
			}
		}
	}

	var notable []string
	for i, d := range m.days {
		if i > 0 && m.days[i-1].Name == d.Name {
			continue
		}
		if d.Name == "New Moon" || d.Name == "Full Moon" {
			notable = append(notable, fmt.Sprintf("%s %s %s", d.Emoji, d.Name, d.Date.Format("Jan 2")))
		}
	}
	if len(notable) > 0 {
		b.WriteString("\n\n")
		b.WriteString(MutedStyle.Render(strings.Join(notable, "   ")))
	}

	return PanelStyle.Width(max(width-4, 20)).Render(b.String())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
