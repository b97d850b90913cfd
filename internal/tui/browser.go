// Package tui holds the interactive terminal views.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/shootbench/internal/storage"
	"github.com/san-kum/shootbench/internal/viz"
)

// RunSource is the part of the run store the browser reads.
type RunSource interface {
	List() ([]storage.RunMetadata, error)
	LoadDurations(runID string) (*storage.Durations, error)
}

type view int

const (
	viewList view = iota
	viewDetail
)

// Browser is an interactive list of saved runs with a per-run timing view.
type Browser struct {
	src    RunSource
	runs   []storage.RunMetadata
	cursor int
	view   view

	durations *storage.Durations
	err       error

	width  int
	height int
}

func NewBrowser(src RunSource) *Browser {
	return &Browser{src: src, width: 80, height: 24}
}

type runsMsg struct {
	runs []storage.RunMetadata
	err  error
}

type durationsMsg struct {
	d   *storage.Durations
	err error
}

func (b Browser) Init() tea.Cmd {
	src := b.src
	return func() tea.Msg {
		runs, err := src.List()
		return runsMsg{runs: runs, err: err}
	}
}

func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
	case runsMsg:
		b.runs, b.err = msg.runs, msg.err
		b.cursor = 0
	case durationsMsg:
		b.durations, b.err = msg.d, msg.err
	}
	return b, nil
}

func (b Browser) handleKey(msg tea.KeyMsg) (Browser, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return b, tea.Quit
	}
	if b.view == viewDetail {
		switch msg.String() {
		case "q", "esc", "backspace", "left", "h":
			b.view = viewList
			b.durations = nil
			b.err = nil
		}
		return b, nil
	}

	switch msg.String() {
	case "q", "esc":
		return b, tea.Quit
	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}
	case "down", "j":
		if b.cursor < len(b.runs)-1 {
			b.cursor++
		}
	case "enter", " ", "right", "l":
		if len(b.runs) == 0 {
			return b, nil
		}
		b.view = viewDetail
		src, id := b.src, b.runs[b.cursor].ID
		return b, func() tea.Msg {
			d, err := src.LoadDurations(id)
			return durationsMsg{d: d, err: err}
		}
	}
	return b, nil
}

func (b Browser) View() string {
	if b.view == viewDetail {
		return b.detailView()
	}
	return b.listView()
}

func (b Browser) listView() string {
	var s strings.Builder
	s.WriteString(viz.Title.Render("saved runs") + "\n\n")

	if b.err != nil {
		s.WriteString(viz.Fail.Render("error: "+b.err.Error()) + "\n")
	} else if len(b.runs) == 0 {
		s.WriteString(viz.Subtle.Render("no runs found") + "\n")
	}

	for i, run := range b.runs {
		line := fmt.Sprintf("%s  %s  %d trials  %d nodes",
			shortID(run.ID), run.Timestamp.Format("2006-01-02 15:04:05"), run.Trials, run.Nodes)
		if i == b.cursor {
			s.WriteString(viz.MetricValue.Render("> "+line) + "\n")
		} else {
			s.WriteString(viz.MetricLabel.Render("  "+line) + "\n")
		}
	}

	s.WriteString("\n" + viz.Subtle.Render("j/k move  enter open  q quit"))
	return s.String()
}

func (b Browser) detailView() string {
	run := b.runs[b.cursor]
	var s strings.Builder
	s.WriteString(viz.Title.Render("run "+run.ID) + "\n")
	s.WriteString(viz.Subtle.Render(fmt.Sprintf("%s, %d trials, %d nodes, max_iter %d",
		run.Timestamp.Format("2006-01-02 15:04:05"), run.Trials, run.Nodes, run.MaxIter)) + "\n")

	if b.err != nil {
		s.WriteString(viz.Fail.Render("error: "+b.err.Error()) + "\n")
	}

	width := b.width - 4
	if width < 10 {
		width = 10
	}
	impl := ""
	for _, r := range run.Results {
		if r.Implementation != impl {
			impl = r.Implementation
			s.WriteString(viz.Section.Render(impl+":") + "\n")
		}
		s.WriteString(viz.TimingLine(r.Operation, r.Avg, r.Min, r.Max) + "\n")
		if b.durations != nil {
			s.WriteString("    " + viz.Sparkline(b.durations.Values[storage.Column(r)], width) + "\n")
		}
	}

	s.WriteString("\n" + viz.Subtle.Render("esc back  ctrl+c quit"))
	return s.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RunBrowser opens the browser full screen until the user quits.
func RunBrowser(src RunSource) error {
	_, err := tea.NewProgram(NewBrowser(src), tea.WithAltScreen()).Run()
	return err
}
