package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/bench"
	"github.com/san-kum/shootbench/internal/storage"
)

type fakeSource struct {
	runs   []storage.RunMetadata
	loaded []string
	err    error
}

func (f *fakeSource) List() ([]storage.RunMetadata, error) { return f.runs, f.err }

func (f *fakeSource) LoadDurations(runID string) (*storage.Durations, error) {
	f.loaded = append(f.loaded, runID)
	if f.err != nil {
		return nil, f.err
	}
	return &storage.Durations{
		Columns: []string{"native/Solver.Solve"},
		Values:  map[string][]float64{"native/Solver.Solve": {1, 2, 3}},
	}, nil
}

func twoRuns() *fakeSource {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &fakeSource{runs: []storage.RunMetadata{
		{
			ID: "aaaaaaaa-1111", Timestamp: at, Trials: 3, Nodes: 200, MaxIter: 1,
			Results: []bench.Result{{Operation: bench.OpSolve, Implementation: "native", Avg: 2, Min: 1, Max: 3}},
		},
		{ID: "bbbbbbbb-2222", Timestamp: at, Trials: 5, Nodes: 100, MaxIter: 1},
	}}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send applies msg and runs any command it returns, feeding the result back.
func send(t *testing.T, b Browser, msg tea.Msg) (Browser, tea.Cmd) {
	t.Helper()
	next, cmd := b.Update(msg)
	out, ok := next.(Browser)
	require.True(t, ok)
	return out, cmd
}

func loaded(t *testing.T, src RunSource) Browser {
	t.Helper()
	b := *NewBrowser(src)
	b, _ = send(t, b, b.Init()())
	return b
}

func TestBrowserListsRuns(t *testing.T) {
	b := loaded(t, twoRuns())
	require.Len(t, b.runs, 2)

	v := b.View()
	assert.Contains(t, v, "aaaaaaaa")
	assert.Contains(t, v, "bbbbbbbb")
	assert.NotContains(t, v, "aaaaaaaa-1111")
}

func TestBrowserCursorStaysInRange(t *testing.T) {
	b := loaded(t, twoRuns())
	b, _ = send(t, b, key("k"))
	assert.Equal(t, 0, b.cursor)
	b, _ = send(t, b, key("j"))
	b, _ = send(t, b, key("j"))
	assert.Equal(t, 1, b.cursor)
}

func TestBrowserOpensRun(t *testing.T) {
	src := twoRuns()
	b := loaded(t, src)

	b, cmd := send(t, b, key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, viewDetail, b.view)
	b, _ = send(t, b, cmd())

	assert.Equal(t, []string{"aaaaaaaa-1111"}, src.loaded)
	v := b.View()
	assert.Contains(t, v, "run aaaaaaaa-1111")
	assert.Contains(t, v, "native:")
	assert.Contains(t, v, bench.OpSolve)

	b, _ = send(t, b, key("esc"))
	assert.Equal(t, viewList, b.view)
	assert.Nil(t, b.durations)
}

func TestBrowserEmptyStore(t *testing.T) {
	b := loaded(t, &fakeSource{})
	assert.Contains(t, b.View(), "no runs found")

	b, cmd := send(t, b, key("enter"))
	assert.Nil(t, cmd)
	assert.Equal(t, viewList, b.view)
}

func TestBrowserShowsListError(t *testing.T) {
	b := loaded(t, &fakeSource{err: errors.New("disk gone")})
	assert.Contains(t, b.View(), "disk gone")
}

func TestBrowserQuits(t *testing.T) {
	b := loaded(t, twoRuns())
	_, cmd := send(t, b, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
