package monitor

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func apply(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	updated, ok := next.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return updated, cmd
}

func TestModel_ShowsCycles(t *testing.T) {
	m := newModel()
	if view := m.View(); !strings.Contains(view, "Running first analysis") {
		t.Errorf("expected waiting message before the first run, got %q", view)
	}

	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = apply(t, m, updateMsg{
		Cycles:     [][]string{{"/p/a.js", "/p/b.js"}, {"/p/c.js"}},
		Recurrence: []int{3, 0},
		Files:      4,
		Edges:      5,
		At:         time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	})

	items := m.cycleList.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	first := items[0].(item)
	if first.title != "Cycle 1: 2 files | seen in 3 recorded runs" {
		t.Errorf("unexpected title %q", first.title)
	}
	if first.desc != "/p/a.js -> /p/b.js -> /p/a.js" {
		t.Errorf("unexpected description %q", first.desc)
	}
	if second := items[1].(item); second.title != "Cycle 2: 1 files" {
		t.Errorf("unexpected title %q", second.title)
	}

	view := m.View()
	for _, want := range []string{"10:30:00", "4 files", "5 edges", "2 cycles"} {
		if !strings.Contains(view, want) {
			t.Errorf("view is missing %q:\n%s", want, view)
		}
	}
}

func TestModel_FailedRunKeepsCycles(t *testing.T) {
	m := newModel()
	m, _ = apply(t, m, updateMsg{Cycles: [][]string{{"/p/a.js", "/p/b.js"}}, Files: 2})
	m, _ = apply(t, m, updateMsg{Err: errors.New("unexpected token")})

	if len(m.cycleList.Items()) != 1 {
		t.Errorf("expected previous cycles to stay listed, got %d items", len(m.cycleList.Items()))
	}
	if view := m.View(); !strings.Contains(view, "error: unexpected token") {
		t.Errorf("expected error in view, got %q", view)
	}
}

func TestModel_NoCycles(t *testing.T) {
	m := newModel()
	m, _ = apply(t, m, updateMsg{Files: 3})
	if view := m.View(); !strings.Contains(view, "No cycles") {
		t.Errorf("expected success summary, got %q", view)
	}
}

func TestModel_Quit(t *testing.T) {
	m := newModel()
	_, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected tea.QuitMsg, got %T", cmd())
	}
}
