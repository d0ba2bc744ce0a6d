package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	cycleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// Update is the outcome of one watch-mode run as shown by the monitor.
// Recurrence, when set, holds one count per cycle: the most recorded runs in
// which any of the cycle's files was reported in a cycle.
type Update struct {
	Cycles     [][]string
	Recurrence []int
	Files      int
	Edges      int
	Err        error
	At         time.Time
}

type updateMsg Update

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	cycleList list.Model
	last      Update
	received  bool
}

func newModel() model {
	cycleList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	cycleList.Title = "Minimal Cycles"
	cycleList.SetShowStatusBar(false)
	cycleList.SetFilteringEnabled(true)
	return model{cycleList: cycleList}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.cycleList.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		height := msg.Height - v - 6
		if height < 5 {
			height = 5
		}
		m.cycleList.SetSize(msg.Width-h, height)
	case updateMsg:
		m.last = Update(msg)
		m.received = true
		// A failed run keeps the previous cycles on screen.
		if m.last.Err == nil {
			m.cycleList.SetItems(cycleItems(m.last))
		}
	}

	var cmd tea.Cmd
	m.cycleList, cmd = m.cycleList.Update(msg)
	return m, cmd
}

func cycleItems(u Update) []list.Item {
	items := make([]list.Item, 0, len(u.Cycles))
	for i, cycle := range u.Cycles {
		title := fmt.Sprintf("Cycle %d: %d files", i+1, len(cycle))
		if i < len(u.Recurrence) && u.Recurrence[i] > 0 {
			title += fmt.Sprintf(" | seen in %d recorded runs", u.Recurrence[i])
		}
		path := append(append([]string(nil), cycle...), cycle[0])
		items = append(items, item{title: title, desc: strings.Join(path, " -> ")})
	}
	return items
}

func (m model) View() string {
	header := titleStyle("Import Cycle Monitor")
	if !m.received {
		return docStyle.Render(header + "\n" + statusStyle.Render("Running first analysis..."))
	}

	status := statusStyle.Render(fmt.Sprintf("Last run: %s | %d files | %d edges",
		m.last.At.Format("15:04:05"), m.last.Files, m.last.Edges))

	var summary string
	switch {
	case m.last.Err != nil:
		summary = errorStyle.Render("error: " + m.last.Err.Error())
	case len(m.last.Cycles) == 0:
		summary = successStyle.Render("No cycles")
	default:
		summary = cycleStyle.Render(fmt.Sprintf("%d cycles", len(m.last.Cycles)))
	}

	help := statusStyle.Render("Keys: / filter | q quit")
	return docStyle.Render(header + "\n" + status + " | " + summary + "\n" + help + "\n\n" + m.cycleList.View())
}

// Monitor is a full-screen view of the current minimal cycles, refreshed on
// every watch-mode run.
type Monitor struct {
	program *tea.Program
}

func New(opts ...tea.ProgramOption) *Monitor {
	return &Monitor{program: tea.NewProgram(newModel(), opts...)}
}

// Send hands a run result to the running program. It blocks until the program
// reads it and returns immediately once the program has exited.
func (m *Monitor) Send(u Update) {
	m.program.Send(updateMsg(u))
}

// Run blocks until the user quits or the program's context is done.
func (m *Monitor) Run() error {
	_, err := m.program.Run()
	return err
}
