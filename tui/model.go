package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-midirouter/chord"
	"go-midirouter/display"
	"go-midirouter/midi"
	"go-midirouter/router"
	"go-midirouter/theme"
	"go-midirouter/widgets"
)

// refreshInterval bounds how stale the counters can get
const refreshInterval = 250 * time.Millisecond

// maxPortLog is the number of port events kept on screen
const maxPortLog = 6

// Model is a read-only monitor of the running routers and MIDI ports
type Model struct {
	Routers []router.Router
	Watcher *midi.PortWatcher
	Theme   *theme.Theme

	selected int
	portLog  []string
	quitting bool
}

var keyHelp = []widgets.KeySection{
	{Keys: []widgets.KeyBinding{
		{Key: "tab/j/k", Desc: "next/previous router"},
		{Key: "1-9", Desc: "select router"},
		{Key: "q", Desc: "quit"},
	}},
}

type TickMsg time.Time

type UpdateMsg struct{}

type PortEventMsg midi.PortEvent

func NewModel(routers []router.Router, watcher *midi.PortWatcher, th *theme.Theme) Model {
	return Model{
		Routers: routers,
		Watcher: watcher,
		Theme:   th,
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// ListenForUpdates waits for the next page change of a scale-chord router
func ListenForUpdates(r *router.ScaleChordRouter) tea.Cmd {
	return func() tea.Msg {
		<-r.Updates()
		return UpdateMsg{}
	}
}

func ListenForPorts(w *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-w.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if m.Watcher != nil {
		cmds = append(cmds, ListenForPorts(m.Watcher))
	}
	if sc := m.focusedScaleChord(); sc != nil {
		cmds = append(cmds, ListenForUpdates(sc))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "tab", "j", "down":
			m.selectRouter(m.selected + 1)
			return m, m.listenFocused()

		case "shift+tab", "k", "up":
			m.selectRouter(m.selected - 1)
			return m, m.listenFocused()

		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			m.selectRouter(int(msg.String()[0] - '1'))
			return m, m.listenFocused()
		}

	case TickMsg:
		return m, tick()

	case UpdateMsg:
		if sc := m.focusedScaleChord(); sc != nil {
			return m, ListenForUpdates(sc)
		}

	case PortEventMsg:
		ev := midi.PortEvent(msg)
		line := fmt.Sprintf("%s %-3s %s %s", time.Now().Format("15:04:05"), ev.Dir, ev.Type, ev.Name)
		m.portLog = append(m.portLog, line)
		if len(m.portLog) > maxPortLog {
			m.portLog = m.portLog[len(m.portLog)-maxPortLog:]
		}
		return m, ListenForPorts(m.Watcher)
	}

	return m, nil
}

func (m *Model) selectRouter(i int) {
	if len(m.Routers) == 0 {
		return
	}
	n := len(m.Routers)
	m.selected = ((i % n) + n) % n
}

// listenFocused follows page updates of the newly focused router, if it has a page
func (m Model) listenFocused() tea.Cmd {
	if sc := m.focusedScaleChord(); sc != nil {
		return ListenForUpdates(sc)
	}
	return nil
}

func (m Model) focusedScaleChord() *router.ScaleChordRouter {
	if m.selected >= len(m.Routers) {
		return nil
	}
	sc, _ := m.Routers[m.selected].(*router.ScaleChordRouter)
	return sc
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	selStyle := lipgloss.NewStyle().Foreground(m.Theme.Success())
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(fmt.Sprintf("go-midirouter  %d routers", len(m.Routers))))
	out.WriteString("\n\n")

	var focused *router.Status
	for i, r := range m.Routers {
		s := r.Status()
		line := fmt.Sprintf("%d %-12s %-13s %s -> %s  rx:%d tx:%d",
			i+1, s.Name, s.Kind, s.In, strings.Join(s.Outs, ", "), s.Received, s.Sent)
		style := fgStyle
		if i == m.selected {
			style = selStyle
			focused = &s
		}
		out.WriteString(style.Render(line))
		if s.Errors > 0 {
			out.WriteString(warnStyle.Render(fmt.Sprintf(" err:%d", s.Errors)))
		}
		out.WriteString("\n")
	}

	if focused != nil && focused.Page != nil {
		out.WriteString("\n")
		out.WriteString(m.pageView(*focused))
		out.WriteString("\n")
	}

	if len(m.portLog) > 0 {
		out.WriteString("\n")
		out.WriteString(dimStyle.Render(strings.Join(m.portLog, "\n")))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(keyHelp)))
	return out.String()
}

func (m Model) pageView(s router.Status) string {
	p := s.Page
	sym := m.Theme.Symbols
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	accentStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())

	grid := widgets.GridFrom(router.FirstNotePad, func(note uint8) [3]uint8 {
		color, ok := p.LEDs[router.LED{Number: note}]
		if !ok {
			color = midi.ColorBlack
		}
		return midi.ColorRGB(color)
	})
	held := make(map[uint8]bool, len(p.Held))
	for _, h := range p.Held {
		held[h.Pad] = true
	}
	for i, on := range p.Flags {
		if on {
			held[router.FirstModPad+uint8(i)] = true
		}
	}
	isHeld := func(row, col int) bool {
		return held[router.FirstNotePad+uint8(row*widgets.GridSize+col)]
	}
	gridView := widgets.RenderPadGrid(grid, sym.Pad, sym.PadHeld, isHeld)

	link := ""
	if s.Display != "" {
		mark := sym.LinkDown
		if s.Display == display.StateConnected.String() {
			mark = sym.LinkUp
		}
		link = fmt.Sprintf("  display %c %s", mark, s.Display)
	}
	latch := ""
	if p.Latch {
		latch = "  latch"
	}
	info := []string{
		accentStyle.Render(fmt.Sprintf("%s %s  octave %+d%s%s", chord.PitchName(p.Root), p.Scale, p.Octave, latch, link)),
	}
	if mods := p.Modifiers.String(); mods != "" {
		info = append(info, fgStyle.Render("mods  "+mods))
	}
	var names []string
	for _, h := range p.Held {
		names = append(names, h.Chord.Name())
	}
	if len(names) > 0 {
		info = append(info, fgStyle.Render("chords "+strings.Join(names, ", ")))
	}
	var notes []string
	for _, n := range p.Sounding {
		notes = append(notes, chord.NoteName(n))
	}
	if len(notes) > 0 {
		info = append(info, fgStyle.Render("notes  "+strings.Join(notes, " ")))
	}

	legend := []string{
		widgets.RenderLegendItem(midi.ColorRGB(midi.ColorPink), sym.Pad, "min", "minor third"),
		widgets.RenderLegendItem(midi.ColorRGB(midi.ColorTeal), sym.Pad, "sus", "sus2 / sus4"),
		widgets.RenderLegendItem(midi.ColorRGB(midi.ColorYellow), sym.Pad, "dim/aug", "fifth"),
	}
	info = append(info, "", strings.Join(legend, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, gridView, "   ", strings.Join(info, "\n"))
}
