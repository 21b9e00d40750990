package viz

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/metrics"
	"github.com/san-kum/landau/internal/render"
	"github.com/san-kum/landau/internal/sim"
)

const (
	historyCapacity = 600
	frameInterval   = time.Second / 30
	snapshotScale   = 4
	panelWidth      = 50
)

type TickMsg time.Time

type statusMsg string

// Options configures the live view. Zero values pick the defaults.
type Options struct {
	Mode         render.Mode
	Colormap     string
	Theme        string
	StepsPerTick int
	// OutDir receives snapshots and recordings.
	OutDir string
}

// Model is the interactive lattice viewer. It owns the simulator for the
// lifetime of the program.
type Model struct {
	sim     *sim.Simulator
	history *metrics.History
	initial dynamo.Params

	paramKeys []string
	selected  int

	mode     render.Mode
	colormap string
	theme    Theme
	styles   styles

	stepsPerTick  int
	outDir        string
	running       bool
	showHelp      bool
	recorder      *render.Recorder
	status        string
	width, height int
	frame         int
}

func NewModel(s *sim.Simulator, opts Options) Model {
	history := metrics.NewHistory(historyCapacity)
	s.AddObserver(history)

	cmap := opts.Colormap
	if !render.Known(cmap) {
		cmap = render.DefaultColormap
	}
	steps := opts.StepsPerTick
	if steps <= 0 {
		steps = 1
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}
	theme := GetTheme(opts.Theme)

	return Model{
		sim:          s,
		history:      history,
		initial:      s.Params(),
		paramKeys:    dynamo.ParamNames(),
		mode:         opts.Mode,
		colormap:     cmap,
		theme:        theme,
		styles:       newStyles(theme),
		stepsPerTick: steps,
		outDir:       outDir,
		running:      true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and advances the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case statusMsg:
		m.status = string(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		m.frame++
		if m.running {
			m.advance(m.stepsPerTick)
		}
		if m.recorder != nil {
			m.recorder.Add(render.Image(m.sim.Field(), m.mode, m.colormap, snapshotScale))
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.recorder != nil {
			return m, tea.Sequence(m.saveRecording(), tea.Quit)
		}
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "n":
		if !m.running {
			m.advance(1)
		}
	case "a":
		active := !m.sim.Params().Attack.Active
		m.apply(func(p *dynamo.Params) error { p.Attack.Active = active; return nil })
	case "tab":
		m.selected = (m.selected + 1) % len(m.paramKeys)
	case "shift+tab":
		m.selected = (m.selected + len(m.paramKeys) - 1) % len(m.paramKeys)
	case "up", "k":
		m.adjustParam(1.05)
	case "down", "j":
		m.adjustParam(0.95)
	case "i":
		m.apply(func(p *dynamo.Params) error { p.Scheme = (p.Scheme + 1) % 2; return nil })
	case "d":
		m.apply(func(p *dynamo.Params) error { p.Mode = (p.Mode + 1) % 3; return nil })
	case "m":
		m.mode = m.mode.Next()
	case "c":
		m.colormap = nextName(render.ColormapNames(), m.colormap)
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "s":
		return m, m.snapshot()
	case "g":
		if m.recorder != nil {
			cmd := m.saveRecording()
			m.recorder = nil
			return m, cmd
		}
		m.recorder = render.NewRecorder(3)
		m.status = "recording"
	case "r":
		m.reset()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// advance runs n steps and pauses on the first rejected step.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		if _, err := m.sim.Step(); err != nil {
			m.running = false
			m.status = err.Error()
			if errors.Is(err, dynamo.ErrUnstable) {
				m.status = "diverged, lower dt or press r"
			}
			return
		}
	}
}

// apply edits a copy of the current parameters and reconfigures the
// simulator, keeping the old configuration on error.
func (m *Model) apply(edit func(p *dynamo.Params) error) {
	p := m.sim.Params()
	if err := edit(&p); err != nil {
		m.status = err.Error()
		return
	}
	if err := m.sim.Configure(p); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

func (m *Model) adjustParam(factor float64) {
	key := m.paramKeys[m.selected]
	m.apply(func(p *dynamo.Params) error {
		val := p.GetParams()[key]
		if val == 0 {
			val = 0.01
			if factor < 1 {
				val = -0.01
			}
		} else {
			val *= factor
		}
		return p.SetParam(key, val)
	})
}

func (m *Model) reset() {
	if err := m.sim.Configure(m.initial); err != nil {
		m.status = err.Error()
		return
	}
	if err := m.sim.Reset(); err != nil {
		m.status = err.Error()
		return
	}
	m.history.Reset()
	m.status = "reset"
}

func (m Model) snapshot() tea.Cmd {
	img := render.Image(m.sim.Field(), m.mode, m.colormap, snapshotScale)
	path := filepath.Join(m.outDir, fmt.Sprintf("landau_%06d.png", m.sim.StepCount()))
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return statusMsg(err.Error())
		}
		defer f.Close()
		if err := render.WritePNG(f, img); err != nil {
			return statusMsg(err.Error())
		}
		return statusMsg("saved " + path)
	}
}

func (m Model) saveRecording() tea.Cmd {
	rec := m.recorder
	path := filepath.Join(m.outDir, fmt.Sprintf("landau_%06d.gif", m.sim.StepCount()))
	return func() tea.Msg {
		if rec == nil || rec.Len() == 0 {
			return statusMsg("nothing recorded")
		}
		f, err := os.Create(path)
		if err != nil {
			return statusMsg(err.Error())
		}
		defer f.Close()
		if err := rec.Encode(f); err != nil {
			return statusMsg(err.Error())
		}
		return statusMsg(fmt.Sprintf("saved %s (%d frames)", path, rec.Len()))
	}
}

func nextName(names []string, current string) string {
	for i, n := range names {
		if n == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

// latticeSize returns the character area available for the lattice.
func (m Model) latticeSize() (cols, rows int) {
	cols, rows = 64, 32
	if m.width > panelWidth+8 {
		cols = m.width - panelWidth - 4
	}
	if m.height > 4 {
		rows = m.height - 2
	}
	return cols, rows
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.styles
	p := m.sim.Params()
	d := m.sim.Diagnostics()
	field := m.sim.Field()

	cols, rows := m.latticeSize()
	latticeView := LatticeView(field, m.mode, render.Lookup(m.colormap), cols, rows)

	var s strings.Builder
	s.WriteString(st.header.Render("STUART-LANDAU LATTICE") + "\n")

	status := st.running.Render(AnimatedSpinner(m.frame) + " RUNNING")
	if !m.running {
		status = st.paused.Render("PAUSED")
	}
	if m.recorder != nil {
		status += " " + st.alert.Render(fmt.Sprintf("● REC %d", m.recorder.Len()))
	}
	if p.Attack.Active {
		status += " " + st.alert.Render("ATTACK")
	}
	s.WriteString(status + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", d.Step))
	row("Time", fmt.Sprintf("%.2f", d.Time))
	row("Dissonance", fmt.Sprintf("%.5f", d.Dissonance))
	row("Coherence", fmt.Sprintf("%.3f", d.Coherence))
	row("Amplitude", fmt.Sprintf("%.3f avg  %.3f max", d.Amplitude.Mean, d.Amplitude.Max))
	row("Residual", fmt.Sprintf("%d cells", countPositive(m.sim.Residuals())))
	row("Dynamics", fmt.Sprintf("%s %s %s N=%d", p.Scheme, p.Mode, p.Normalization, p.Size))
	row("View", fmt.Sprintf("%s / %s", m.mode, m.colormap))

	if diss := m.history.Dissonance(); len(diss) > 1 {
		chart := asciigraph.Plot(diss, asciigraph.Height(5), asciigraph.Width(34), asciigraph.Caption("dissonance"))
		s.WriteString("\n" + st.graph.Render(chart) + "\n")
	}

	s.WriteString("\n" + phaseScatter(field.Z, d.Amplitude.Max) + "\n")

	s.WriteString("\nPARAMETERS\n")
	initial := m.initial.GetParams()
	current := p.GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-12s %s %.4g", k, Gauge(current[k], initial[k], 10), current[k])
		if i == m.selected {
			s.WriteString(st.selected.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}

	if m.status != "" {
		s.WriteString("\n" + st.paused.Render(m.status) + "\n")
	}
	s.WriteString(st.help.Render("space:pause a:attack tab/↑↓:tune m:mode c:cmap ?:help q:quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, latticeView, st.panel.Render(s.String()))
	if m.showHelp {
		return st.overlay.Render(helpText) + "\n" + mainView
	}
	return mainView
}

const helpText = `KEYBOARD SHORTCUTS

space      pause / resume
n          single step while paused
a          toggle the localized attack
tab        next parameter (shift+tab: previous)
up/k       increase parameter 5%
down/j     decrease parameter 5%
i          switch integrator
d          switch coupling law
m          cycle view mode
c          cycle colormap
t          cycle theme
s          save PNG snapshot
g          start / stop GIF recording
r          reset lattice and parameters
?          toggle this help
q          quit`

func phaseScatter(z dynamo.State, ampMax float64) string {
	c := NewCanvas(20, 6)
	n := len(z) / 2
	xs, ys := make([]float64, n), make([]float64, n)
	for k := 0; k < n; k++ {
		xs[k], ys[k] = z[2*k], z[2*k+1]
	}
	c.Scatter(xs, ys, math.Max(ampMax*1.1, 0.1))
	return c.String()
}

func countPositive(v []float64) int {
	n := 0
	for _, x := range v {
		if x > 0 {
			n++
		}
	}
	return n
}

// Run starts the live view on the alternate screen.
func Run(s *sim.Simulator, opts Options) error {
	_, err := tea.NewProgram(NewModel(s, opts), tea.WithAltScreen()).Run()
	return err
}
