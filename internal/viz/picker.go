package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/landau/internal/config"
	"github.com/san-kum/landau/internal/experiment"
	"github.com/san-kum/landau/internal/render"
)

var presetInfo = map[string]string{
	"dn":          "linear kernels, global normalization",
	"dn-coupling": "divisive normalization coupling",
	"dn-old":      "unnormalized kernels with gain control",
	"flexible":    "unnormalized kernels, fast rotation",
	"simple":      "nearest-neighbour diffusion, euler",
	"persistent":  "decaying excitability residual",
}

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// setting is one editable field of the configuration screen.
type setting struct {
	name string
	get  func(c *config.Config) float64
	set  func(c *config.Config, v float64)
}

var settings = []setting{
	{"size", func(c *config.Config) float64 { return float64(c.Size) }, func(c *config.Config, v float64) { c.Size = int(v) }},
	{"seed", func(c *config.Config) float64 { return float64(c.Seed) }, func(c *config.Config, v float64) { c.Seed = int64(v) }},
	{"lambda", func(c *config.Config) float64 { return c.Lambda }, func(c *config.Config, v float64) { c.Lambda = v }},
	{"omega", func(c *config.Config) float64 { return c.Omega }, func(c *config.Config, v float64) { c.Omega = v }},
	{"dt", func(c *config.Config) float64 { return c.Dt }, func(c *config.Config, v float64) { c.Dt = v }},
	{"k1", func(c *config.Config) float64 { return c.Coupling[0] }, func(c *config.Config, v float64) { c.Coupling[0] = v }},
	{"small_world", func(c *config.Config) float64 { return c.SmallWorld }, func(c *config.Config, v float64) { c.SmallWorld = v }},
	{"beta", func(c *config.Config) float64 { return c.Beta }, func(c *config.Config, v float64) { c.Beta = v }},
}

// Picker lets the user choose and tune a preset before starting the live
// view.
type Picker struct {
	state    int
	cursor   int
	presets  []string
	registry *experiment.Registry
	cfg      *config.Config
	field    int
	editing  bool
	editBuf  string
	err      string
	opts     Options
	width    int
	height   int
	live     Model
}

func NewPicker(registry *experiment.Registry, opts Options) Picker {
	return Picker{
		state:    stateMenu,
		presets:  registry.ListPresets(),
		registry: registry,
		opts:     opts,
	}
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		if m.state == stateMenu {
			return m.menuKey(msg)
		}
		return m.configKey(msg)
	}
	return m, nil
}

func (m Picker) menuKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		cfg, err := m.registry.GetPreset(m.presets[m.cursor])
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		if cfg.Size > 64 {
			cfg.Size = 64
		}
		m.cfg, m.field, m.err = cfg, 0, ""
		m.state = stateConfig
	}
	return m, nil
}

func (m Picker) configKey(msg tea.KeyMsg) (Picker, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				settings[m.field].set(m.cfg, v)
			} else {
				m.err = fmt.Sprintf("not a number: %q", m.editBuf)
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "esc":
		m.state = stateMenu
	case "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.field > 0 {
			m.field--
		}
	case "down", "j":
		if m.field < len(settings)-1 {
			m.field++
		}
	case "enter":
		m.editing = true
		m.editBuf = strconv.FormatFloat(settings[m.field].get(m.cfg), 'g', -1, 64)
	case "s", " ":
		return m.start()
	}
	return m, nil
}

func (m Picker) start() (Picker, tea.Cmd) {
	exp, err := experiment.New(m.cfg, nil)
	if err != nil {
		m.err = err.Error()
		return m, nil
	}
	opts := m.opts
	if mode, err := render.ParseMode(m.cfg.View.Mode); err == nil && opts.Mode == 0 {
		opts.Mode = mode
	}
	if opts.Colormap == "" {
		opts.Colormap = m.cfg.View.Colormap
	}
	if opts.Theme == "" {
		opts.Theme = m.cfg.View.Theme
	}
	m.live = NewModel(exp.GetSimulator(), opts)
	m.live.width, m.live.height = m.width, m.height
	m.state = stateSim
	return m, m.live.Init()
}

func (m Picker) View() string {
	switch m.state {
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return m.viewMenu()
}

var (
	pickTitle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	pickSub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	pickCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	pickActive = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	pickDesc   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	pickIdle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	pickKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	pickErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))
)

func keyHints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(pickKey.Render(pairs[i]) + pickIdle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m Picker) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + pickTitle.Render("LANDAU") + "\n    " + pickSub.Render("oscillator lattice") + "\n    " + pickSub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.presets {
		desc := presetInfo[name]
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pickCursor.Render("▸"), pickActive.Render(fmt.Sprintf("%-14s", name)), pickDesc.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", pickIdle.Render(fmt.Sprintf("%-14s", name)), pickIdle.Render(desc)))
		}
	}
	if m.err != "" {
		b.WriteString("\n    " + pickErr.Render(m.err) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m Picker) viewConfig() string {
	var b strings.Builder
	name := m.presets[m.cursor]
	b.WriteString("\n\n    " + pickTitle.Render(strings.ToUpper(name)) + "\n    " + pickSub.Render(presetInfo[name]) + "\n    " + pickSub.Render("─────────────────────────") + "\n\n")
	for i, s := range settings {
		val := strconv.FormatFloat(s.get(m.cfg), 'g', 6, 64)
		if m.editing && i == m.field {
			val = m.editBuf + "_"
		}
		if i == m.field {
			b.WriteString(fmt.Sprintf("    %s %s %s\n", pickCursor.Render("▸"), pickActive.Render(fmt.Sprintf("%-12s", s.name)), pickDesc.Render(val)))
		} else {
			b.WriteString(fmt.Sprintf("      %s %s\n", pickIdle.Render(fmt.Sprintf("%-12s", s.name)), pickIdle.Render(val)))
		}
	}
	b.WriteString(fmt.Sprintf("\n    %s\n", pickSub.Render(fmt.Sprintf("%s / %s / %s", m.cfg.Scheme, m.cfg.Mode, m.cfg.Normalization))))
	if m.err != "" {
		b.WriteString("\n    " + pickErr.Render(m.err) + "\n")
	}
	b.WriteString("\n    " + keyHints("j/k", "select", "enter", "edit", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunPicker starts the preset picker on the alternate screen.
func RunPicker(registry *experiment.Registry, opts Options) error {
	_, err := tea.NewProgram(NewPicker(registry, opts), tea.WithAltScreen()).Run()
	return err
}
