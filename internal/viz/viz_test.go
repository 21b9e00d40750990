package viz

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/experiment"
	"github.com/san-kum/landau/internal/lattice"
	"github.com/san-kum/landau/internal/render"
	"github.com/san-kum/landau/internal/sim"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(3, 2)
	if w, h := c.PixelSize(); w != 6 || h != 8 {
		t.Fatalf("pixel size %dx%d", w, h)
	}
	c.Set(0, 0)
	c.Set(1, 3)
	c.Set(-1, 2)
	c.Set(6, 0)
	if c.Lit() != 2 {
		t.Errorf("lit = %d, want 2", c.Lit())
	}
	if c.Grid[0][0] != 0x2800|0x1|0x80 {
		t.Errorf("cell rune = %U", c.Grid[0][0])
	}
	if lines := strings.Split(c.String(), "\n"); len(lines) != 2 {
		t.Errorf("expected 2 lines, got %d", len(lines))
	}
	c.Clear()
	if c.Lit() != 0 {
		t.Error("clear left pixels set")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 1)
	c.DrawLine(0, 0, 19, 0)
	if c.Lit() != 20 {
		t.Errorf("horizontal line lit %d pixels, want 20", c.Lit())
	}
}

func TestCanvasScatter(t *testing.T) {
	c := NewCanvas(10, 5)
	axes := NewCanvas(10, 5)
	axes.Scatter(nil, nil, 1)
	c.Scatter([]float64{0.9, -0.9}, []float64{0.9, -0.9}, 1)
	if c.Lit() != axes.Lit()+2 {
		t.Errorf("scatter lit %d, axes %d", c.Lit(), axes.Lit())
	}
}

func TestGauge(t *testing.T) {
	if got := Gauge(1, 1, 10); got != "[=====-----]" {
		t.Errorf("Gauge(1,1) = %s", got)
	}
	if got := Gauge(5, 1, 4); got != "[====]" {
		t.Errorf("Gauge saturates: %s", got)
	}
	if got := Gauge(-1, 1, 4); got != "[----]" {
		t.Errorf("Gauge floors: %s", got)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" {
		t.Error("GetTheme(ocean)")
	}
	if GetTheme("nope").Name != ThemeDefault.Name {
		t.Error("unknown theme should fall back to default")
	}
	seen := map[string]bool{}
	th := ThemeDefault
	for range Themes {
		seen[th.Name] = true
		th = NextTheme(th)
	}
	if len(seen) != len(Themes) || th.Name != ThemeDefault.Name {
		t.Errorf("NextTheme does not cycle: %v", seen)
	}
}

func TestLatticeViewDimensions(t *testing.T) {
	f, _ := lattice.NewField(8)
	f.Set(3, 3, 0.5, 0.2)

	view := LatticeView(f, render.ModeCombined, render.Lookup("viridis"), 80, 40)
	lines := strings.Split(view, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines for N=8, got %d", len(lines))
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w != 8 {
			t.Errorf("line width %d, want 8", w)
		}
	}

	small := LatticeView(f, render.ModePhase, render.Lookup("viridis"), 4, 1)
	if lines := strings.Split(small, "\n"); len(lines) != 1 || lipgloss.Width(lines[0]) != 4 {
		t.Errorf("subsampled view: %q", small)
	}

	if LatticeView(nil, render.ModeCombined, nil, 10, 10) != "" {
		t.Error("nil field should render empty")
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	p := dynamo.DefaultParams()
	p.Size = 8
	s, err := sim.New(p, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, Options{OutDir: t.TempDir()})
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelTickAdvances(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, TickMsg(time.Now()))
	if m.sim.StepCount() != 2 {
		t.Errorf("expected 2 steps, got %d", m.sim.StepCount())
	}
	if m.history.Len() != 2 {
		t.Errorf("history holds %d records", m.history.Len())
	}

	m = update(t, m, key(" "))
	m = update(t, m, TickMsg(time.Now()))
	if m.sim.StepCount() != 2 {
		t.Error("paused model should not step on tick")
	}
	m = update(t, m, key("n"))
	if m.sim.StepCount() != 3 {
		t.Error("n should single-step while paused")
	}
}

func TestModelKeys(t *testing.T) {
	m := newTestModel(t)

	m = update(t, m, key("a"))
	if !m.sim.Params().Attack.Active {
		t.Error("a should activate the attack")
	}

	// paramKeys are sorted: attack_gain is first, attack_input second.
	m = update(t, m, key("tab"))
	before := m.sim.Params().Attack.Input
	m = update(t, m, key("up"))
	if got := m.sim.Params().Attack.Input; got != before*1.05 {
		t.Errorf("attack_input = %v, want %v", got, before*1.05)
	}

	m = update(t, m, key("m"))
	if m.mode != render.ModePhase {
		t.Errorf("mode = %v", m.mode)
	}
	m = update(t, m, key("c"))
	if m.colormap == render.DefaultColormap {
		t.Error("c should change the colormap")
	}
	m = update(t, m, key("i"))
	if m.sim.Params().Scheme != dynamo.SchemeEuler {
		t.Error("i should switch to euler")
	}

	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, key("r"))
	if m.sim.StepCount() != 0 || m.sim.Params().Attack.Active || m.history.Len() != 0 {
		t.Error("r should restore the initial run")
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	m = update(t, m, TickMsg(time.Now()))
	m = update(t, m, TickMsg(time.Now()))
	view := m.View()
	for _, want := range []string{"STUART-LANDAU", "Dissonance", "lambda", "dissonance"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	m = update(t, m, key("?"))
	if !strings.Contains(m.View(), "KEYBOARD SHORTCUTS") {
		t.Error("help overlay not shown")
	}
}

func TestPickerFlow(t *testing.T) {
	p := NewPicker(experiment.NewRegistry(), Options{OutDir: t.TempDir()})
	if !strings.Contains(p.View(), "persistent") {
		t.Error("menu should list presets")
	}

	next, _ := p.Update(key("enter"))
	p = next.(Picker)
	if p.state != stateConfig || p.cfg == nil {
		t.Fatalf("enter should open the config screen, state=%d", p.state)
	}
	if p.cfg.Size > 64 {
		t.Errorf("picker should cap the lattice size, got %d", p.cfg.Size)
	}

	p.cfg.Size = 6
	next, _ = p.Update(key("s"))
	p = next.(Picker)
	if p.state != stateSim {
		t.Fatalf("s should start the simulation: %s", p.err)
	}
	if !strings.Contains(p.View(), "STUART-LANDAU") {
		t.Error("live view not shown after start")
	}
}

func TestPickerEdit(t *testing.T) {
	p := NewPicker(experiment.NewRegistry(), Options{})
	next, _ := p.Update(key("enter"))
	p = next.(Picker)

	next, _ = p.Update(key("enter"))
	p = next.(Picker)
	p.editBuf = ""
	for _, r := range "12" {
		next, _ = p.Update(key(string(r)))
		p = next.(Picker)
	}
	next, _ = p.Update(key("enter"))
	p = next.(Picker)
	if p.cfg.Size != 12 {
		t.Errorf("size = %d, want 12", p.cfg.Size)
	}
}
