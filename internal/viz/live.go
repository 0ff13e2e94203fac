package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/metrics"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
)

const historyCapacity = 600

type TickMsg time.Time

type LiveOptions struct {
	FPS           int
	StepsPerFrame int
	NudgeForce    float64
}

func DefaultLiveOptions() LiveOptions {
	return LiveOptions{FPS: 30, StepsPerFrame: 3, NudgeForce: 20}
}

// Live is a bubbletea model that steps a simulation under a controller and
// draws every frame through a Renderer.
type Live struct {
	model      *sim.Model
	controller dynamo.Controller
	renderer   *Renderer
	opts       LiveOptions

	initial dynamo.State
	running bool
	nudge   float64
	lastU   float64
	reward  float64
	angles  []float64
	err     error
	frame   string
}

func NewLive(m *sim.Model, ctrl dynamo.Controller, r *Renderer, opts LiveOptions) Live {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = 1
	}
	return Live{
		model:      m,
		controller: ctrl,
		renderer:   r,
		opts:       opts,
		initial:    m.State(),
		running:    true,
		angles:     make([]float64, 0, historyCapacity),
	}
}

func (l Live) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(l.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (l Live) Init() tea.Cmd { return l.tick() }

func (l Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return l, tea.Quit
		case " ":
			if l.err == nil {
				l.running = !l.running
			}
		case "r":
			l.reset()
		case "left", "h":
			l.nudge -= l.opts.NudgeForce
		case "right", "l":
			l.nudge += l.opts.NudgeForce
		}
	case TickMsg:
		if l.running {
			l.advance()
		}
		l.redraw()
		return l, l.tick()
	}
	return l, nil
}

// advance takes one frame of steps. A pending nudge is applied for the
// first step only.
func (l *Live) advance() {
	for i := 0; i < l.opts.StepsPerFrame; i++ {
		u := l.nudge
		l.nudge = 0
		if l.controller != nil {
			if c := l.controller.Compute(l.model.State(), l.model.Time()); len(c) > 0 {
				u += c[0]
			}
		}

		x, err := l.model.Step(u)
		if err != nil {
			l.err = err
			l.running = false
			return
		}
		l.lastU = u
		l.reward += metrics.Upright(x)
		l.angles = append(l.angles, wrapAngle(x[physics.Angle]))
		if len(l.angles) > historyCapacity {
			l.angles = l.angles[1:]
		}
	}
}

func (l *Live) reset() {
	l.model.Reset(l.initial)
	if r, ok := l.controller.(interface{ Reset() }); ok {
		r.Reset()
	}
	l.running = true
	l.nudge, l.lastU, l.reward = 0, 0, 0
	l.angles = l.angles[:0]
	l.err = nil
}

func (l *Live) redraw() {
	frame, err := l.renderer.Render(l.model.State())
	if err != nil {
		l.err = err
		l.running = false
		return
	}
	l.frame = frame
}

// wrapAngle maps an angle into (-pi, pi].
func wrapAngle(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

func (l Live) Err() error { return l.err }

func (l Live) View() string {
	x := l.model.State()
	p := l.model.Params()

	var s strings.Builder
	s.WriteString(headerStyle.Render("CART-PENDULUM") + "\n")
	switch {
	case l.err != nil:
		s.WriteString(statusFailed.Render("FAILED") + "\n" + valueStyle.Render(l.err.Error()) + "\n\n")
	case l.running:
		s.WriteString(statusRunning.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(statusPaused.Render("PAUSED") + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", l.model.Time()))
	row("x", fmt.Sprintf("%+.3f", x[physics.Pos]))
	row("θ", fmt.Sprintf("%+.3f", wrapAngle(x[physics.Angle])))
	row("ẋ", fmt.Sprintf("%+.3f", x[physics.Vel]))
	row("θ̇", fmt.Sprintf("%+.3f", x[physics.AngularVel]))
	row("Force", fmt.Sprintf("%+.2f", l.lastU))
	row("Energy", fmt.Sprintf("%.3f", physics.Energy(p, x)))
	row("Reward", fmt.Sprintf("%.0f", l.reward))
	s.WriteString("\n" + Sparkline(l.angles, 30, -math.Pi, math.Pi) + "\n")
	s.WriteString(helpStyle.Render("SP:Pause R:Reset ←→:Nudge Q:Quit"))

	stats := lipgloss.NewStyle().Padding(0, 2).Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, l.frame, stats)
}

// RunLive opens the renderer and runs the live view until the user quits or
// ctx is done.
func RunLive(ctx context.Context, l Live) error {
	if err := l.renderer.Open(); err != nil {
		return err
	}
	defer l.renderer.Close()
	l.redraw()

	final, err := tea.NewProgram(l, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if fl, ok := final.(Live); ok && fl.err != nil {
		return fl.err
	}
	return nil
}
