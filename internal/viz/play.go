// Package viz renders a solved swing-up trajectory as a terminal animation:
// cart, pole and both walls, stepped at the trajectory timestep.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
)

const (
	canvasWidth  = 72
	canvasHeight = 18
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

type tickMsg time.Time

// Model is the bubbletea model for trajectory playback.
type Model struct {
	id    string
	traj  []float64
	times []float64
	lay   layout.Layout
	par   model.Params

	frame   int
	playing bool
	fps     int
	canvas  [][]rune
}

func New(id string, traj, times []float64, par model.Params, fps int) (Model, error) {
	lay, err := layout.New(par.Steps)
	if err != nil {
		return Model{}, err
	}
	if len(traj) != lay.Size() {
		return Model{}, fmt.Errorf("viz: trajectory holds %d values, want %d", len(traj), lay.Size())
	}
	if fps <= 0 {
		fps = 30
	}
	canvas := make([][]rune, canvasHeight)
	for i := range canvas {
		canvas[i] = make([]rune, canvasWidth)
	}
	return Model{id: id, traj: traj, times: times, lay: lay, par: par, playing: true, fps: fps, canvas: canvas}, nil
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.playing = !m.playing
		case "r":
			m.frame = 0
		case "left":
			m.playing = false
			m.frame = (m.frame + m.lay.Horizon - 1) % m.lay.Horizon
		case "right":
			m.playing = false
			m.frame = (m.frame + 1) % m.lay.Horizon
		}
		return m, nil
	case tickMsg:
		if m.playing {
			m.frame = (m.frame + 1) % m.lay.Horizon
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) View() string {
	m.clear()

	b := m.lay.Block(m.traj, m.frame)
	m.drawScene(b)

	var sb strings.Builder
	sb.WriteString(cyan.Render(fmt.Sprintf("pushbot playback: %s", m.id)))
	sb.WriteString("\n\n")
	for _, row := range m.canvas {
		sb.WriteString(string(row))
		sb.WriteString("\n")
	}

	t := float64(m.frame) * m.par.Dt
	if m.frame < len(m.times) {
		t = m.times[m.frame]
	}
	sb.WriteString(fmt.Sprintf("\n %s %s   %s %s   %s %s\n",
		dim.Render("t"), white.Render(fmt.Sprintf("%6.2fs", t)),
		dim.Render("x"), white.Render(fmt.Sprintf("%7.3f", b.X())),
		dim.Render("θ"), white.Render(fmt.Sprintf("%7.3f", b.Theta())),
	))
	sb.WriteString(fmt.Sprintf(" %s %s   %s %s   %s %s\n",
		dim.Render("u"), yellow.Render(fmt.Sprintf("%7.3f", b.U())),
		dim.Render("λ1"), green.Render(fmt.Sprintf("%7.3f", b.Lambda1())),
		dim.Render("λ2"), green.Render(fmt.Sprintf("%7.3f", b.Lambda2())),
	))
	sb.WriteString(dim.Render("\n space pause · ←/→ step · r rewind · q quit\n"))
	return sb.String()
}

func (m Model) clear() {
	for y := range m.canvas {
		for x := range m.canvas[y] {
			m.canvas[y][x] = ' '
		}
	}
}

// drawScene maps world coordinates onto the canvas: wall 1 at +d1, wall 2 at
// -d2, cart on the ground line, pole from the cart pivot to the tip.
func (m Model) drawScene(b layout.Block) {
	xMin := -(m.par.WallOffset2 + 0.5)
	xMax := m.par.WallOffset1 + 0.5
	scale := float64(canvasWidth-1) / (xMax - xMin)
	ground := canvasHeight - 2

	col := func(x float64) int { return int((x - xMin) * scale) }
	// terminal cells are about twice as tall as wide
	row := func(y float64) int { return ground - int(y*scale/2) }

	for x := 0; x < canvasWidth; x++ {
		m.set(x, ground+1, '─')
	}
	wallTop := row(m.par.PoleLength * 1.2)
	for y := wallTop; y <= ground; y++ {
		m.set(col(m.par.WallOffset1), y, '│')
		m.set(col(-m.par.WallOffset2), y, '│')
	}

	cartCol := col(b.X())
	for dx := -1; dx <= 1; dx++ {
		m.set(cartCol+dx, ground, '■')
	}

	tipX := b.X() + m.par.PoleLength*math.Sin(b.Theta())
	tipY := m.par.PoleLength * math.Cos(b.Theta())
	m.line(cartCol, ground-1, col(tipX), row(tipY), '·')
	m.set(col(tipX), row(tipY), '●')
}

func (m Model) set(x, y int, c rune) {
	if x >= 0 && x < canvasWidth && y >= 0 && y < canvasHeight {
		m.canvas[y][x] = c
	}
}

func (m Model) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		m.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
