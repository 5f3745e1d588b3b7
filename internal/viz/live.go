package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pbpksim/internal/pbpk"
)

const (
	width  = 60
	height = 16
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(50)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Player replays a finished trajectory sample by sample. The canvas
// shows the selected compartment; the side panel shows every
// compartment at the play head.
type Player struct {
	title    string
	tr       *pbpk.Trajectory
	canvas   *Canvas
	head     int
	speed    int
	fps      int
	selected int
	running  bool
	showHelp bool
	peak     float64
}

// NewPlayer starts at the first sample, running unless tr has fewer
// than two samples. fps below 1 means 30.
func NewPlayer(title string, tr *pbpk.Trajectory, fps int) Player {
	if fps < 1 {
		fps = 30
	}
	peak := 0.0
	for _, x := range tr.States {
		for _, v := range x {
			peak = max(peak, v)
		}
	}
	return Player{
		title:   title,
		tr:      tr,
		canvas:  NewCanvas(width, height),
		speed:   1,
		fps:     fps,
		running: tr.Len() > 1,
		peak:    peak,
	}
}

func (m Player) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Player) Init() tea.Cmd { return m.tick() }

// Head is the current sample index.
func (m Player) Head() int { return m.head }

func (m Player) Running() bool { return m.running }

// Selected is the compartment drawn on the canvas.
func (m Player) Selected() string {
	if len(m.tr.Compartments) == 0 {
		return ""
	}
	return m.tr.Compartments[m.selected]
}

func (m Player) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			if m.running && m.head >= m.tr.Len()-1 {
				m.head = 0
			}
		case "r":
			m.head = 0
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "tab":
			if n := len(m.tr.Compartments); n > 0 {
				m.selected = (m.selected + 1) % n
			}
		case "+", "=":
			m.speed = min(m.speed*2, 64)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.head += m.speed
			if last := m.tr.Len() - 1; m.head >= last {
				m.head = max(last, 0)
				m.running = false
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Player) scrub(dir int) {
	m.running = false
	m.head += dir * m.speed
	m.head = max(0, min(m.head, m.tr.Len()-1))
}

func (m Player) draw() {
	m.canvas.Clear()
	if m.tr.Len() == 0 {
		return
	}
	series, err := m.tr.Series(m.Selected())
	if err != nil {
		return
	}
	m.canvas.PlotSeries(series[:m.head+1], m.peak)
}

// View renders the canvas beside the status panel.
func (m Player) View() string {
	if m.tr.Len() == 0 {
		return "empty trajectory\n"
	}
	m.draw()
	theme := CurrentTheme
	sel := lipgloss.NewStyle().Foreground(theme.SeriesColor(m.selected))
	canvasView := canvasStyle.Render(sel.Render(m.canvas.String()) + "\n" + sel.Render(m.Selected()))

	var s strings.Builder
	s.WriteString(HeaderStyle.Foreground(theme.Accent).Render(strings.ToUpper(m.title)) + "\n")
	status := StatusRunning.Render(fmt.Sprintf("PLAYING x%d", m.speed))
	if !m.running {
		status = StatusPaused.Render("PAUSED")
	}
	s.WriteString(status + "\n\n")

	x := m.tr.States[m.head]
	t := m.tr.Times[m.head]
	s.WriteString(MetricLabel.Render("time") + MetricValue.Render(fmt.Sprintf("%.2f hr", t)) + "\n")
	s.WriteString(MetricLabel.Render("total") + MetricValue.Render(fmt.Sprintf("%.3f MBq", x.Sum())) + "\n\n")
	for i, c := range m.tr.Compartments {
		frac := 0.0
		if m.peak > 0 {
			frac = x[i] / m.peak
		}
		label := lipgloss.NewStyle().Foreground(theme.SeriesColor(i)).Width(10).Render(c)
		s.WriteString(label + ProgressBar(frac, 12) + fmt.Sprintf(" %9.3f", x[i]) + "\n")
	}

	warned := 0
	for _, w := range m.tr.Warnings {
		if w.Step <= m.head {
			warned++
		}
	}
	if warned > 0 {
		s.WriteString("\n" + theme.Warn(fmt.Sprintf("%d capacity warnings", warned)) + "\n")
	}

	if m.head > 0 {
		total := make([]float64, m.head+1)
		for i := range total {
			total[i] = m.tr.Total(i)
		}
		chart := asciigraph.Plot(total, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("total activity"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(helpStyle.Foreground(theme.Muted).Render("SP:Pause R:Rewind Q:Quit\nTAB:Organ T:Theme ?:Help\n[ ]:Scrub +/-:Speed"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return KeyHint.Render(`Space  pause/resume playback
R      rewind to t=0
[ ]    step back/forward
+ -    change playback speed
Tab    cycle compartment
T      cycle themes
Q      quit`) + "\n\n" + view
	}
	return view
}
