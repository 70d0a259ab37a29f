package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/optionspicker/cli"
	"github.com/nathoo/optionspicker/engine"
	"github.com/nathoo/optionspicker/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed user input
	isSystem bool // true for meta-command output
}

// Model is the Bubble Tea model for the options picker.
type Model struct {
	engine *engine.Engine
	cmds   *cli.Commands
	ctx    context.Context

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	history  *History

	rawLines []rawLine // accumulated output lines (unstyled, for re-wrapping)

	width      int
	height     int
	ready      bool
	quitting   bool
	spinning   bool // a spin was submitted and has not returned yet
	selecting  bool // the tracker reports a draw in progress
	cancelSpin context.CancelFunc
	lastPick   string
}

// outputMsg carries command output into the Update loop.
type outputMsg struct {
	input    string   // echoed user input (empty for the banner)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// spinDoneMsg is sent when a spin started from the input line returns.
type spinDoneMsg struct {
	result types.SelectionResult
	err    error
	lines  []string
}

// selectingMsg mirrors the tracker's selecting state.
type selectingMsg bool

// New creates a TUI model over the given command set.
func New(ctx context.Context, cmds *cli.Commands) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleSpinner))

	return Model{
		engine:  cmds.Engine,
		cmds:    cmds,
		ctx:     ctx,
		input:   ti,
		spinner: sp,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, cmds *cli.Commands) error {
	m := New(ctx, cmds)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	cmds.Engine.Tracker.OnSelecting(func(selecting bool) {
		p.Send(selectingMsg(selecting))
	})
	_, err := p.Run()
	return err
}

// Init returns the initial command that prints the banner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.banner())
}

func (m Model) banner() tea.Cmd {
	count := m.engine.Len()
	return func() tea.Msg {
		return outputMsg{lines: []string{
			"Options Picker",
			"",
			fmt.Sprintf("%d option(s) on the wheel. Type /help for commands, spin to pick.", count),
		}}
	}
}

// Update handles messages (key presses, window resize, command output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.cancelSpin != nil {
				m.cancelSpin()
			}
			m.quitting = true
			return m, tea.Quit

		case "esc":
			if m.cancelSpin != nil {
				m.cancelSpin()
			}
			return m, nil

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case spinner.TickMsg:
		if !m.spinning && !m.selecting {
			return m, nil
		}
		var spCmd tea.Cmd
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, spCmd

	case selectingMsg:
		m.selecting = bool(msg)
		return m, nil

	case spinDoneMsg:
		m.spinning = false
		if m.cancelSpin != nil {
			m.cancelSpin()
			m.cancelSpin = nil
		}
		if msg.err == nil {
			m.lastPick = msg.result.Option.Name
		}
		m = m.appendOutput(outputMsg{lines: msg.lines})

	case outputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	if m.spinning {
		m = m.appendOutput(outputMsg{
			input: input, lines: []string{"The wheel is spinning. Press Esc to cancel."}, isSystem: true,
		})
		return m, nil
	}

	cmd, ok := m.cmds.Resolve(input)
	if !ok {
		m = m.appendOutput(outputMsg{
			input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
		})
		return m, nil
	}

	if cli.IsSpin(cmd) {
		m = m.appendOutput(outputMsg{input: input})
		spin := m.startSpin()
		return m, tea.Batch(m.spinner.Tick, spin)
	}

	reply := m.cmds.Exec(m.ctx, cmd)
	m = m.appendOutput(outputMsg{input: input, lines: reply.Lines, isSystem: reply.System})
	if reply.Quit {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// startSpin marks the model as spinning and returns the command that runs
// the tracked draw off the Update goroutine.
func (m *Model) startSpin() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelSpin = cancel
	m.spinning = true

	eng := m.engine
	return func() tea.Msg {
		res, err := eng.Spin(ctx)
		return spinDoneMsg{result: res, err: err, lines: cli.SpinLines(eng, res, err)}
	}
}

// appendOutput adds lines to the output and refreshes the viewport.
func (m Model) appendOutput(msg outputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns. A spin echo gets its separator
	// when the result lands.
	if len(msg.lines) > 0 {
		m.rawLines = append(m.rawLines, rawLine{})
	}

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, styleUserInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindResult:
		return styledResult(line)
	case kindDetail:
		return styleDetail.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	default:
		return stylePlain.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Over-long words are left intact.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0

	for i, word := range strings.Fields(text) {
		wLen := len(word)

		switch {
		case i == 0:
			lineLen = wLen
		case lineLen+1+wLen > width:
			result.WriteString("\n")
			lineLen = wLen
		default:
			result.WriteString(" ")
			lineLen += 1 + wLen
		}
		result.WriteString(word)
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (those drive input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
