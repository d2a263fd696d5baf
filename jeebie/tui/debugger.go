package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/jeebie-core/jeebie"
	"github.com/valerio/jeebie-core/jeebie/debug"
	"github.com/valerio/jeebie-core/jeebie/disasm"
)

const (
	frameTime     = time.Second / 30
	stepsPerFrame = 2000

	registerWidth  = 36
	registerHeight = 12
	minTermWidth   = 80
	minTermHeight  = 24
)

// Debugger is an interactive terminal front end for a Machine: it shows the
// register file, a disassembly around PC and the captured logs, and lets the
// user step, run and set breakpoints.
type Debugger struct {
	screen  tcell.Screen
	machine *jeebie.Machine
	logs    *LogBuffer
	logger  *slog.Logger

	logLevel slog.Level
	state    debug.DebuggerState
	running  bool
}

// NewDebugger creates a paused debugger. logs is the buffer the machine's
// logger writes into, it's shown in the bottom pane.
func NewDebugger(screen tcell.Screen, machine *jeebie.Machine, logs *LogBuffer, logger *slog.Logger) *Debugger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debugger{
		screen:   screen,
		machine:  machine,
		logs:     logs,
		logger:   logger,
		logLevel: slog.LevelInfo,
		state:    debug.DebuggerPaused,
		running:  true,
	}
}

func (d *Debugger) State() debug.DebuggerState { return d.state }
func (d *Debugger) Running() bool              { return d.running }

// Run drives the debugger until the user quits or ctx is canceled.
// The screen must already be initialized, Run finalizes it on return.
func (d *Debugger) Run(ctx context.Context) error {
	defer d.screen.Fini()

	d.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	d.screen.Clear()
	d.logger.Info("Debugger ready", "pc", fmt.Sprintf("0x%04X", d.machine.CPU().PC))

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for d.running {
		for d.screen.HasPendingEvent() {
			switch ev := d.screen.PollEvent().(type) {
			case *tcell.EventKey:
				d.HandleKey(ev)
			case *tcell.EventResize:
				d.screen.Sync()
			}
		}

		if d.state == debug.DebuggerRunning {
			d.runFrame(ctx)
		}

		d.Draw()
		d.screen.Show()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// HandleKey applies a single key press.
func (d *Debugger) HandleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		d.running = false
		return
	case tcell.KeyF10:
		d.step()
		return
	case tcell.KeyF9:
		d.toggleBreakpoint()
		return
	case tcell.KeyF5:
		d.toggleRun()
		return
	case tcell.KeyRune:
	default:
		return
	}

	switch ev.Rune() {
	case 'q':
		d.running = false
	case 'n', 's':
		d.step()
	case ' ', 'r':
		d.toggleRun()
	case 'b':
		d.toggleBreakpoint()
	case '+', '=':
		d.changeLogLevel(1)
	case '-', '_':
		d.changeLogLevel(-1)
	}
}

func (d *Debugger) step() {
	if d.state == debug.DebuggerRunning {
		return
	}
	d.state = debug.DebuggerStepInstruction
	if _, err := d.machine.Step(); err != nil {
		d.logger.Error("Step failed", "error", err)
	}
}

func (d *Debugger) toggleRun() {
	if d.state == debug.DebuggerRunning {
		d.state = debug.DebuggerPaused
		d.logger.Info("Paused", "pc", fmt.Sprintf("0x%04X", d.machine.CPU().PC))
		return
	}
	d.state = debug.DebuggerRunning
	d.logger.Info("Running")
}

func (d *Debugger) toggleBreakpoint() {
	pc := d.machine.CPU().PC
	if d.machine.ToggleBreakpoint(pc) {
		d.logger.Info("Breakpoint set", "pc", fmt.Sprintf("0x%04X", pc))
	} else {
		d.logger.Info("Breakpoint cleared", "pc", fmt.Sprintf("0x%04X", pc))
	}
}

// runFrame executes a batch of instructions, pausing on anything but the batch limit.
func (d *Debugger) runFrame(ctx context.Context) {
	reason, err := d.machine.Run(ctx, stepsPerFrame)
	switch reason {
	case jeebie.StopStepLimit:
	case jeebie.StopCanceled:
		d.running = false
	case jeebie.StopError:
		d.state = debug.DebuggerPaused
		d.logger.Error("Execution stopped", "error", err)
	default:
		d.state = debug.DebuggerPaused
	}
}

func (d *Debugger) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	current := 0
	for i, level := range levels {
		if level == d.logLevel {
			current = i
		}
	}

	// increasing shows more logs, so it walks towards debug
	next := current - direction
	if next < 0 || next >= len(levels) {
		return
	}
	old := d.logLevel
	d.logLevel = levels[next]
	d.logger.Info("Log filter changed", "from", old, "to", d.logLevel)
}

// Draw renders the whole debugger into the screen buffer, callers still need to Show.
func (d *Debugger) Draw() {
	termWidth, termHeight := d.screen.Size()
	d.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		d.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	data := d.machine.ExtractDebugData()
	if data == nil {
		return
	}
	data.DebuggerState = d.state

	logsY := registerHeight + 2
	d.drawBorders(termWidth, termHeight, logsY)
	d.drawRegisters(data, 1, 1)
	d.drawDisassembly(data, registerWidth+2, 1, termWidth-registerWidth-3, logsY-2)
	d.drawLogs(1, logsY+1, termWidth-2, termHeight-logsY-2)
}

func (d *Debugger) drawBorders(termWidth, termHeight, logsY int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := 0; y < logsY; y++ {
		d.screen.SetContent(registerWidth+1, y, '│', nil, borderStyle)
	}
	for x := 0; x < termWidth; x++ {
		d.screen.SetContent(x, logsY, '─', nil, borderStyle)
	}
	d.screen.SetContent(registerWidth+1, logsY, '┴', nil, borderStyle)

	d.drawText(1, 0, registerWidth, " CPU Registers ", titleStyle)
	d.drawText(registerWidth+3, 0, termWidth-registerWidth-3, " Disassembly ", titleStyle)
	d.drawText(1, logsY, termWidth-1, fmt.Sprintf(" Logs [%s] (-/+ filter) ", d.logLevel), titleStyle)

	help := " N=step SPACE=run/pause B=breakpoint Q=quit "
	d.drawText(0, termHeight-1, termWidth, help, borderStyle)
}

func (d *Debugger) drawRegisters(data *debug.CompleteDebugData, x, y int) {
	c := data.CPU

	ime := "OFF"
	if c.IME {
		ime = "ON"
	}
	halted := ""
	if c.Halted {
		halted = " HALTED"
	}

	lines := []string{
		fmt.Sprintf("Status: %s%s", data.DebuggerState, halted),
		fmt.Sprintf("A: 0x%02X  F: 0x%02X  [%s]", c.A, c.F, c.Flags),
		fmt.Sprintf("B: 0x%02X  C: 0x%02X", c.B, c.C),
		fmt.Sprintf("D: 0x%02X  E: 0x%02X", c.D, c.E),
		fmt.Sprintf("H: 0x%02X  L: 0x%02X", c.H, c.L),
		fmt.Sprintf("SP: 0x%04X  PC: 0x%04X", c.SP, c.PC),
		fmt.Sprintf("IME: %s  IE: 0x%02X  IF: 0x%02X", ime, data.InterruptEnable, data.InterruptFlags),
		fmt.Sprintf("Cycles: %d", c.Cycles),
		fmt.Sprintf("Steps: %d", data.Steps),
	}
	if data.LastError != nil {
		lines = append(lines, "", "Error:", data.LastError.Error())
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, line := range lines {
		if i >= registerHeight {
			break
		}
		d.drawText(x, y+i, registerWidth-1, line, style)
	}
}

func (d *Debugger) drawDisassembly(data *debug.CompleteDebugData, x, y, width, height int) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	breakStyle := tcell.StyleDefault.Foreground(tcell.ColorRed)

	pc := data.CPU.PC
	for i, line := range data.Disassembly {
		if i >= height {
			break
		}

		lineStyle := style
		if line.Address == pc {
			lineStyle = currentStyle
		}
		if d.machine.IsBreakpoint(line.Address) {
			d.screen.SetContent(x, y+i, '●', nil, breakStyle)
		}
		d.drawText(x+1, y+i, width-1, disasm.FormatDisassemblyLine(line, line.Address == pc), lineStyle)
	}
}

func (d *Debugger) drawLogs(x, y, width, height int) {
	if d.logs == nil || height <= 0 {
		return
	}

	styles := map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}

	for i, entry := range d.logs.Recent(height, d.logLevel) {
		text := FormatLogEntry(entry)
		if len(text) > width && width > 3 {
			text = text[:width-3] + "..."
		}
		style, ok := styles[entry.Level]
		if !ok {
			style = styles[slog.LevelInfo]
		}
		d.drawText(x, y+i, width, text, style)
	}
}

func (d *Debugger) drawText(x, y, width int, text string, style tcell.Style) {
	for _, ch := range text {
		if width <= 0 {
			return
		}
		d.screen.SetContent(x, y, ch, nil, style)
		x++
		width--
	}
}
