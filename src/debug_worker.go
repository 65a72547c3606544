package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/ryansname/tariffctl/src/tariff"
	"github.com/sirupsen/logrus"
)

// readlineWriter wraps log output to work with readline
type readlineWriter struct {
	rl *readline.Instance
}

func (w *readlineWriter) Write(p []byte) (n int, err error) {
	if w.rl != nil {
		w.rl.Clean()
	}
	n, err = os.Stderr.Write(p)
	if w.rl != nil {
		w.rl.Refresh()
	}
	return n, err
}

// Global readline writer for log output
var rlWriter = &readlineWriter{}

// DebugState holds what the console can show about the tariff worker
type DebugState struct {
	status    *TariffStatus
	powerwall *Powerwall
	rl        *readline.Instance
	out       io.Writer
}

// NewDebugState creates a new debug state
func NewDebugState(powerwall *Powerwall) *DebugState {
	return &DebugState{
		powerwall: powerwall,
		out:       os.Stdout,
	}
}

// UpdateStatus stores the latest tariff worker status
func (s *DebugState) UpdateStatus(status TariffStatus) {
	s.status = &status
}

// SetReadline sets the readline instance for proper output handling
func (s *DebugState) SetReadline(rl *readline.Instance) {
	s.rl = rl
}

// print outputs a line, handling readline prompt properly
func (s *DebugState) print(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if s.rl != nil {
		s.rl.Clean()
		fmt.Fprintln(s.out, line)
		s.rl.Refresh()
	} else {
		fmt.Fprintln(s.out, line)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func describeWindow(w WindowSummary) string {
	if w.MPAN == "" {
		return "not tracked"
	}
	parts := make([]string, 0, len(w.Days))
	for day, d := range w.Days {
		state := "unset"
		if d.Set {
			state = fmt.Sprintf("%d slots", d.Slots)
		}
		parts = append(parts, fmt.Sprintf("%s=%s", tariff.Day(day), state))
	}
	return fmt.Sprintf("%s [%s]", w.MPAN, strings.Join(parts, " "))
}

// PrintStatus prints window readiness and the last outcome
func (s *DebugState) PrintStatus() {
	if s.status == nil {
		s.print("No rate updates received yet")
		return
	}
	st := s.status
	s.print("Updates:      %d (last %s)", st.Updates, formatTime(st.UpdatedAt))
	s.print("Last outcome: %s", st.Outcome)
	if st.Error != "" {
		s.print("Last error:   %s", st.Error)
	}
	s.print("Import:       %s", describeWindow(st.Import))
	s.print("Export:       %s", describeWindow(st.Export))
	s.print("Last push:    %s", formatTime(st.PushedAt))
}

// PrintTariff prints the last pushed tariff document
func (s *DebugState) PrintTariff() {
	if s.status == nil || s.status.Document == nil {
		s.print("No tariff pushed yet")
		return
	}
	data, err := json.MarshalIndent(s.status.Document, "", "  ")
	if err != nil {
		logrus.Errorf("Error: %v", err)
		return
	}
	s.print("%s", data)
}

// PrintRates prints per-day slot counts for the import or export window
func (s *DebugState) PrintRates(which string) {
	if s.status == nil {
		s.print("No rate updates received yet")
		return
	}
	var w WindowSummary
	switch which {
	case "import":
		w = s.status.Import
	case "export":
		w = s.status.Export
	default:
		logrus.Warn("Usage: rates <import|export>")
		return
	}
	if w.MPAN == "" {
		s.print("%s rates are not tracked", which)
		return
	}

	s.print("%s mpan %s:", which, w.MPAN)
	for day, d := range w.Days {
		if !d.Set {
			s.print("  %-8s unset", tariff.Day(day))
			continue
		}
		s.print("  %-8s %d slots", tariff.Day(day), d.Slots)
	}
}

// PushTariff resends the last pushed tariff
func (s *DebugState) PushTariff() {
	if s.status == nil || s.status.Document == nil {
		s.print("No tariff to push")
		return
	}
	if s.powerwall == nil {
		s.print("No Powerwall configured")
		return
	}
	if err := s.powerwall.SetTariff(s.status.Document); err != nil {
		logrus.Errorf("Error: %v", err)
		return
	}
	logrus.Infof("Powerwall tariff %q resent", s.status.Document.Name)
}

// handleDebugCommand processes a debug command
func handleDebugCommand(cmd string, state *DebugState) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "status":
		state.PrintStatus()

	case "tariff":
		state.PrintTariff()

	case "rates":
		if len(parts) < 2 {
			logrus.Warn("Usage: rates <import|export>")
			return
		}
		state.PrintRates(parts[1])

	case "push":
		state.PushTariff()

	case "help":
		state.print("Commands:")
		state.print("  status                   - Show rate window readiness and the last outcome")
		state.print("  tariff                   - Show the last pushed tariff")
		state.print("  rates <import|export>    - Show slot counts per day")
		state.print("  push                     - Resend the last pushed tariff")
		state.print("  help                     - Show this help")

	default:
		logrus.Warnf("Unknown command: %s (try 'help')", parts[0])
	}
}

// readlineLoop runs the readline loop, sending commands to the channel
func readlineLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	rl *readline.Instance,
	commandChan chan<- string,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			cancel() // Ctrl+C pressed, shutdown the app
			return
		}
		if err != nil {
			return // EOF or other error
		}
		line = strings.TrimSpace(line)
		if line != "" {
			commandChan <- line
		}
	}
}

// getHistoryFilePath returns the path for debug history file
func getHistoryFilePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	tariffctlCache := filepath.Join(cacheDir, "tariffctl")
	_ = os.MkdirAll(tariffctlCache, 0750)
	return filepath.Join(tariffctlCache, "debug_history")
}

// debugWorker provides interactive introspection of the tariff worker
func debugWorker(
	ctx context.Context,
	cancel context.CancelFunc,
	statusChan <-chan TariffStatus,
	powerwall *Powerwall,
) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "> ",
		HistoryFile: getHistoryFilePath(),
	})
	if err != nil {
		logrus.Errorf("Debug worker: readline init failed: %v", err)
		return
	}
	defer func() {
		_ = rl.Close()
		logrus.SetOutput(os.Stderr)
		rlWriter.rl = nil
	}()

	// Redirect log output through readline-aware writer
	rlWriter.rl = rl
	logrus.SetOutput(rlWriter)

	logrus.Info("Debug worker started (type 'help' for commands)")

	commandChan := make(chan string, 10)
	state := NewDebugState(powerwall)
	state.SetReadline(rl)

	go readlineLoop(ctx, cancel, rl, commandChan)

	for {
		select {
		case cmd := <-commandChan:
			handleDebugCommand(cmd, state)
		case status := <-statusChan:
			state.UpdateStatus(status)
		case <-ctx.Done():
			logrus.Info("Debug worker stopped")
			return
		}
	}
}
