package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// OutputFormatter renders events human-readably, with color when the
// writer is a terminal.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	return &OutputFormatter{useColor: useColor, writer: w}
}

// isTerminal reports whether fd is standard output or standard error; it
// does not test whether the descriptor is a terminal. The color package
// separately turns color off when standard output is not a terminal.
func isTerminal(fd uintptr) bool {
	return fd == uintptr(1) || fd == uintptr(2) // stdout or stderr
}

// Handle implements the Handler interface - prints events as they occur.
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	switch event.Name {
	case OptimizeBegin:
		return fmt.Sprintf("%s optimizing %v (required %v)",
			f.colorize("===", color.FgYellow), event.Data["query"], event.Data["required"])
	case OptimizeComplete:
		return fmt.Sprintf("%s done: %d groups, %d members, %d tasks, cost %v",
			f.colorize("===", color.FgGreen),
			event.Data["groups"], event.Data["members"], event.Data["tasks"], event.Data["cost"])
	case RuleApplied:
		return fmt.Sprintf("  %s %v on %v (%v new)",
			f.colorize("rule", color.FgCyan), event.Data["rule"], event.Data["mexpr"], event.Data["inserted"])
	case WinnerUpdated:
		return fmt.Sprintf("  %s group %v [%v] -> %v cost=%v",
			f.colorize("winner", color.FgMagenta),
			event.Data["group"], event.Data["required"], event.Data["mexpr"], event.Data["cost"])
	case GroupExplored:
		return fmt.Sprintf("  explored group %v", event.Data["group"])
	case GroupOptimized:
		return fmt.Sprintf("  optimized group %v [%v]", event.Data["group"], event.Data["required"])
	default:
		return ""
	}
}

func (f *OutputFormatter) colorize(s string, attr color.Attribute) string {
	if !f.useColor {
		return s
	}
	return color.New(attr).Sprint(s)
}
