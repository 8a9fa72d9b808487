// Package logger writes diagnostics to stderr. Level lines appear only
// with --verbose; pipeline event lines can be enabled on their own.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	events  bool
	output  io.Writer = os.Stderr
)

func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all lines. Tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// SetEvents turns event lines on without verbose output. serve enables it.
func SetEvents(v bool) {
	mu.Lock()
	events = v
	mu.Unlock()
}

func Debug(format string, args ...any) { logf("DEBUG", format, args...) }
func Info(format string, args ...any)  { logf("INFO", format, args...) }
func Warn(format string, args ...any)  { logf("WARN", format, args...) }

// Section prints a banner that separates pipeline stages.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func logf(level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "[%s] %s\n", level, fmt.Sprintf(format, args...))
	}
}

// Event prints one logfmt line for a pipeline event. Fields are sorted by
// key and values containing spaces, quotes or '=' are quoted.
func Event(component, name string, fields map[string]any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose && !events {
		return
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	line := []string{"[EVENT]", "component=" + component, "event=" + name}
	for _, k := range keys {
		line = append(line, k+"="+logfmtValue(fields[k]))
	}
	fmt.Fprintln(output, strings.Join(line, " "))
}

func logfmtValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}
