package logger

import "os"

// isTerminal reports whether f looks like an interactive terminal, used to
// decide whether to emit ANSI color codes.
func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
