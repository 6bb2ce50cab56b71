package output

import (
	"io"
	"os"
)

// ResolveColorMode determines whether to use colors based on the
// --color flag value and TTY detection.
// Valid modes: "never", "always", "auto" (and "" which means auto).
// Unknown values fall back to auto.
func ResolveColorMode(colorMode string, isTTY bool) bool {
	switch colorMode {
	case "never":
		return false
	case "always":
		return true
	default:
		return isTTY
	}
}

// IsTTY checks if a writer is a terminal.
// Returns true only for os.File that is a terminal.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
