package ui

import (
	"fmt"
	"os"
	"strings"
)

// Message displays a plain message.
func Message(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
	fmt.Fprintln(os.Stdout)
}

// Error displays an error message to stderr.
func Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Success displays a success message.
func Success(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Section displays a section header.
func Section(title string) {
	fmt.Fprintf(os.Stdout, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
}

// Box displays text in a box with borders.
func Box(title string, content string) {
	lines := strings.Split(content, "\n")
	maxWidth := len(title)
	for _, line := range lines {
		if len(line) > maxWidth {
			maxWidth = len(line)
		}
	}
	if maxWidth < 40 {
		maxWidth = 40
	}

	fmt.Printf("┌%s┐\n", strings.Repeat("─", maxWidth+2))
	if title != "" {
		fmt.Printf("│ %-*s │\n", maxWidth, title)
		fmt.Printf("├%s┤\n", strings.Repeat("─", maxWidth+2))
	}
	for _, line := range lines {
		fmt.Printf("│ %-*s │\n", maxWidth, line)
	}
	fmt.Printf("└%s┘\n", strings.Repeat("─", maxWidth+2))
}
