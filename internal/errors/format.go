package errors

import (
	"fmt"
	"os"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
	colorWhite = "\033[37m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string   { return color(colorRed, text) }
func blue(text string) string  { return color(colorBlue, text) }
func cyan(text string) string  { return color(colorCyan, text) }
func white(text string) string { return color(colorWhite, text) }
func gray(text string) string  { return color(colorGray, text) }
func bold(text string) string  { return color(colorBold, text) }

// Format returns a formatted error block for terminal display.
func (e *SigilError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(red(bold("ERROR ")))
		b.WriteString(white(bold(e.Code + ": ")))
		b.WriteString(white(e.Message))
	} else {
		b.WriteString(red(bold("ERROR: ")))
		b.WriteString(white(e.Message))
	}
	b.WriteString("\n\n")

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(gray("Cause: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(cyan("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	if e.DocURL != "" {
		b.WriteString("  ")
		b.WriteString(gray("Learn more: "))
		b.WriteString(blue(e.DocURL))
		b.WriteString("\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *SigilError) FormatCompact() string {
	var b strings.Builder

	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}

	return b.String()
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	words := strings.Fields(text)
	var current strings.Builder

	for _, word := range words {
		if current.Len()+len(word)+1 > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}

	return lines
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	if se, ok := err.(*SigilError); ok {
		fmt.Fprint(os.Stderr, se.Format())
	} else {
		fmt.Fprintf(os.Stderr, "\n%sERROR:%s %s\n\n", colorRed+colorBold, colorReset, err.Error())
	}
}
