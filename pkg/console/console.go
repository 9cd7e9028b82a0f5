package console

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ProgressLog rewrites the same terminal line to report the progress of a long operation.
type ProgressLog struct {
	output        io.Writer
	showBar       bool
	showPercent   bool
	maxSteps      int
	currentStep   int
	maxCharacters int
}

func NewProgressLog(maxSteps int, options ...func(*ProgressLog)) *ProgressLog {
	result := &ProgressLog{
		output:        os.Stdout,
		showPercent:   false,
		showBar:       true,
		maxSteps:      maxSteps,
		maxCharacters: 80,
	}
	for _, option := range options {
		option(result)
	}
	return result
}

func ToWriter(w io.Writer) func(*ProgressLog) {
	return func(s *ProgressLog) {
		s.output = w
	}
}

func HideBar() func(*ProgressLog) {
	return func(s *ProgressLog) {
		s.showBar = false
	}
}

func ShowPercent() func(*ProgressLog) {
	return func(s *ProgressLog) {
		s.showPercent = true
	}
}

func LineLength(characters int) func(*ProgressLog) {
	return func(s *ProgressLog) {
		s.maxCharacters = characters
	}
}

// Next reports the completion of the next step.
func (l *ProgressLog) Next(message string) {
	if l.currentStep < l.maxSteps {
		l.currentStep++
	}
	l.Log(l.currentStep, message)
}

func (l *ProgressLog) Log(currentStep int, message string) {
	l.currentStep = currentStep

	// An empty operation is always complete
	i100 := 100
	if l.maxSteps > 0 {
		i100 = min(currentStep*100/l.maxSteps, 100)
	}

	// We show between 0 and 10 '#' depending on the percent
	i10 := i100 / 10

	var sb strings.Builder
	if l.showBar {
		sb.WriteString(strings.Repeat("#", i10))
		sb.WriteString(strings.Repeat(" ", 10-i10))
		sb.WriteRune(' ')
	}
	if l.showPercent {
		sb.WriteString(fmt.Sprintf("(%3d%%) ", i100))
	} else {
		sb.WriteString(fmt.Sprintf("(%d/%d) ", currentStep, l.maxSteps))
	}
	sb.WriteString(message)

	fmt.Fprint(l.output, l.pad(sb.String()), "\r")
}

// Clear erases the progress line and prints the message on its own line, if any.
func (l *ProgressLog) Clear(newMessage string) {
	fmt.Fprint(l.output, l.pad(newMessage))
	if newMessage == "" {
		fmt.Fprint(l.output, "\r")
	} else {
		fmt.Fprint(l.output, "\n")
	}
}

// pad truncates or completes the line to overwrite the previous one.
func (l *ProgressLog) pad(line string) string {
	if len(line) > l.maxCharacters {
		return line[0:l.maxCharacters]
	}
	return line + strings.Repeat(" ", l.maxCharacters-len(line))
}
