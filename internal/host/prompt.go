package host

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// FixedPrompt answers every save prompt without user interaction. An empty
// Path accepts the suggested destination.
type FixedPrompt struct {
	Path string
}

// AskForFileForSaving returns the configured path or the suggestion
func (p FixedPrompt) AskForFileForSaving(suggested string) (string, error) {
	if p.Path != "" {
		return p.Path, nil
	}
	return suggested, nil
}

// LinePrompt asks on a terminal. An empty answer accepts the suggestion, a
// single "-" cancels.
type LinePrompt struct {
	In  io.Reader
	Out io.Writer
}

// AskForFileForSaving prints the suggestion and reads one line
func (p LinePrompt) AskForFileForSaving(suggested string) (string, error) {
	fmt.Fprintf(p.Out, "Save archive to [%s]: ", suggested)

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading answer: %w", err)
	}

	answer := strings.TrimSpace(line)
	switch answer {
	case "":
		return suggested, nil
	case "-":
		return "", ErrCancelled
	default:
		return answer, nil
	}
}
