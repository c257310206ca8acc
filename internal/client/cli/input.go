package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Prompter reads interactive answers. Output goes to w.
type Prompter struct {
	reader *bufio.Reader
	w      io.Writer
}

func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{reader: bufio.NewReader(r), w: w}
}

// Text prints prompt and reads one trimmed line. A final line without a
// newline is accepted.
//
//	Prompt text
//	> _
func (p *Prompter) Text(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Password reads a password from the terminal without echo.
func (p *Prompter) Password() (string, error) {
	if _, err := fmt.Fprint(p.w, "Enter password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(p.w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Multiline reads lines until an empty one and joins them with '\n'.
func (p *Prompter) Multiline(prompt string) (string, error) {
	if _, err := fmt.Fprint(p.w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := p.reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
