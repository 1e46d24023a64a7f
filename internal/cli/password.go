package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PasswordEnv overrides the interactive prompt.
const PasswordEnv = "FILMCTL_PASSWORD"

// PasswordSource returns a password for prompt.
type PasswordSource func(prompt string) (string, error)

// TerminalPassword reads FILMCTL_PASSWORD, or prompts on the terminal
// without echo. Piped stdin is read as a single line.
func TerminalPassword(prompt string) (string, error) {
	if v, ok := os.LookupEnv(PasswordEnv); ok {
		return v, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.New("no password on stdin")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// StaticPassword always returns pw.
func StaticPassword(pw string) PasswordSource {
	return func(string) (string, error) { return pw, nil }
}
