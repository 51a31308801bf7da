package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from stdin. Passwords are read without echo when stdin is a terminal.
type prompter struct {
	in  io.Reader
	out io.Writer
	br  *bufio.Reader
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, out: out, br: bufio.NewReader(in)}
}

func (p *prompter) terminalFd() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func (p *prompter) line(label string) (string, error) {
	if _, tty := p.terminalFd(); tty {
		fmt.Fprint(p.out, label)
	}
	s, err := p.br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.TrimSpace(label), ":"), err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) password(label string) (string, error) {
	fd, tty := p.terminalFd()
	if !tty {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// newPassword asks twice on a terminal and requires both entries to match.
func (p *prompter) newPassword() (string, error) {
	pw, err := p.password("Password: ")
	if err != nil {
		return "", err
	}
	if _, tty := p.terminalFd(); !tty {
		return pw, nil
	}
	again, err := p.password("Confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", errors.New("passwords must match")
	}
	return pw, nil
}
