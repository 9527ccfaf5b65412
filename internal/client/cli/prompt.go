package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	coreerrors "werss-client/internal/core/errors"
)

// Prompter 读取用户输入
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	tty *os.File // 非 nil 时密码输入不回显
}

// NewPrompter in 为终端时密码输入关闭回显
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
	}
	return p
}

// Line 读取一行，去掉首尾空白
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", coreerrors.Wrap(err, coreerrors.CodeInvalidParam, "read input")
	}
	return strings.TrimSpace(line), nil
}

// Password 读取密码
func (p *Prompter) Password(label string) (string, error) {
	if p.tty == nil {
		return p.Line(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(int(p.tty.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CodeInvalidParam, "read password")
	}
	return string(b), nil
}
