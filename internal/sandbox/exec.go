package sandbox

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/nvoss/toolgate/internal/domain"
)

// Runner executes a small allow-list of read-only commands against the
// sandbox root. Commands are tokenized without a shell, so pipes,
// redirections, and other metacharacters carry no meaning.
type Runner struct {
	root           *Root
	maxOutputChars int
}

// NewRunner creates a new command runner
func NewRunner(root *Root, maxOutputChars int) *Runner {
	return &Runner{root: root, maxOutputChars: maxOutputChars}
}

// Run parses the command and dispatches to the allow-listed verb.
// Rejected verbs are not echoed back in the failure message.
func (r *Runner) Run(command string) (string, error) {
	tokens, err := shellwords.Parse(command)
	if err != nil {
		return "", fmt.Errorf("%w: could not parse command", domain.ErrNotPermitted)
	}
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: empty command", domain.ErrNotPermitted)
	}

	verb := strings.ToLower(tokens[0])
	switch verb {
	case "dir":
		verb = "ls"
	case "type":
		verb = "cat"
	}

	switch verb {
	case "ls":
		return r.list(tokens[1:])
	case "cat":
		return r.readAll(tokens[1:])
	case "head":
		return r.readLines(tokens[1:], false)
	case "tail":
		return r.readLines(tokens[1:], true)
	default:
		return "", fmt.Errorf("%w: only read-only commands are allowed: ls/dir, cat/type, head, tail", domain.ErrNotPermitted)
	}
}

func (r *Runner) list(args []string) (string, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	abs, err := r.root.Resolve(target)
	if err != nil {
		return "", err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return "", domain.ErrNotFound
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return "[empty]", nil
	}
	return strings.Join(names, "\n"), nil
}

func (r *Runner) readAll(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: usage: cat <path>", domain.ErrNotPermitted)
	}
	data, err := r.readFile(args[0])
	if err != nil {
		return "", err
	}
	return Truncate(Redact(string(data)), r.maxOutputChars), nil
}

func (r *Runner) readLines(args []string, fromEnd bool) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("%w: usage: head|tail <path> [lines]", domain.ErrNotPermitted)
	}

	n := 10
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed < 0 {
			return "", fmt.Errorf("%w: line count must be a non-negative integer", domain.ErrNotPermitted)
		}
		n = parsed
	}

	data, err := r.readFile(args[0])
	if err != nil {
		return "", err
	}

	lines := strings.SplitAfter(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if n > len(lines) {
		n = len(lines)
	}

	var selected []string
	if fromEnd {
		selected = lines[len(lines)-n:]
	} else {
		selected = lines[:n]
	}
	return Truncate(Redact(strings.Join(selected, "")), r.maxOutputChars), nil
}

// readFile resolves and reads a regular file; every OS-level failure is
// translated to a typed error before it can reach the caller.
func (r *Runner) readFile(path string) ([]byte, error) {
	abs, err := r.root.Resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, domain.ErrNotFound
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	return data, nil
}
