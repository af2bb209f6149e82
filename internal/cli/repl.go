// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repl.go - Line editing and history for the interactive commands.

package cli

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// errAborted is returned by a LineReader when the user pressed Ctrl+C.
var errAborted = errors.New("aborted")

// LineReader reads one line of user input.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// =============================================================================
// LINER-BACKED READER
// =============================================================================

// linerReader provides arrow-key history and line editing.
type linerReader struct {
	line        *liner.State
	historyFile string
}

// newLineReader returns a liner reader on a terminal and a plain scanner
// otherwise. History lives in dir/<name>_history.
func newLineReader(in io.Reader, dir, name string) LineReader {
	if f, ok := in.(*os.File); !ok || f != os.Stdin || !IsTTY() {
		return &scannerReader{scanner: bufio.NewScanner(in)}
	}

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	r := &linerReader{line: line}
	if dir != "" {
		r.historyFile = filepath.Join(dir, name+"_history")
		if f, err := os.Open(r.historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errAborted
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with 0600 permissions and restores the terminal.
func (r *linerReader) Close() error {
	if r.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
			if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
				r.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	return r.line.Close()
}

// =============================================================================
// PLAIN READER
// =============================================================================

// scannerReader reads piped input; the prompt is not echoed.
type scannerReader struct {
	scanner *bufio.Scanner
}

func (r *scannerReader) ReadLine(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scannerReader) Close() error { return nil }
