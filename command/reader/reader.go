/*
   R4300 - Command reader.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package reader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/rcornwell/R4300/command/parser"
	"github.com/rcornwell/R4300/emu/core"
)

const prompt = "R4300> "

// Read commands from console until quit. Input that is not a terminal
// is processed as a batch of commands.
func ConsoleReader(core *core.Core) {
	done := make(chan struct{})
	defer close(done)
	go reportStops(core, os.Stdout, done)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if err := BatchReader(os.Stdin, core); err != nil {
			slog.Error("error reading commands: " + err.Error())
		}
		return
	}

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(line string) []string {
		return parser.CompleteCmd(line)
	})

	for {
		command, err := line.Prompt(prompt)
		if err == nil {
			line.AppendHistory(command)
			quit, err := parser.ProcessCommand(command, core)
			if err != nil {
				fmt.Println("Error: " + err.Error())
			}
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return
		}
		slog.Error("error reading line: " + err.Error())
		return
	}
}

// Process commands from reader, stopping at first error or quit.
func BatchReader(r io.Reader, core *core.Core) error {
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		quit, err := parser.ProcessCommand(scanner.Text(), core)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNumber, err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// Tell user when CPU stops by itself.
func reportStops(core *core.Core, w io.Writer, done chan struct{}) {
	for {
		select {
		case err := <-core.Stopped:
			if err != nil {
				fmt.Fprintf(w, "\nCPU stopped: %s\n", err.Error())
			}
		case <-done:
			return
		}
	}
}
