/*
   R4300 - Log output handler.

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

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler writing one line per record to a file, with warnings and
// errors, or everything in debug mode, copied to the console.
type LogHandler struct {
	out     io.Writer
	console io.Writer
	h       slog.Handler
	mu      *sync.Mutex
	debug   bool
	attrs   []string
}

func (h *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *h
	n.h = h.h.WithAttrs(attrs)
	n.attrs = append([]string{}, h.attrs...)
	for _, a := range attrs {
		n.attrs = append(n.attrs, a.Key+"="+a.Value.String())
	}
	return &n
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	n := *h
	n.h = h.h.WithGroup(name)
	return &n
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"
	formattedTime := r.Time.Format("2006/01/02 15:04:05")

	strs := []string{formattedTime, level, r.Message}
	strs = append(strs, h.attrs...)

	if r.NumAttrs() != 0 {
		r.Attrs(func(a slog.Attr) bool {
			strs = append(strs, a.Key+"="+a.Value.String())
			return true
		})
	}
	result := strings.Join(strs, " ") + "\n"
	b := []byte(result)

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write(b)
	}

	if h.debug || r.Level > slog.LevelInfo {
		_, err = h.console.Write(b)
	}
	return err
}

func (h *LogHandler) SetDebug(debug bool) {
	h.mu.Lock()
	h.debug = debug
	h.mu.Unlock()
}

// Change log file.
func (h *LogHandler) SetFile(w io.Writer) {
	h.mu.Lock()
	h.out = w
	h.mu.Unlock()
}

// Send console copy somewhere other than stderr.
func (h *LogHandler) SetConsole(w io.Writer) {
	h.mu.Lock()
	h.console = w
	h.mu.Unlock()
}

func NewHandler(file io.Writer, opts *slog.HandlerOptions, debug bool) *LogHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	out := file
	if out == nil {
		out = io.Discard
	}
	return &LogHandler{
		out:     file,
		console: os.Stderr,
		h: slog.NewTextHandler(out, &slog.HandlerOptions{
			Level:       opts.Level,
			AddSource:   opts.AddSource,
			ReplaceAttr: nil,
		}),
		mu:    &sync.Mutex{},
		debug: debug,
	}
}
