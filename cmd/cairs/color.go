package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// colorWriter wraps stdout with Windows ANSI passthrough (go-colorable) and
// only emits color codes when stdout is actually a terminal (go-isatty) —
// grounded in these two packages already riding along as indirect deps of
// mbflow's console logger.
type colorWriter struct {
	w      io.Writer
	colors bool
}

func newColorWriter() *colorWriter {
	return &colorWriter{
		w:      colorable.NewColorableStdout(),
		colors: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}
}

const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

func (c *colorWriter) paint(code, format string, args ...interface{}) string {
	s := fmt.Sprintf(format, args...)
	if !c.colors {
		return s
	}
	return code + s + ansiReset
}

func (c *colorWriter) Println(s string) {
	fmt.Fprintln(c.w, s)
}

func (c *colorWriter) ok(format string, args ...interface{}) {
	c.Println(c.paint(ansiGreen, format, args...))
}

func (c *colorWriter) fail(format string, args ...interface{}) {
	c.Println(c.paint(ansiRed, format, args...))
}

func (c *colorWriter) warn(format string, args ...interface{}) {
	c.Println(c.paint(ansiYellow, format, args...))
}
