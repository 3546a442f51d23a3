// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// capture redirects output for the duration of the test and restores the
// previous level afterwards.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := GetLevel()
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   LogLevel
		wantOK bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"", LevelInfo, true},
		{"Warning", LevelWarn, true},
		{"error", LevelError, true},
		{"fatal", LevelFatal, true},
		{"verbose", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelWarn)

	Debugf("hidden %d", 1)
	Info("hidden")
	Warnf("shown %d", 2)
	Error("shown too")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages: %q", out)
	}
	if !strings.Contains(out, "[WARN]  shown 2") || !strings.Contains(out, "[ERROR] shown too") {
		t.Errorf("output missing expected messages: %q", out)
	}
}

func TestConfigure(t *testing.T) {
	capture(t)

	if err := Configure(true, "error"); err != nil || GetLevel() != LevelDebug {
		t.Errorf("debug flag should force LevelDebug, got %v (err %v)", GetLevel(), err)
	}
	if err := Configure(false, "warn"); err != nil || GetLevel() != LevelWarn {
		t.Errorf("Configure(false, warn) = %v (err %v)", GetLevel(), err)
	}
	if err := Configure(false, "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestComponentPrefix(t *testing.T) {
	buf := capture(t)
	SetLevel(LevelDebug)

	Component("Engine").Infof("started at %d Hz", 48000)

	if !strings.Contains(buf.String(), "[INFO]  Engine: started at 48000 Hz") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

// formatCounter counts how often a message argument is formatted.
type formatCounter struct{ n int }

func (f *formatCounter) String() string {
	f.n++
	return "arg"
}

func TestComponentSkipsFilteredFormatting(t *testing.T) {
	tests := []struct {
		name      string
		level     LogLevel
		log       func(c Component, arg *formatCounter)
		wantCalls int
	}{
		{"Debug filtered", LevelInfo, func(c Component, a *formatCounter) { c.Debugf("%v", a) }, 0},
		{"Info filtered", LevelWarn, func(c Component, a *formatCounter) { c.Infof("%v", a) }, 0},
		{"Warn filtered", LevelError, func(c Component, a *formatCounter) { c.Warnf("%v", a) }, 0},
		{"Error filtered", LevelFatal, func(c Component, a *formatCounter) { c.Errorf("%v", a) }, 0},
		{"Warn shown", LevelWarn, func(c Component, a *formatCounter) { c.Warnf("%v", a) }, 1},
		{"Error shown", LevelDebug, func(c Component, a *formatCounter) { c.Errorf("%v", a) }, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			SetLevel(tt.level)

			var arg formatCounter
			tt.log(Component("Publisher"), &arg)

			if arg.n != tt.wantCalls {
				t.Errorf("argument formatted %d times, want %d", arg.n, tt.wantCalls)
			}
			if shown := strings.Contains(buf.String(), "Publisher: arg"); shown != (tt.wantCalls > 0) {
				t.Errorf("unexpected output: %q", buf.String())
			}
		})
	}
}

func TestFatalExits(t *testing.T) {
	buf := capture(t)
	code := -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = os.Exit })

	Fatalf("boom %s", "now")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "[FATAL] boom now") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
