package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: level, Output: &buf})
	return l, &buf
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger(WARN)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("warn %d", 3)
	l.Errorf("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
}

func TestLogger_ErrorAboveWarn(t *testing.T) {
	l, buf := newTestLogger(ERROR)

	l.Warn("quiet")
	l.Error("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestLogger_With(t *testing.T) {
	l, buf := newTestLogger(INFO)

	child := l.With("[service]").With("[align]")
	child.Infof("aligned %d notes", 3)

	line := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasSuffix(line, "[INFO] [service] [align] aligned 3 notes"), line)
}

func TestLogger_WithSharesOutput(t *testing.T) {
	l, _ := newTestLogger(INFO)
	child := l.With("[worker]")

	var buf bytes.Buffer
	l.SetOutput(&buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			l.Infof("parent %d", i)
		}(i)
		go func(i int) {
			defer wg.Done()
			child.Infof("child %d", i)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 16)
	assert.Contains(t, buf.String(), "[INFO] [worker] child 7")
	assert.Contains(t, buf.String(), "[INFO] parent 7")
}

func TestLogger_NoArgsKeepsPercent(t *testing.T) {
	l, buf := newTestLogger(INFO)
	msg := "100% done"
	l.Info(msg)
	assert.Contains(t, buf.String(), msg)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", DEBUG, true},
		{" INFO ", INFO, true},
		{"warning", WARN, true},
		{"Error", ERROR, true},
		{"fatal", FATAL, true},
		{"verbose", INFO, false},
		{"", INFO, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "ERROR", ERROR.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}
