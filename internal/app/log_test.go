package app

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLineFormatter_Format(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   logrus.Level
		message string
		data    logrus.Fields
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "op-123",
			level:   logrus.InfoLevel,
			message: "document registered",
			want:    "2024-06-15T14:30:45Z\tINFO\top-123\tdocument registered\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   logrus.DebugLevel,
			message: "record created",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\trecord created\n",
		},
		{
			name:    "fields sorted by key",
			opID:    "op-789",
			level:   logrus.ErrorLevel,
			message: "persisting dataset failed",
			data:    logrus.Fields{"key": "safework-data", "collection": "employees", "id": 4},
			want:    "2024-06-15T14:30:45Z\tERROR\top-789\tpersisting dataset failed\tcollection=employees\tid=4\tkey=safework-data\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &lineFormatter{opID: tt.opID}
			entry := &logrus.Entry{Time: ts, Level: tt.level, Message: tt.message, Data: tt.data}

			got, err := f.Format(entry)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Format() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestLogrusAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&lineFormatter{opID: "op-1"})
	l.SetLevel(logrus.InfoLevel)

	a := &logrusAdapter{l: l}
	a.Debug("hidden", "k", "v")
	a.Info("ppe delivery registered", "id", int64(3), "expiry", "2026-01-01")
	a.Error("failed", "error", errors.New("boom"), "dangling")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug entry written at info level: %q", got)
	}
	if !strings.Contains(got, "ppe delivery registered\texpiry=2026-01-01\tid=3") {
		t.Errorf("missing info entry: %q", got)
	}
	if !strings.Contains(got, "!BADKEY=dangling") || !strings.Contains(got, "error=boom") {
		t.Errorf("missing error entry fields: %q", got)
	}
}

func TestNewLogger(t *testing.T) {
	dir := t.TempDir()

	logger, f, err := newLogger(dir, "test-op", "debug")
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %v, want debug", logger.GetLevel())
	}

	if _, _, err := newLogger(dir, "test-op", "loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
