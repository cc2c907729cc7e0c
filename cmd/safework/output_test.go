package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"safework/internal/model"
	"safework/internal/safework"
)

func TestTableFor(t *testing.T) {
	views := []safework.DocumentView{{
		Document: model.Document{
			Meta:       model.Meta{ID: 4},
			Title:      "AVCB",
			ExpiryDate: model.NewDate(2025, time.July, 1),
		},
		Status:        safework.StatusExpiring,
		DaysRemaining: 16,
	}}

	tbl, ok := tableFor(views)
	if !ok {
		t.Fatal("tableFor() did not recognise document views")
	}

	var buf bytes.Buffer
	if err := tbl.write(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[1], "Expiring") ||
		!strings.Contains(lines[1], "2025-07-01") || !strings.HasSuffix(lines[1], "16") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}

	if _, ok := tableFor(42); ok {
		t.Error("tableFor(42) should not render")
	}
}

func TestAsList(t *testing.T) {
	got := asList(model.Employee{Name: "Ana"})
	list, ok := got.([]model.Employee)
	if !ok || len(list) != 1 || list[0].Name != "Ana" {
		t.Errorf("asList() = %#v", got)
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("12"); err != nil || id != 12 {
		t.Errorf("parseID(12) = %d, %v", id, err)
	}
	for _, raw := range []string{"0", "-1", "x"} {
		if _, err := parseID(raw); err == nil {
			t.Errorf("parseID(%q) should fail", raw)
		}
	}
}
