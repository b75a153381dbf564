package report

import (
	"strings"
	"testing"
	"time"
)

func TestIPStringRendersDottedQuad(t *testing.T) {
	// 10.0.0.1 in host byte order.
	got := IPString(0x0A000001)
	if got != "10.0.0.1" {
		t.Fatalf("IPString(10.0.0.1) = %q", got)
	}
}

func TestLineFormatsPortsAscendingWithDestination(t *testing.T) {
	d := Detection{
		When:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Source: 0x0A000001,
		Dest:   0xC0A80101,
		Ports:  []uint16{22, 80, 443},
	}
	line := Line(d)

	if !strings.Contains(line, "10.0.0.1 -> 192.168.1.1") {
		t.Fatalf("line missing source -> dest: %q", line)
	}
	if !strings.Contains(line, "on ports 22 80 443") {
		t.Fatalf("line missing ports in order: %q", line)
	}
	if !strings.HasPrefix(line, "2024-01-02T03:04:05") {
		t.Fatalf("line missing leading timestamp: %q", line)
	}
}
