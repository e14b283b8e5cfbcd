package metrics

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHostSource_CPUFreqReadsCurrentClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaling_cur_freq")
	if err := os.WriteFile(path, []byte("1199998\n"), 0o644); err != nil {
		t.Fatalf("failed to write cpufreq file: %v", err)
	}
	s := &HostSource{curFreqPath: path, commandTimeout: time.Second}

	got, err := s.CPUFreqMHz(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 1199.998 {
		t.Errorf("expected 1199.998 MHz, got %v", got)
	}
}

func TestReadCurFreqMHz_Unusable(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage")
	if err := os.WriteFile(garbage, []byte("n/a"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	zero := filepath.Join(dir, "zero")
	if err := os.WriteFile(zero, []byte("0"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	for name, path := range map[string]string{
		"empty path": "",
		"missing":    filepath.Join(dir, "missing"),
		"garbage":    garbage,
		"zero":       zero,
	} {
		if _, ok := readCurFreqMHz(path); ok {
			t.Errorf("%s: expected no reading", name)
		}
	}
}
