package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"imgopt/internal/metadata"
	"imgopt/internal/processor"
)

func TestObserve(t *testing.T) {
	c := New()
	c.Observe(processor.Result{
		Outcome:      processor.OutcomeSuccess,
		OriginalSize: 1000,
		NewSize:      400,
		Compressed:   true,
		Removed:      []metadata.Block{{Kind: metadata.BlockEXIF}, {Kind: metadata.BlockICC}},
	})
	c.Observe(processor.Result{Outcome: processor.OutcomeSuccess, OriginalSize: 500, NewSize: 500})
	c.Observe(processor.Result{Outcome: processor.OutcomeSkippedUnreadable, OriginalSize: 99})
	c.Observe(processor.Result{Outcome: processor.OutcomeFailed})

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"success", testutil.ToFloat64(c.FilesTotal.WithLabelValues("success")), 2},
		{"unreadable", testutil.ToFloat64(c.FilesTotal.WithLabelValues("skipped-unreadable")), 1},
		{"failed", testutil.ToFloat64(c.FilesTotal.WithLabelValues("failed")), 1},
		{"input bytes", testutil.ToFloat64(c.InputBytes), 1500},
		{"output bytes", testutil.ToFloat64(c.OutputBytes), 900},
		{"compressed", testutil.ToFloat64(c.Compressed), 1},
		{"exif", testutil.ToFloat64(c.MetadataBlocks.WithLabelValues("EXIF")), 1},
	}
	for _, ck := range checks {
		if ck.got != ck.want {
			t.Errorf("%s = %v, want %v", ck.name, ck.got, ck.want)
		}
	}

	if n := testutil.CollectAndCount(c.SizeRatio); n != 1 {
		t.Errorf("size ratio series = %d, want 1", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.Observe(processor.Result{Outcome: processor.OutcomeSuccess, OriginalSize: 10, NewSize: 5})

	path := filepath.Join(t.TempDir(), "imgopt.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `imgopt_files_total{outcome="success"} 1`) {
		t.Fatalf("textfile missing counter:\n%s", data)
	}
}
