// Package metrics counts run outcomes in a private Prometheus registry that
// can be dumped as a node-exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"imgopt/internal/processor"
)

type Collector struct {
	registry *prometheus.Registry

	FilesTotal     *prometheus.CounterVec
	InputBytes     prometheus.Counter
	OutputBytes    prometheus.Counter
	Compressed     prometheus.Counter
	MetadataBlocks *prometheus.CounterVec
	SizeRatio      prometheus.Histogram
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		FilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgopt_files_total",
				Help: "Files processed, by outcome",
			},
			[]string{"outcome"},
		),
		InputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgopt_input_bytes_total",
			Help: "Bytes read from successfully optimized sources",
		}),
		OutputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgopt_output_bytes_total",
			Help: "Bytes written to optimized outputs",
		}),
		Compressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "imgopt_png_compressed_total",
			Help: "PNG outputs the external compressor was applied to",
		}),
		MetadataBlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "imgopt_metadata_blocks_removed_total",
				Help: "Metadata blocks removed from optimized sources, by kind",
			},
			[]string{"kind"},
		),
		SizeRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "imgopt_output_size_ratio",
			Help:    "Output size divided by source size",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 0.9, 1, 1.25, 2},
		}),
	}

	c.registry.MustRegister(c.FilesTotal, c.InputBytes, c.OutputBytes, c.Compressed, c.MetadataBlocks, c.SizeRatio)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Observe implements processor.Observer.
func (c *Collector) Observe(res processor.Result) {
	c.FilesTotal.WithLabelValues(res.Outcome.String()).Inc()
	if res.Outcome != processor.OutcomeSuccess {
		return
	}

	c.InputBytes.Add(float64(res.OriginalSize))
	c.OutputBytes.Add(float64(res.NewSize))
	if res.Compressed {
		c.Compressed.Inc()
	}
	for _, b := range res.Removed {
		c.MetadataBlocks.WithLabelValues(string(b.Kind)).Inc()
	}
	if res.OriginalSize > 0 {
		c.SizeRatio.Observe(float64(res.NewSize) / float64(res.OriginalSize))
	}
}

// WriteTextfile writes the current values to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
