package torrent

import (
	"time"

	"github.com/rcrowley/go-metrics"
)

// Stats of a finished download.
type Stats struct {
	// ID of the download job. Also used in log messages.
	ID       string
	Name     string
	InfoHash string

	// Peers that completed the handshake and sent a bitfield.
	Peers int
	// Pieces requested in the download.
	Pieces int
	// Pieces that passed the hash check and written to the output file.
	PiecesDownloaded int64
	// Number of times a downloaded piece did not match its hash.
	HashFailures int64

	// Bytes received in piece messages, including pieces that failed the hash check.
	BytesDownloaded int64
	// Bytes written to the output file.
	BytesWritten int64

	Duration time.Duration
	// Average download speed in bytes per second.
	DownloadSpeed int64
}

type downloadMetrics struct {
	registry metrics.Registry

	PeersUsable         metrics.Gauge
	PiecesDownloaded    metrics.Counter
	HashFailures        metrics.Counter
	DownloadSpeed       metrics.Meter
	WritesPerSecond     metrics.Meter
	WriteBytesPerSecond metrics.Meter
}

func newDownloadMetrics() *downloadMetrics {
	r := metrics.NewRegistry()
	return &downloadMetrics{
		registry: r,

		PeersUsable:         metrics.NewRegisteredGauge("peers_usable", r),
		PiecesDownloaded:    metrics.NewRegisteredCounter("pieces_downloaded", r),
		HashFailures:        metrics.NewRegisteredCounter("hash_failures", r),
		DownloadSpeed:       metrics.NewRegisteredMeter("download_bytes_per_second", r),
		WritesPerSecond:     metrics.NewRegisteredMeter("writes_per_second", r),
		WriteBytesPerSecond: metrics.NewRegisteredMeter("write_bytes_per_second", r),
	}
}

func (m *downloadMetrics) Close() {
	m.DownloadSpeed.Stop()
	m.WritesPerSecond.Stop()
	m.WriteBytesPerSecond.Stop()
}

func (d *download) stats() *Stats {
	s := &Stats{
		ID:               d.id,
		Name:             d.meta.Name,
		InfoHash:         d.meta.InfoHashHex(),
		Peers:            int(d.metrics.PeersUsable.Value()),
		Pieces:           len(d.indexes),
		PiecesDownloaded: d.metrics.PiecesDownloaded.Count(),
		HashFailures:     d.metrics.HashFailures.Count(),
		BytesDownloaded:  d.metrics.DownloadSpeed.Count(),
		BytesWritten:     d.metrics.WriteBytesPerSecond.Count(),
		Duration:         time.Since(d.startedAt),
	}
	if secs := s.Duration.Seconds(); secs > 0 {
		s.DownloadSpeed = int64(float64(s.BytesDownloaded) / secs)
	}
	return s
}
