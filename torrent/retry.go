package torrent

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/drizzle-bt/drizzle/internal/piece"
	"github.com/drizzle-bt/drizzle/internal/piecedownloader"
	"github.com/drizzle-bt/drizzle/internal/pieceverifier"
)

// newBackOff returns the retry policy for a piece download.
// Only hash mismatches are retried, MaxAttempts times in total.
func (d *download) newBackOff(ctx context.Context) backoff.BackOff {
	cfg := d.client.config.Download
	b := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.RetryInitialInterval,
		RandomizationFactor: 0.5,
		Multiplier:          2,
		MaxInterval:         cfg.RetryMaxInterval,
		MaxElapsedTime:      0, // limited by attempts
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return limitAttempts(ctx, b, cfg.MaxAttempts)
}

// limitAttempts stops b after the operation has run attempts times in total.
// WithMaxRetries treats zero as unlimited, so a single attempt needs StopBackOff.
func limitAttempts(ctx context.Context, b backoff.BackOff, attempts int) backoff.BackOff {
	if attempts <= 1 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// downloadPiece requests all blocks of the piece from the peer and returns the verified piece data.
func (d *download) downloadPiece(ctx context.Context, pe *Peer, p *piece.Piece) ([]byte, error) {
	var data []byte
	op := func() error {
		pd := piecedownloader.New(p, pe, d.client.config.Download.RequestQueueLength)
		slots, err := pd.Run(ctx)
		if err != nil {
			return backoff.Permanent(d.peerError(ctx, pe.Addr, err))
		}
		for _, s := range slots {
			d.metrics.DownloadSpeed.Mark(int64(len(s)))
		}
		v := pieceverifier.New(p, slots)
		if v.Run() != nil {
			d.metrics.HashFailures.Inc(1)
			return &HashMismatchError{Index: p.Index, Addr: pe.Addr}
		}
		data = v.Data
		return nil
	}
	notify := func(err error, next time.Duration) {
		pe.Logger().Warningf("%s, retrying in %s", err, next)
	}
	err := backoff.RetryNotify(op, d.newBackOff(ctx), notify)
	if err != nil {
		return nil, err
	}
	return data, nil
}
