package snapstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/vecdex/vecdex"
	"golang.org/x/time/rate"
)

// Publisher uploads index snapshots to an archive on a height interval.
// The execution layer calls MaybePublish after committing each block;
// everything else (serialization, naming, throttling) happens here.
type Publisher struct {
	archive  Archive
	index    *vecdex.Index
	interval uint64
	limiter  *rate.Limiter
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithInterval publishes only heights divisible by n. n <= 1 publishes
// every height (the default).
func WithInterval(n uint64) PublisherOption {
	return func(p *Publisher) {
		if n > 1 {
			p.interval = n
		}
	}
}

// WithUploadRateLimit caps upload bandwidth at the given bytes per
// second. Uploads block between chunks until the budget admits them, so
// publishing never starves block processing of network capacity.
func WithUploadRateLimit(bytesPerSecond float64, burst int) PublisherOption {
	return func(p *Publisher) {
		if bytesPerSecond > 0 {
			if burst < 64*1024 {
				burst = 64 * 1024
			}
			p.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), burst)
		}
	}
}

// NewPublisher creates a publisher for the given index and archive.
func NewPublisher(archive Archive, index *vecdex.Index, optFns ...PublisherOption) *Publisher {
	p := &Publisher{
		archive:  archive,
		index:    index,
		interval: 1,
	}
	for _, fn := range optFns {
		fn(p)
	}
	return p
}

// MaybePublish publishes a snapshot if height falls on the configured
// interval. It reports whether a snapshot was written.
func (p *Publisher) MaybePublish(ctx context.Context, height uint64) (bool, error) {
	if height%p.interval != 0 {
		return false, nil
	}
	if err := p.Publish(ctx, height); err != nil {
		return false, err
	}
	return true, nil
}

// Publish serializes the index and stores it under the given height.
//
// The snapshot is buffered before upload: WriteSnapshot holds the index
// read lock, and stalling that lock on a slow archive would block every
// query for the duration of the upload.
func (p *Publisher) Publish(ctx context.Context, height uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := p.index.WriteSnapshot(&buf); err != nil {
		return fmt.Errorf("snapstore: publish height %d: %w", height, err)
	}

	var body io.Reader = &buf
	if p.limiter != nil {
		body = &throttledReader{ctx: ctx, r: body, limiter: p.limiter}
	}
	if err := p.archive.Put(ctx, height, body); err != nil {
		return fmt.Errorf("snapstore: publish height %d: %w", height, err)
	}
	return nil
}

// throttledReader spends limiter tokens for every byte read through it.
type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if burst := t.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}
	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.limiter.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
