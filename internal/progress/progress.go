// Package progress provides a counting reader for transfer progress
// reporting. Rendering is the caller's concern; the reader only tracks
// bytes and invokes a callback as data flows through it.
package progress

import "io"

// Func receives the running byte count and the expected total (0 when
// unknown) as data is transferred.
type Func func(current, total int64)

// Reader wraps an io.Reader and reports true streaming progress: the
// callback fires as bytes are actually read, not when the transfer is
// queued.
type Reader struct {
	r       io.Reader
	total   int64
	current int64
	fn      Func
}

// NewReader wraps r. total may be 0 when the length is unknown; fn may be
// nil to count without reporting.
func NewReader(r io.Reader, total int64, fn Func) *Reader {
	return &Reader{r: r, total: total, fn: fn}
}

func (p *Reader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.current += int64(n)
		if p.fn != nil {
			p.fn(p.current, p.total)
		}
	}

	return n, err
}

// Current returns the number of bytes read so far.
func (p *Reader) Current() int64 {
	return p.current
}
