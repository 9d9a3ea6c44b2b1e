package transfer

import (
	"fmt"
	"io"
)

// lengthReader passes through exactly length bytes of r. A source that ends
// early, or still has data once length bytes are out, fails with
// ErrInvalidMetadata. The overflow probe runs inside the Read that hands out
// the final bytes, so the backend sees the error before the upload can complete.
type lengthReader struct {
	r         io.Reader
	length    int64
	remaining int64
	done      bool
	err       error
}

func newLengthReader(r io.Reader, length int64) *lengthReader {
	return &lengthReader{r: r, length: length, remaining: length}
}

func (l *lengthReader) Read(p []byte) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	if l.done {
		return 0, io.EOF
	}
	if l.remaining == 0 {
		return 0, l.finish()
	}
	if len(p) == 0 {
		return 0, nil
	}

	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)

	if l.remaining == 0 {
		if ferr := l.finish(); ferr != io.EOF {
			return n, ferr
		}
		return n, nil
	}
	if err == io.EOF {
		l.err = fmt.Errorf("%w: content ended after %d of %d bytes", ErrInvalidMetadata, l.length-l.remaining, l.length)
		return n, l.err
	}
	if err != nil {
		l.err = err
	}
	return n, err
}

// finish checks that the source is exhausted.
func (l *lengthReader) finish() error {
	var probe [1]byte
	for {
		n, err := l.r.Read(probe[:])
		if n > 0 {
			l.err = fmt.Errorf("%w: content longer than declared length %d", ErrInvalidMetadata, l.length)
			return l.err
		}
		if err == io.EOF {
			l.done = true
			return io.EOF
		}
		if err != nil {
			l.err = err
			return err
		}
	}
}
