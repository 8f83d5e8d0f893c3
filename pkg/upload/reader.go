package upload

import (
	"io"

	"github.com/nxadm/tail"

	"github.com/corner4world/gstd-1.x/pkg/logger"
)

// Reader follows a growing log file and hands it out line by line or in
// chunks of at least chunkSize bytes.
type Reader struct {
	tail      *tail.Tail
	filename  string
	chunkSize int
	buffer    []byte
}

// NewReader starts reading filename from the beginning. With follow set the
// reader keeps waiting for new lines (and survives log rotation) until
// Drain is called; otherwise it stops at the current end of file.
func NewReader(filename string, chunkSize int, follow bool) (*Reader, error) {
	t, err := tail.TailFile(filename, tail.Config{
		MustExist: !follow,
		Follow:    follow,
		ReOpen:    follow,
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, err
	}
	return &Reader{
		tail:      t,
		filename:  filename,
		chunkSize: chunkSize,
		buffer:    make([]byte, 0, chunkSize),
	}, nil
}

// Lines exposes the raw line channel. It is closed once the reader stops.
func (r *Reader) Lines() <-chan *tail.Line {
	return r.tail.Lines
}

// Next blocks until a full chunk is available. The final, possibly short,
// chunk is returned together with io.EOF.
func (r *Reader) Next() ([]byte, error) {
	for line := range r.tail.Lines {
		if line.Err != nil {
			logger.Errorw("line error", line.Err, "file", r.filename)
			return nil, line.Err
		}

		r.buffer = append(r.buffer, line.Text...)
		r.buffer = append(r.buffer, '\n')
		if len(r.buffer) >= r.chunkSize {
			b := r.buffer
			r.buffer = make([]byte, 0, r.chunkSize)
			return b, nil
		}
	}

	b := r.buffer
	r.buffer = nil
	return b, io.EOF
}

// Drain lets the reader run to the current end of file and stop.
func (r *Reader) Drain() {
	logger.Debugw("draining reader", "file", r.filename)
	go func() {
		if err := r.tail.StopAtEOF(); err != nil {
			logger.Debugw("tail stopped", "error", err)
		}
	}()
}

func (r *Reader) Close() {
	if r.tail != nil {
		_ = r.tail.Stop()
		r.tail.Cleanup()
	}
}
