package modules

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// Stream reads the module table one line per advance, yielding a
// decoded Record or a per-line *DecodeError for each. A decode failure
// does not terminate the stream; the next advance continues with the
// following line. An I/O failure does, and stays sticky. The traversal
// is a single forward pass: a fresh Stream must be opened to observe
// new kernel state.
type Stream struct {
	reader *bufio.Reader
	closer io.Closer
	err    error
}

// NewStream constructs a stream over an already-open line source. The
// caller retains ownership of the reader.
func NewStream(r io.Reader) *Stream {
	return &Stream{reader: bufio.NewReader(r)}
}

// Open constructs a stream over the live module table. Opening is the
// only construction-time failure surface: os.ErrNotExist and
// os.ErrPermission from the pseudo-file propagate verbatim.
func Open() (*Stream, error) {
	return OpenPath(DefaultPath)
}

// OpenPath constructs a stream over a module table at an arbitrary
// path, for tests or alternate proc mounts.
func OpenPath(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stream := NewStream(f)
	stream.closer = f
	return stream, nil
}

// Next reads exactly one line and returns its outcome:
//
//   - (record, nil) for a well-formed line
//   - (zero, *DecodeError) for a malformed line; the stream continues
//   - (zero, io.EOF) once the table is exhausted
//   - (zero, err) for a read failure, after which the stream is dead
//     and every further call returns the same error
func (s *Stream) Next() (Record, error) {
	if s.err != nil {
		return Record{}, s.err
	}

	line, err := s.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		s.err = fmt.Errorf("reading module table: %w", err)
		return Record{}, s.err
	}
	if line == "" {
		s.err = io.EOF
		return Record{}, io.EOF
	}
	return Decode(strings.TrimSuffix(line, "\n"))
}

// Records is a range-over-func view of the remaining traversal. It
// yields every record and per-line decode error in table order, ends
// silently at exhaustion, and ends after yielding a read failure once.
func (s *Stream) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			record, err := s.Next()
			if err == io.EOF {
				return
			}
			if !yield(record, err) {
				return
			}
			if err != nil {
				if _, ok := AsDecodeError(err); !ok {
					return
				}
			}
		}
	}
}

// Collect drains the stream into a slice, failing on the first decode
// or read error.
func (s *Stream) Collect() ([]Record, error) {
	var records []Record
	for record, err := range s.Records() {
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Close releases the underlying file handle when the stream owns one.
// Streams built with NewStream have nothing to release.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
