package publish

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/conveyor-sim/conveyor-sim/sim/trace"
)

// StreamSink writes one encoded record per sample to a buffered stream.
type StreamSink struct {
	bw     *bufio.Writer
	closer io.Closer
	encode func(record) error
}

// NewJSONLSink writes newline-delimited JSON records to w.
func NewJSONLSink(w io.Writer) *StreamSink {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	return &StreamSink{bw: bw, closer: asCloser(w), encode: func(r record) error { return enc.Encode(r) }}
}

// NewMsgpackSink writes a stream of MessagePack records to w. Field names
// follow the json tags.
func NewMsgpackSink(w io.Writer) *StreamSink {
	bw := bufio.NewWriter(w)
	enc := msgpack.NewEncoder(bw)
	enc.SetCustomStructTag("json")
	return &StreamSink{bw: bw, closer: asCloser(w), encode: func(r record) error { return enc.Encode(r) }}
}

// CreateFileSink creates path and picks the encoding by format: "jsonl" or "msgpack".
func CreateFileSink(path, format string) (*StreamSink, error) {
	var open func(io.Writer) *StreamSink
	switch format {
	case "jsonl", "json":
		open = NewJSONLSink
	case "msgpack":
		open = NewMsgpackSink
	default:
		return nil, fmt.Errorf("unknown file format %q (want jsonl or msgpack)", format)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating sample file: %w", err)
	}
	return open(f), nil
}

// Publish implements Sink.
func (s *StreamSink) Publish(_ context.Context, sample trace.Sample) error {
	if err := s.encode(toRecord(sample)); err != nil {
		return fmt.Errorf("encoding sample at %.2fs: %w", sample.Time, err)
	}
	return nil
}

// Close flushes buffered records and closes the underlying writer when it is closable.
func (s *StreamSink) Close() error {
	err := s.bw.Flush()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

func asCloser(w io.Writer) io.Closer {
	if c, ok := w.(io.Closer); ok {
		return c
	}
	return nil
}
