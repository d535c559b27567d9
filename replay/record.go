// Package replay drives scans offline with recorded tracking sessions.
//
// A recorded session is the sequence of messages a tracking client sent to
// the server, one JSON envelope per line.
package replay

import (
	"io"

	"github.com/aukilabs/boxscan/messages"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeInvalidRecord = "invalid_record"
)

// Reader reads the messages of a recorded session.
type Reader struct {
	decoder *json.Decoder
	count   int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{decoder: json.NewDecoder(r)}
}

// Next returns the next recorded message. It returns io.EOF when the
// session is over.
func (r *Reader) Next() (messages.Msg, error) {
	var msg messages.Msg
	if err := r.decoder.Decode(&msg); err != nil {
		if err == io.EOF {
			return messages.Msg{}, io.EOF
		}
		return messages.Msg{}, errors.New("decoding record failed").
			WithType(ErrTypeInvalidRecord).
			WithTag("record", r.count+1).
			Wrap(err)
	}
	r.count++

	if msg.Type == "" {
		return messages.Msg{}, errors.New("record without message type").
			WithType(ErrTypeInvalidRecord).
			WithTag("record", r.count)
	}
	return msg, nil
}

// ReadAll reads every message of a recorded session.
func ReadAll(r io.Reader) ([]messages.Msg, error) {
	reader := NewReader(r)

	var msgs []messages.Msg
	for {
		msg, err := reader.Next()
		if err == io.EOF {
			return msgs, nil
		}
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
}

// Writer records messages.
type Writer struct {
	encoder *json.Encoder
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{encoder: json.NewEncoder(w)}
}

// Write records a message on its own line.
func (w *Writer) Write(msg messages.Msg) error {
	if err := w.encoder.Encode(msg); err != nil {
		return errors.New("encoding record failed").
			WithType(ErrTypeInvalidRecord).
			WithTag("msg_type", msg.Type).
			Wrap(err)
	}
	return nil
}

// WriteAll records the given messages.
func (w *Writer) WriteAll(msgs []messages.Msg) error {
	for _, msg := range msgs {
		if err := w.Write(msg); err != nil {
			return err
		}
	}
	return nil
}
