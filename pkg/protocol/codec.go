package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Encoder writes protocol messages to an io.Writer, one JSON frame per
// line, flushed per message so a peer blocked on a response sees it
// immediately.
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder creates a new protocol encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w: bufio.NewWriter(w),
	}
}

// Encode writes a message to the output stream.
func (e *Encoder) Encode(msgType MessageType, data interface{}) error {
	if err := msgType.Validate(); err != nil {
		return fmt.Errorf("invalid message type: %w", err)
	}

	var dataBytes []byte
	var err error
	if data != nil {
		dataBytes, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
	}

	msg := Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Data:      dataBytes,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if _, err := e.w.Write(msgBytes); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := e.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	return nil
}

// EncodeCreate sends a CREATE request. It carries no payload; the engine
// assigns the id.
func (e *Encoder) EncodeCreate() error {
	return e.Encode(MessageTypeCreate, nil)
}

// EncodeUpdate sends an UPDATE request.
func (e *Encoder) EncodeUpdate(update *UpdateMessage) error {
	if err := update.Validate(); err != nil {
		return fmt.Errorf("invalid update: %w", err)
	}
	return e.Encode(MessageTypeUpdate, update)
}

// EncodeCreated sends a CREATED response.
func (e *Encoder) EncodeCreated(created *CreatedMessage) error {
	return e.Encode(MessageTypeCreated, created)
}

// EncodeUpdated sends an UPDATED response.
func (e *Encoder) EncodeUpdated(updated *UpdatedMessage) error {
	return e.Encode(MessageTypeUpdated, updated)
}

// EncodeError sends an ERROR response.
func (e *Encoder) EncodeError(errMsg *ErrorMessage) error {
	if err := errMsg.Validate(); err != nil {
		return fmt.Errorf("invalid error message: %w", err)
	}
	return e.Encode(MessageTypeError, errMsg)
}

// Decoder reads protocol messages from an io.Reader.
type Decoder struct {
	r *bufio.Scanner
}

// NewDecoder creates a new protocol decoder.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	// Frames are small; the cap bounds a misbehaving peer.
	const maxCapacity = 1 * 1024 * 1024 // 1 MiB
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)
	return &Decoder{
		r: scanner,
	}
}

// Decode reads the next message from the input stream.
func (d *Decoder) Decode() (*Message, error) {
	if !d.r.Scan() {
		if err := d.r.Err(); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		return nil, io.EOF
	}

	line := d.r.Bytes()
	if len(line) == 0 {
		return nil, fmt.Errorf("empty line")
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	if err := msg.Type.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	return &msg, nil
}

// DecodeUpdate decodes an UPDATE message.
func (d *Decoder) DecodeUpdate() (*UpdateMessage, error) {
	msg, err := d.Decode()
	if err != nil {
		return nil, err
	}

	if msg.Type != MessageTypeUpdate {
		return nil, fmt.Errorf("expected UPDATE message, got %s", msg.Type)
	}

	var update UpdateMessage
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		return nil, fmt.Errorf("failed to unmarshal update: %w", err)
	}

	if err := update.Validate(); err != nil {
		return nil, fmt.Errorf("invalid update: %w", err)
	}

	return &update, nil
}

// ParsePayload parses a message payload into a specific type.
func ParsePayload(data json.RawMessage, target interface{}) error {
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}
	return nil
}
