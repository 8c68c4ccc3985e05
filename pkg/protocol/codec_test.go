package protocol

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestEncoder(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "encode create message",
			msgType: MessageTypeCreate,
			data:    nil,
			wantErr: false,
		},
		{
			name:    "encode update message",
			msgType: MessageTypeUpdate,
			data: &UpdateMessage{
				Philosopher: Philosopher{ID: 1, State: StateHungry, StateTimer: 0},
			},
			wantErr: false,
		},
		{
			name:    "encode created message",
			msgType: MessageTypeCreated,
			data: &CreatedMessage{
				Philosopher: Philosopher{ID: 2, State: StateThinking, LeftChopstick: 2, RightChopstick: 1},
			},
			wantErr: false,
		},
		{
			name:    "encode updated message",
			msgType: MessageTypeUpdated,
			data: &UpdatedMessage{
				Philosopher: Philosopher{ID: 1, State: StateEating, LeftChopstick: 1, RightChopstick: 2},
			},
			wantErr: false,
		},
		{
			name:    "encode error message",
			msgType: MessageTypeError,
			data: &ErrorMessage{
				Code:    "CAPACITY_EXHAUSTED",
				Message: "table is full",
			},
			wantErr: false,
		},
		{
			name:    "invalid message type",
			msgType: MessageType("INVALID"),
			data:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewEncoder(&buf)

			err := enc.Encode(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("Encode() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				// Verify output is a single line of valid JSON
				line := strings.TrimSpace(buf.String())
				var msg Message
				if err := json.Unmarshal([]byte(line), &msg); err != nil {
					t.Errorf("Output is not valid JSON: %v", err)
				}
				if msg.Type != tt.msgType {
					t.Errorf("Message type = %v, want %v", msg.Type, tt.msgType)
				}
			}
		})
	}
}

func TestDecoder(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		msgType MessageType
	}{
		{
			name:    "decode create message",
			input:   `{"type":"CREATE","timestamp":"2024-01-01T00:00:00Z"}`,
			wantErr: false,
			msgType: MessageTypeCreate,
		},
		{
			name:    "decode update message",
			input:   `{"type":"UPDATE","timestamp":"2024-01-01T00:00:00Z","data":{"philosopher":{"id":1,"state":"hungry","state_timer":0}}}`,
			wantErr: false,
			msgType: MessageTypeUpdate,
		},
		{
			name:    "decode created message",
			input:   `{"type":"CREATED","timestamp":"2024-01-01T00:00:00Z","data":{"philosopher":{"id":2,"state":"thinking","state_timer":5,"left_chopstick":2,"right_chopstick":1}}}`,
			wantErr: false,
			msgType: MessageTypeCreated,
		},
		{
			name:    "invalid json",
			input:   `{invalid json`,
			wantErr: true,
		},
		{
			name:    "empty line",
			input:   ``,
			wantErr: true,
		},
		{
			name:    "unknown type",
			input:   `{"type":"DELETE","timestamp":"2024-01-01T00:00:00Z"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tt.input + "\n"))
			msg, err := dec.Decode()

			if (err != nil) != tt.wantErr {
				t.Errorf("Decode() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if msg.Type != tt.msgType {
					t.Errorf("Message type = %v, want %v", msg.Type, tt.msgType)
				}
			}
		})
	}
}

func TestDecodeEOF(t *testing.T) {
	dec := NewDecoder(strings.NewReader(""))
	if _, err := dec.Decode(); err != io.EOF {
		t.Errorf("Decode() on exhausted stream error = %v, want io.EOF", err)
	}
}

func TestDecodeUpdate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		id      int
		state   string
	}{
		{
			name:    "valid hungry update",
			input:   `{"type":"UPDATE","timestamp":"2024-01-01T00:00:00Z","data":{"philosopher":{"id":1,"state":"hungry","state_timer":0}}}`,
			wantErr: false,
			id:      1,
			state:   StateHungry,
		},
		{
			name:    "valid thinking update",
			input:   `{"type":"UPDATE","timestamp":"2024-01-01T00:00:00Z","data":{"philosopher":{"id":3,"state":"thinking","state_timer":8}}}`,
			wantErr: false,
			id:      3,
			state:   StateThinking,
		},
		{
			name:    "wrong message type",
			input:   `{"type":"CREATE","timestamp":"2024-01-01T00:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "missing philosopher id",
			input:   `{"type":"UPDATE","timestamp":"2024-01-01T00:00:00Z","data":{"philosopher":{"state":"hungry"}}}`,
			wantErr: true,
		},
		{
			name:    "invalid state",
			input:   `{"type":"UPDATE","timestamp":"2024-01-01T00:00:00Z","data":{"philosopher":{"id":1,"state":"sleeping"}}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tt.input + "\n"))
			update, err := dec.DecodeUpdate()

			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeUpdate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				if update.Philosopher.ID != tt.id {
					t.Errorf("Philosopher.ID = %d, want %d", update.Philosopher.ID, tt.id)
				}
				if update.Philosopher.State != tt.state {
					t.Errorf("Philosopher.State = %q, want %q", update.Philosopher.State, tt.state)
				}
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	grant := &UpdatedMessage{
		Philosopher: Philosopher{ID: 2, State: StateEating, LeftChopstick: 2, RightChopstick: 1},
	}
	if err := enc.EncodeUpdated(grant); err != nil {
		t.Fatalf("EncodeUpdated() error = %v", err)
	}

	dec := NewDecoder(&buf)
	msg, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if msg.Type != MessageTypeUpdated {
		t.Fatalf("Message type = %v, want UPDATED", msg.Type)
	}

	var got UpdatedMessage
	if err := ParsePayload(msg.Data, &got); err != nil {
		t.Fatalf("ParsePayload() error = %v", err)
	}
	if got.Philosopher != grant.Philosopher {
		t.Errorf("round-tripped philosopher = %+v, want %+v", got.Philosopher, grant.Philosopher)
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		target  interface{}
		wantErr bool
	}{
		{
			name:    "parse update payload",
			payload: `{"philosopher":{"id":1,"state":"hungry"}}`,
			target:  &UpdateMessage{},
			wantErr: false,
		},
		{
			name:    "parse error payload",
			payload: `{"code":"NOT_FOUND","message":"no philosopher with id 9"}`,
			target:  &ErrorMessage{},
			wantErr: false,
		},
		{
			name:    "invalid json",
			payload: `{invalid}`,
			target:  &UpdateMessage{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParsePayload(json.RawMessage(tt.payload), tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParsePayload() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
