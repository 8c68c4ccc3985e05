package protocol

import "testing"

func TestMessageTypeValidate(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		wantErr bool
	}{
		{name: "create", msgType: MessageTypeCreate},
		{name: "update", msgType: MessageTypeUpdate},
		{name: "created", msgType: MessageTypeCreated},
		{name: "updated", msgType: MessageTypeUpdated},
		{name: "error", msgType: MessageTypeError},
		{name: "unknown", msgType: MessageType("DELETE"), wantErr: true},
		{name: "empty", msgType: MessageType(""), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msgType.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPhilosopherValidate(t *testing.T) {
	tests := []struct {
		name    string
		phil    Philosopher
		wantErr bool
	}{
		{
			name: "thinking",
			phil: Philosopher{ID: 1, State: StateThinking, StateTimer: 5},
		},
		{
			name: "hungry",
			phil: Philosopher{ID: 3, State: StateHungry},
		},
		{
			name: "eating",
			phil: Philosopher{ID: 2, State: StateEating, LeftChopstick: 2, RightChopstick: 1},
		},
		{
			name:    "zero id",
			phil:    Philosopher{ID: 0, State: StateThinking},
			wantErr: true,
		},
		{
			name:    "negative id",
			phil:    Philosopher{ID: -4, State: StateHungry},
			wantErr: true,
		},
		{
			name:    "unknown state",
			phil:    Philosopher{ID: 1, State: "sleeping"},
			wantErr: true,
		},
		{
			name:    "empty state",
			phil:    Philosopher{ID: 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.phil.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateMessageValidate(t *testing.T) {
	valid := &UpdateMessage{Philosopher: Philosopher{ID: 1, State: StateHungry}}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	invalid := &UpdateMessage{Philosopher: Philosopher{State: StateHungry}}
	if err := invalid.Validate(); err == nil {
		t.Error("Validate() = nil for update without id, want error")
	}
}

func TestErrorMessageValidate(t *testing.T) {
	valid := &ErrorMessage{Code: "CAPACITY_EXHAUSTED", Message: "table is full"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	invalid := &ErrorMessage{Message: "no code"}
	if err := invalid.Validate(); err == nil {
		t.Error("Validate() = nil for error without code, want error")
	}
}
