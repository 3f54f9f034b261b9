package protocol

import (
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			name: "transcribe",
			line: `{"action":"transcribe","audio_path":"/tmp/chunk_001.wav"}`,
			want: Transcribe{AudioPath: "/tmp/chunk_001.wav"},
		},
		{
			name: "change language",
			line: `{"action":"change_language","language":"en"}`,
			want: ChangeLanguage{Language: "en"},
		},
		{
			name: "exit",
			line: `{"action":"exit"}`,
			want: Exit{},
		},
		{
			name: "extra fields ignored",
			line: `{"action":"exit","audio_path":"x","reason":"done"}`,
			want: Exit{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand([]byte(tt.line))
			if err != nil {
				t.Fatalf("ParseCommand: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand = %#v, want %#v", got, tt.want)
			}
			if got.Action() != tt.want.Action() {
				t.Errorf("Action = %q, want %q", got.Action(), tt.want.Action())
			}
		})
	}
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		kind    ErrorKind
		message string
	}{
		{name: "not json", line: `hello`, kind: ErrMalformed},
		{name: "empty line", line: ``, kind: ErrMalformed},
		{name: "array", line: `["transcribe"]`, kind: ErrMalformed},
		{name: "action not a string", line: `{"action":3}`, kind: ErrMalformed},
		{name: "missing action", line: `{"audio_path":"a.wav"}`, kind: ErrUnknownAction, message: `missing field "action"`},
		{name: "unknown action", line: `{"action":"pause"}`, kind: ErrUnknownAction, message: `unknown action "pause"`},
		{name: "missing audio path", line: `{"action":"transcribe"}`, kind: ErrMissingField, message: `action "transcribe" requires field "audio_path"`},
		{name: "empty audio path", line: `{"action":"transcribe","audio_path":""}`, kind: ErrMissingField},
		{name: "null language", line: `{"action":"change_language","language":null}`, kind: ErrMissingField, message: `action "change_language" requires field "language"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand([]byte(tt.line))
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("ParseCommand error = %v, want *Error", err)
			}
			if perr.Kind != tt.kind {
				t.Errorf("Kind = %d, want %d", perr.Kind, tt.kind)
			}
			if tt.message != "" && perr.Error() != tt.message {
				t.Errorf("Error() = %q, want %q", perr.Error(), tt.message)
			}
			if !IsProtocolError(err) {
				t.Error("IsProtocolError = false, want true")
			}
		})
	}
}
