package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Action names accepted on the wire.
const (
	ActionTranscribe     = "transcribe"
	ActionChangeLanguage = "change_language"
	ActionExit           = "exit"
)

// Command is one parsed input line. The set of implementations is closed:
// Transcribe, ChangeLanguage and Exit.
type Command interface {
	Action() string
	command()
}

// Transcribe asks for one transcription cycle over an audio file.
type Transcribe struct {
	AudioPath string
}

// ChangeLanguage replaces the active language code.
type ChangeLanguage struct {
	Language string
}

// Exit ends the session.
type Exit struct{}

func (Transcribe) Action() string     { return ActionTranscribe }
func (ChangeLanguage) Action() string { return ActionChangeLanguage }
func (Exit) Action() string           { return ActionExit }

func (Transcribe) command()     {}
func (ChangeLanguage) command() {}
func (Exit) command()           {}

// ErrorKind classifies protocol errors.
type ErrorKind int

const (
	ErrMalformed ErrorKind = iota + 1
	ErrMissingField
	ErrUnknownAction
)

// Error is a recoverable problem with a single input line.
type Error struct {
	Kind   ErrorKind
	Action string
	Field  string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrMissingField:
		return fmt.Sprintf("action %q requires field %q", e.Action, e.Field)
	case ErrUnknownAction:
		if e.Action == "" {
			return "missing field \"action\""
		}
		return fmt.Sprintf("unknown action %q", e.Action)
	default:
		return fmt.Sprintf("invalid command: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsProtocolError reports whether err is, or wraps, a protocol *Error.
func IsProtocolError(err error) bool {
	var perr *Error
	return errors.As(err, &perr)
}

type rawCommand struct {
	Action    string  `json:"action"`
	AudioPath *string `json:"audio_path"`
	Language  *string `json:"language"`
}

// ParseCommand decodes one JSON line into a Command. Required fields that
// are absent or empty are reported as ErrMissingField.
func ParseCommand(line []byte) (Command, error) {
	var raw rawCommand
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, &Error{Kind: ErrMalformed, Err: err}
	}

	switch raw.Action {
	case ActionTranscribe:
		if raw.AudioPath == nil || *raw.AudioPath == "" {
			return nil, &Error{Kind: ErrMissingField, Action: raw.Action, Field: "audio_path"}
		}
		return Transcribe{AudioPath: *raw.AudioPath}, nil
	case ActionChangeLanguage:
		if raw.Language == nil || *raw.Language == "" {
			return nil, &Error{Kind: ErrMissingField, Action: raw.Action, Field: "language"}
		}
		return ChangeLanguage{Language: *raw.Language}, nil
	case ActionExit:
		return Exit{}, nil
	default:
		return nil, &Error{Kind: ErrUnknownAction, Action: raw.Action}
	}
}
