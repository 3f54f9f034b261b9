package realtime

// DefaultLanguage is the language code a session starts with.
const DefaultLanguage = "pt"

// LanguageState holds the language code passed to the engine.
type LanguageState struct {
	code string
}

// NewLanguageState starts with code, or DefaultLanguage when empty.
func NewLanguageState(code string) *LanguageState {
	if code == "" {
		code = DefaultLanguage
	}
	return &LanguageState{code: code}
}

// Set replaces the active code. No validation is done; the engine decides
// whether it understands the code.
func (l *LanguageState) Set(code string) {
	l.code = code
}

// Get returns the active code.
func (l *LanguageState) Get() string {
	return l.code
}
