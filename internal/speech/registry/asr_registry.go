package registry

import "github.com/voicetyped/rtstt/internal/speech/engine"

// ASR is the global ASR engine registry.
var ASR = New[engine.ASREngine]()
