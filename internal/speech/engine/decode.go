package engine

import "strconv"

// DecodeOptions holds the decoder parameters passed to a backend.
type DecodeOptions struct {
	BeamSize        int  // Beam search width
	VADFilter       bool // Suppress silent spans before decoding
	SilenceMinDurMs int  // Minimum silence to split speech when VADFilter is set
}

// RealtimeDecodeOptions returns the fixed parameters used for short
// realtime chunks.
func RealtimeDecodeOptions() DecodeOptions {
	return DecodeOptions{
		BeamSize:        5,
		VADFilter:       true,
		SilenceMinDurMs: 300,
	}
}

// FileDecodeOptions returns the parameters used for one-shot transcription
// of whole recordings, which tolerate longer pauses.
func FileDecodeOptions() DecodeOptions {
	return DecodeOptions{
		BeamSize:        5,
		VADFilter:       true,
		SilenceMinDurMs: 500,
	}
}

// Args renders the options as whisper.cpp command-line flags. The VAD
// flags are only emitted when vadModel is set, since whisper.cpp cannot
// run VAD without one.
func (o DecodeOptions) Args(vadModel string) []string {
	args := []string{"-bs", strconv.Itoa(o.BeamSize)}
	if o.VADFilter && vadModel != "" {
		args = append(args,
			"--vad",
			"--vad-model", vadModel,
			"--vad-min-silence-duration-ms", strconv.Itoa(o.SilenceMinDurMs),
		)
	}
	return args
}
