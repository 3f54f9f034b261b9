package engine

import (
	"slices"
	"testing"
)

func TestRealtimeDecodeOptions(t *testing.T) {
	opts := RealtimeDecodeOptions()
	if opts.BeamSize != 5 {
		t.Errorf("BeamSize = %d, want 5", opts.BeamSize)
	}
	if !opts.VADFilter {
		t.Error("VADFilter = false, want true")
	}
	if opts.SilenceMinDurMs != 300 {
		t.Errorf("SilenceMinDurMs = %d, want 300", opts.SilenceMinDurMs)
	}
}

func TestDecodeOptionsArgs(t *testing.T) {
	tests := []struct {
		name     string
		opts     DecodeOptions
		vadModel string
		want     []string
	}{
		{
			name:     "vad with model",
			opts:     RealtimeDecodeOptions(),
			vadModel: "vad.bin",
			want:     []string{"-bs", "5", "--vad", "--vad-model", "vad.bin", "--vad-min-silence-duration-ms", "300"},
		},
		{
			name: "vad without model",
			opts: RealtimeDecodeOptions(),
			want: []string{"-bs", "5"},
		},
		{
			name:     "vad disabled",
			opts:     DecodeOptions{BeamSize: 1},
			vadModel: "vad.bin",
			want:     []string{"-bs", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.Args(tt.vadModel)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Args = %v, want %v", got, tt.want)
			}
		})
	}
}
