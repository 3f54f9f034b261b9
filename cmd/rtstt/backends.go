package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voicetyped/rtstt/internal/speech/backends/fasterwhisper"
	"github.com/voicetyped/rtstt/internal/speech/backends/openai"
	"github.com/voicetyped/rtstt/internal/speech/backends/whispercpp"
	"github.com/voicetyped/rtstt/internal/speech/engine"
	"github.com/voicetyped/rtstt/internal/speech/registry"
)

var backendModels = map[string]func() []engine.ModelInfo{
	fasterwhisper.Name: fasterwhisper.Models,
	whispercpp.Name:    whispercpp.Models,
	openai.Name:        openai.Models,
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List registered ASR backends and their models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, name := range registry.ASR.List() {
			fmt.Fprintln(out, name)
			models, ok := backendModels[name]
			if !ok {
				continue
			}
			for _, m := range models() {
				marker := ""
				if m.IsDefault {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  %-14s %s%s\n", m.ID, m.DisplayName, marker)
			}
		}
		return nil
	},
}
