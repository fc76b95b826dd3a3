package main

import (
	"os"

	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/lmstream/cmd/lmstream/chat"
	embedcmder "github.com/papercomputeco/lmstream/cmd/lmstream/embed"
	providerscmder "github.com/papercomputeco/lmstream/cmd/lmstream/providers"
	servecmder "github.com/papercomputeco/lmstream/cmd/lmstream/serve"
)

const rootLongDesc string = `lmstream streams chat completions from LLM providers and normalizes
their wire formats into a single sequence of text and tool call chunks.`

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "lmstream",
		Short:         "Normalized streaming for LLM chat completions",
		Long:          rootLongDesc,
		SilenceUsage:  true,
	}

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(embedcmder.NewEmbedCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(providerscmder.NewProvidersCmd())

	return cmd
}

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
