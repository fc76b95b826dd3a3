package embedcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lmstream/cmd/lmstream/profileflag"
	"github.com/papercomputeco/lmstream/pkg/logger"
)

const embedLongDesc string = `Embed texts and print the vectors.

Each argument is embedded separately. The provider's response is printed
as JSON, or as one summary line per input with --summary.

Examples:
  lmstream embed --profile voyage "first text" "second text"
  lmstream embed --provider openai --model text-embedding-3-small --summary hello`

const embedShortDesc string = "Embed texts with a provider"

type embedCommander struct {
	profile profileflag.Flags

	summary bool
	debug   bool
}

func NewEmbedCmd() *cobra.Command {
	cmder := &embedCommander{}

	cmd := &cobra.Command{
		Use:   "embed <text>...",
		Short: embedShortDesc,
		Long:  embedLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmder.profile.Register(cmd)
	cmd.Flags().BoolVar(&cmder.summary, "summary", false, "Print dimensions instead of vectors")
	cmd.Flags().BoolVarP(&cmder.debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func (c *embedCommander) run(ctx context.Context, cmd *cobra.Command, inputs []string) error {
	profile, err := c.profile.Resolve()
	if err != nil {
		return err
	}

	log := logger.NewLogger(c.debug)
	defer log.Sync()

	req, err := profile.Embeddings(log)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}
	req.AddInput(inputs...)

	out, err := req.Send(ctx)
	if err != nil {
		return fmt.Errorf("could not embed: %w", err)
	}
	if len(out.Data) != len(inputs) {
		return errors.New("provider returned a different number of embeddings than inputs")
	}

	if c.summary {
		for i, e := range out.Data {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d dimensions\t%s\n", e.Index, len(e.Embedding), inputs[i])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "model %s, %d tokens\n", out.Model, out.Usage.TotalTokens)
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
