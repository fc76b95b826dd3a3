package providerscmder

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lmstream/pkg/provider"
)

const providersShortDesc string = "List supported providers"

const providersLongDesc string = `List supported providers with their wire family and endpoints.

The "delta" family streams OpenAI style choices[].delta payloads, the
"event" family streams typed content block events.`

type providersCommander struct{}

func NewProvidersCmd() *cobra.Command {
	cmder := &providersCommander{}

	return &cobra.Command{
		Use:   "providers",
		Short: providersShortDesc,
		Long:  providersLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd)
		},
	}
}

func (c *providersCommander) run(cmd *cobra.Command) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tFAMILY\tCOMPLETIONS\tEMBEDDINGS")
	for _, k := range provider.All() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k, k.Family(), k.CompletionsURL(nil), k.EmbeddingsURL(nil))
	}
	return w.Flush()
}
