package chatcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/lmstream/cmd/lmstream/profileflag"
	"github.com/papercomputeco/lmstream/pkg/completions"
	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/logger"
)

const chatLongDesc string = `Send a prompt and stream the reply.

The prompt is taken from the arguments, or from stdin when none are given.
Text is printed as it arrives; tool calls and stream errors are reported
on their own lines.

Examples:
  lmstream chat "Explain SSE in one paragraph"
  lmstream chat --profile claude --system "Be terse" "What is a Merkle DAG?"
  lmstream chat --provider lmstudio --model qwen3 --image diagram.png "Describe this"
  echo "Write a haiku" | lmstream chat --render`

const chatShortDesc string = "Stream a chat completion"

var (
	toolStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

type chatCommander struct {
	profile profileflag.Flags

	system    string
	images    []string
	detail    string
	maxTokens int
	tools     []string
	render    bool
	debug     bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [prompt...]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmder.profile.Register(cmd)
	cmd.Flags().StringVar(&cmder.system, "system", "", "System prompt")
	cmd.Flags().StringSliceVar(&cmder.images, "image", nil, "Image file to attach (repeatable)")
	cmd.Flags().StringVar(&cmder.detail, "detail", "", "Image detail: low, high or auto")
	cmd.Flags().IntVar(&cmder.maxTokens, "max-tokens", 0, "Context token budget, overriding the profile's")
	cmd.Flags().StringSliceVar(&cmder.tools, "tool", nil, "Offer a tool taking free-form JSON arguments, as name or name:description (repeatable)")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render the finished reply as markdown")
	cmd.Flags().BoolVarP(&cmder.debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	prompt, err := c.prompt(cmd, args)
	if err != nil {
		return err
	}

	profile, err := c.profile.Resolve()
	if err != nil {
		return err
	}

	log := logger.NewLogger(c.debug)
	defer log.Sync()

	opts := []completions.Option{}
	if c.maxTokens > 0 {
		opts = append(opts, completions.WithMaxTokens(c.maxTokens))
	}
	tools, err := parseTools(c.tools)
	if err != nil {
		return err
	}
	if len(tools) > 0 {
		opts = append(opts, completions.WithTools(tools...))
	}

	req, err := profile.Request(log, opts...)
	if err != nil {
		return fmt.Errorf("could not build request: %w", err)
	}

	if c.system != "" {
		req.AddSystemMessage(llm.Text(c.system))
	}

	content := []llm.Content{llm.Text(prompt)}
	for _, path := range c.images {
		img, err := llm.ImageFile(path, llm.Detail(c.detail))
		if err != nil {
			return err
		}
		content = append(content, img)
	}
	req.AddUserMessage(content...)

	stream, err := req.Send(ctx)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer stream.Close()

	return c.print(ctx, cmd, stream)
}

// prompt joins the arguments, falling back to stdin.
func (c *chatCommander) prompt(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("could not read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(b))
	if prompt == "" {
		return "", errors.New("empty prompt")
	}
	return prompt, nil
}

// print writes the stream to the command output. With --render, text is held
// back and rendered once the stream ends.
func (c *chatCommander) print(ctx context.Context, cmd *cobra.Command, stream *completions.Stream) error {
	out := cmd.OutOrStdout()
	tty := isTerminal(out)

	style := func(s lipgloss.Style, text string) string {
		if !tty {
			return text
		}
		return s.Render(text)
	}

	var text strings.Builder
	for {
		chunk, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var te *llm.TransportError
			if errors.As(err, &te) || ctx.Err() != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), style(errorStyle, "error: "+err.Error()))
			continue
		}

		switch chunk.Kind {
		case llm.ChunkText:
			if c.render {
				text.WriteString(chunk.Text)
				continue
			}
			fmt.Fprint(out, chunk.Text)
		case llm.ChunkToolCall:
			fmt.Fprintf(out, "\n%s %s\n", style(toolStyle, "tool call "+chunk.Name), style(dimStyle, chunk.Arguments))
		}
	}

	if c.render {
		fmt.Fprint(out, renderMarkdown(text.String(), tty))
		return nil
	}
	fmt.Fprintln(out)
	return nil
}

// parseTools builds tools from "name" or "name:description" flags.
func parseTools(defs []string) ([]llm.Tool, error) {
	tools := make([]llm.Tool, 0, len(defs))
	for _, def := range defs {
		name, desc, _ := strings.Cut(def, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid tool %q", def)
		}
		params := llm.Object("")
		params.AdditionalProperties = nil
		tools = append(tools, llm.NewTool(name, strings.TrimSpace(desc), params))
	}
	return tools, nil
}

// renderMarkdown renders markdown for a terminal, or returns it unchanged
// when output is piped or rendering fails.
func renderMarkdown(md string, tty bool) string {
	if !tty {
		return md + "\n"
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md + "\n"
	}

	rendered, err := r.Render(md)
	if err != nil {
		return md + "\n"
	}
	return rendered
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
