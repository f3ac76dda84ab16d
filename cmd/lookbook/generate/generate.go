package generatecmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lookbook/cmd/lookbook/setup"
	"github.com/papercomputeco/lookbook/pkg/completion"
	"github.com/papercomputeco/lookbook/pkg/llm"
	"github.com/papercomputeco/lookbook/pkg/prompt"
	"github.com/papercomputeco/lookbook/pkg/render"
)

const generateLongDesc string = `Compose a prompt and send it to the chat completion endpoint.

The user prompt is a template. In literal mode (the default) every
occurrence of each --var key is replaced with its value, in the
order given. With --template the prompt is a Go text/template and
variables are referenced as {{.key}}; unknown keys are an error.

An optional --image URL is attached to the user message as a
high-detail image part.

The reply is rendered as markdown on a terminal. Use --raw to print
the provider's full JSON response instead.

Examples:
  lookbook generate --system "You are a fashion recommender" \
    --prompt "Suggest an outfit for: items_list" --var items_list="red dress"
  lookbook generate --system-file system.txt --prompt-file user.tmpl --template \
    --var items_list="denim jacket" --image https://i.imgur.com/eAfpeBY.jpeg`

const generateShortDesc string = "Generate a completion from a composed prompt"

type generateCommander struct {
	opts *setup.Options

	system      string
	systemFile  string
	prompt      string
	promptFile  string
	vars        []string
	image       string
	template    bool
	raw         bool
	model       string
	temperature float64
	maxTokens   int
	jsonOutput  bool
}

func NewGenerateCmd(opts *setup.Options) *cobra.Command {
	cmder := &generateCommander{opts: opts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cmder.system, "system", "s", "", "System prompt")
	flags.StringVar(&cmder.systemFile, "system-file", "", "Read the system prompt from a file")
	flags.StringVarP(&cmder.prompt, "prompt", "p", "", "User prompt template")
	flags.StringVar(&cmder.promptFile, "prompt-file", "", "Read the user prompt template from a file")
	flags.StringArrayVar(&cmder.vars, "var", nil, "Template variable as key=value (repeatable, applied in order)")
	flags.StringVarP(&cmder.image, "image", "i", "", "Image URL to attach to the user message")
	flags.BoolVar(&cmder.template, "template", false, "Treat the prompt as a Go text/template")
	flags.BoolVar(&cmder.raw, "raw", false, "Print the raw JSON response")
	flags.StringVarP(&cmder.model, "model", "m", "", "Override the configured model")
	flags.Float64Var(&cmder.temperature, "temperature", completion.DefaultTemperature, "Sampling temperature")
	flags.IntVar(&cmder.maxTokens, "max-tokens", 0, "Maximum tokens to generate")
	flags.BoolVar(&cmder.jsonOutput, "json-object", false, "Ask the model for a JSON object reply")

	cmd.MarkFlagsMutuallyExclusive("system", "system-file")
	cmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")

	return cmd
}

func (c *generateCommander) run(ctx context.Context, cmd *cobra.Command) error {
	system, err := textOrFile(c.system, c.systemFile)
	if err != nil {
		return fmt.Errorf("could not read system prompt: %w", err)
	}
	user, err := textOrFile(c.prompt, c.promptFile)
	if err != nil {
		return fmt.Errorf("could not read user prompt: %w", err)
	}
	if system == "" || user == "" {
		return errors.New("both a system prompt and a user prompt are required")
	}

	vars, err := prompt.ParseVariables(c.vars)
	if err != nil {
		return err
	}

	env, err := c.opts.Load()
	if err != nil {
		return err
	}
	defer env.Close()

	if c.template {
		env.Config.OpenAI.PromptMode = string(prompt.ModeTemplate)
	}
	if c.model != "" {
		env.Config.OpenAI.Model = c.model
	}
	if err := env.Config.ValidateCompletion(); err != nil {
		return err
	}

	client, err := env.Completion()
	if err != nil {
		return err
	}

	resp, err := client.Generate(ctx, completion.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		Variables:    vars,
		Options:      c.options(cmd),
		ImageURL:     c.image,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if c.raw {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	return render.New(cmd.OutOrStdout()).Markdown(resp.Text())
}

// options returns the overrides for flags the user actually set.
func (c *generateCommander) options(cmd *cobra.Command) *llm.Options {
	var opts llm.Options
	set := false

	if cmd.Flags().Changed("temperature") {
		t := c.temperature
		opts.Temperature = &t
		set = true
	}
	if c.maxTokens > 0 {
		n := c.maxTokens
		opts.MaxTokens = &n
		set = true
	}
	if c.jsonOutput {
		opts.ResponseFormat = &llm.ResponseFormat{Type: "json_object"}
		set = true
	}

	if !set {
		return nil
	}
	return &opts
}

func textOrFile(text, path string) (string, error) {
	if path == "" {
		return text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
