package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/outlinehq/outline/core/client"
	"github.com/outlinehq/outline/core/strategy"
	"github.com/outlinehq/outline/providers/ai"
)

var (
	prompt       string
	system       string
	schemaPath   string
	familiesPath string
	maxTokens    int
	stream       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Send a generation request",
	Long: `Send a generation request to an LLM provider.

Examples:
  outline generate --model gpt-4o --prompt "Name the capital of France"
  outline generate --model claude-sonnet-4-5 --prompt "..." --stream
  outline generate --model gpt-4o --prompt "..." --schema book.json`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&prompt, "prompt", "", "User message (required)")
	generateCmd.Flags().StringVar(&system, "system", "", "System message")
	generateCmd.Flags().StringVar(&schemaPath, "schema", "", "Path to a JSON schema file constraining the output")
	generateCmd.Flags().StringVar(&familiesPath, "families", "", "Path to a YAML model-family configuration")
	generateCmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Max tokens (0 = provider default)")
	generateCmd.Flags().BoolVar(&stream, "stream", false, "Stream output as it arrives")

	_ = generateCmd.MarkFlagRequired("prompt")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions()
	if err != nil {
		return err
	}

	c := client.New(opts...)
	ctx := cmd.Context()

	var result *client.Result
	if system != "" {
		result, err = c.GenerateMessages(ctx, []ai.Message{
			{Role: ai.RoleSystem, Content: system},
			{Role: ai.RoleUser, Content: prompt},
		})
	} else {
		result, err = c.Generate(ctx, prompt)
	}
	if err != nil {
		return err
	}

	if stream {
		for delta, streamErr := range result.Stream(ctx) {
			if streamErr != nil {
				fmt.Fprintln(os.Stderr)
				return streamErr
			}
			fmt.Print(delta)
		}
		fmt.Println()
		return nil
	}

	text, err := result.Text(ctx)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func buildOptions() ([]client.Option, error) {
	if model == "" {
		return nil, fmt.Errorf("--model is required")
	}
	opts := []client.Option{client.WithModel(model)}
	if providerName != "" {
		opts = append(opts, client.WithProviderName(providerName))
	}
	if verbose {
		opts = append(opts, client.WithDebug())
	}
	if maxTokens > 0 {
		opts = append(opts, client.WithMaxTokens(maxTokens))
	}

	if schemaPath != "" {
		raw, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, fmt.Errorf("reading schema: %w", err)
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("schema file %s is not valid JSON", schemaPath)
		}
		opts = append(opts, client.WithSchema(strategy.DescriptorFromJSON(raw)))
	}

	if familiesPath != "" {
		file, err := os.Open(familiesPath)
		if err != nil {
			return nil, fmt.Errorf("reading families: %w", err)
		}
		defer file.Close()
		families, err := strategy.LoadFamilies(file)
		if err != nil {
			return nil, fmt.Errorf("parsing families: %w", err)
		}
		opts = append(opts, client.WithFamilies(families))
	}

	return opts, nil
}
