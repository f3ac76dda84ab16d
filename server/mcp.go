package server

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/lookbook/pkg/completion"
	"github.com/papercomputeco/lookbook/pkg/llm"
	"github.com/papercomputeco/lookbook/pkg/metadata"
	"github.com/papercomputeco/lookbook/pkg/prompt"
)

// GenerateInput is the input of the generate tool.
type GenerateInput struct {
	SystemPrompt string            `json:"system_prompt" jsonschema:"system prompt for the model"`
	UserPrompt   string            `json:"user_prompt" jsonschema:"user prompt template"`
	Variables    []prompt.Variable `json:"variables,omitempty" jsonschema:"ordered placeholder substitutions applied to the user prompt"`
	ImageURL     string            `json:"image_url,omitempty" jsonschema:"public URL of an image to attach"`
	Options      *llm.Options      `json:"options,omitempty" jsonschema:"per-call overrides of model, temperature, top_p, max_tokens and response_format"`
}

// GenerateOutput is the output of the generate tool.
type GenerateOutput struct {
	Text  string `json:"text" jsonschema:"generated text of the first choice"`
	Model string `json:"model" jsonschema:"model that produced the text"`
}

// ListImagesInput is the (empty) input of the list_images tool.
type ListImagesInput struct{}

// ListImagesOutput is the output of the list_images tool.
type ListImagesOutput struct {
	Images []*metadata.Entry `json:"images" jsonschema:"recorded images with their public links"`
}

// newMCPServer registers the lookbook tools.
func (s *Server) newMCPServer() *mcp.Server {
	version := s.config.Version
	if version == "" {
		version = "dev"
	}

	server := mcp.NewServer(&mcp.Implementation{Name: "lookbook", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate",
		Description: "Compose a system and user prompt, optionally with an image URL, and return the model's reply",
	}, s.toolGenerate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_images",
		Description: "List uploaded images recorded in the metadata store",
	}, s.toolListImages)

	return server
}

func (s *Server) mcpHandler() http.Handler {
	server := s.newMCPServer()
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

func (s *Server) toolGenerate(ctx context.Context, _ *mcp.CallToolRequest, in GenerateInput) (*mcp.CallToolResult, GenerateOutput, error) {
	resp, err := s.generator.Generate(ctx, completion.Request{
		SystemPrompt: in.SystemPrompt,
		UserPrompt:   in.UserPrompt,
		Variables:    in.Variables,
		ImageURL:     in.ImageURL,
		Options:      in.Options,
	})
	if err != nil {
		return nil, GenerateOutput{}, err
	}

	return nil, GenerateOutput{Text: resp.Text(), Model: resp.Model}, nil
}

func (s *Server) toolListImages(ctx context.Context, _ *mcp.CallToolRequest, _ ListImagesInput) (*mcp.CallToolResult, ListImagesOutput, error) {
	entries, err := s.storer.List(ctx)
	if err != nil {
		return nil, ListImagesOutput{}, err
	}
	return nil, ListImagesOutput{Images: entries}, nil
}
