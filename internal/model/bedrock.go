package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// converseAPI is the subset of the Bedrock runtime client used here.
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockProvider implements Provider with the Bedrock Converse API.
type BedrockProvider struct {
	client converseAPI
}

// BedrockSettings selects the region and optional static credentials.
type BedrockSettings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// NewBedrockProvider loads AWS configuration and builds a runtime client.
// Without static keys the default credential chain is used.
func NewBedrockProvider(ctx context.Context, settings BedrockSettings) (*BedrockProvider, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if settings.Region != "" {
		opts = append(opts, awsconfig.WithRegion(settings.Region))
	}
	if settings.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, settings.SessionToken),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockProvider{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

// Invoke sends the prompt as a single user message.
func (p *BedrockProvider) Invoke(ctx context.Context, req Request) (string, error) {
	inference, err := bedrockInferenceConfig(req.Parameters)
	if err != nil {
		return "", err
	}
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(req.Model),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: req.Prompt}},
		}},
		InferenceConfig: inference,
	}
	out, err := p.client.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("bedrock converse: %w", err)
	}
	message, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock converse: unexpected output %T", out.Output)
	}
	var text strings.Builder
	for _, block := range message.Value.Content {
		if textBlock, ok := block.(*types.ContentBlockMemberText); ok {
			text.WriteString(textBlock.Value)
		}
	}
	return text.String(), nil
}

func bedrockInferenceConfig(params map[string]any) (*types.InferenceConfiguration, error) {
	maxTokens, err := intParam(params, "max_tokens", "maxTokens", "max_new_tokens")
	if err != nil {
		return nil, err
	}
	temperature, err := floatParam(params, "temperature")
	if err != nil {
		return nil, err
	}
	topP, err := floatParam(params, "top_p", "topP")
	if err != nil {
		return nil, err
	}
	stop, err := stringsParam(params, "stop_sequences", "stopSequences", "stop")
	if err != nil {
		return nil, err
	}
	if maxTokens == nil && temperature == nil && topP == nil && len(stop) == 0 {
		return nil, nil
	}
	return &types.InferenceConfiguration{
		MaxTokens:     maxTokens,
		Temperature:   temperature,
		TopP:          topP,
		StopSequences: stop,
	}, nil
}
