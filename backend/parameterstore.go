package backend

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/gunnargrosch/failure-lambda/chaos"
)

// ParameterFetcher reads a named SSM parameter and expects its value to be
// a JSON document. No example repo in the retrieval pack has call-site
// usage of aws-sdk-go-v2 (it appears only in go.mod), so the
// LoadDefaultConfig → ssm.NewFromConfig → GetParameter sequence here
// follows the SDK's own documented usage rather than a transcribed
// reference (see DESIGN.md).
type ParameterFetcher struct {
	Name   string
	client *ssm.Client
}

// NewParameterFetcher builds a ParameterFetcher using the default AWS
// config resolution chain (environment, shared config, IAM role). Returns
// an error if credentials/region cannot be resolved at construction time.
func NewParameterFetcher(ctx context.Context, name string) (*ParameterFetcher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", chaos.ErrBackendUnreachable, err)
	}
	return &ParameterFetcher{Name: name, client: ssm.NewFromConfig(cfg)}, nil
}

// Fetch implements chaos.Fetcher.
func (f *ParameterFetcher) Fetch(ctx context.Context) ([]byte, error) {
	out, err := f.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(f.Name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chaos.ErrBackendUnreachable, err)
	}

	if out.Parameter == nil || out.Parameter.Value == nil {
		return nil, chaos.ErrMissingValue
	}

	return []byte(*out.Parameter.Value), nil
}
