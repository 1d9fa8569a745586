package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterStore is the subset of the SSM client used to read settings.
type ParameterStore interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// NewParameterStore builds an SSM client from the default AWS credential chain.
func NewParameterStore(ctx context.Context, region string) (ParameterStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// OverlayParameters copies every parameter below prefix into config, keyed by
// the last path element. /blogicum/prod/SECRET_KEY becomes SECRET_KEY.
// Values already present in the environment win.
func OverlayParameters(ctx context.Context, store ParameterStore, prefix string, config map[string]string) (int, error) {
	var (
		next   *string
		loaded int
	)
	for {
		out, err := store.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
			Path:           aws.String(prefix),
			Recursive:      aws.Bool(true),
			WithDecryption: aws.Bool(true),
			NextToken:      next,
		})
		if err != nil {
			return loaded, fmt.Errorf("read parameters under %s: %w", prefix, err)
		}

		for _, p := range out.Parameters {
			key := strings.ToUpper(path.Base(aws.ToString(p.Name)))
			if key == "" || key == "/" {
				continue
			}
			if existing, ok := config[key]; ok && existing != "" {
				continue
			}
			config[key] = aws.ToString(p.Value)
			loaded++
		}

		if out.NextToken == nil || *out.NextToken == "" {
			return loaded, nil
		}
		next = out.NextToken
	}
}
