package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// MergeSSM overlays every parameter stored under prefix onto config. The last
// path segment becomes the key, so /consulting-site/prod/JWT_SECRET sets
// JWT_SECRET. Values already present in the environment win.
func MergeSSM(ctx context.Context, config map[string]string, client ssm.GetParametersByPathAPIClient, prefix string) (int, error) {
	if prefix == "" {
		return 0, nil
	}

	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	merged := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return merged, fmt.Errorf("reading SSM parameters under %s: %w", prefix, err)
		}
		for _, param := range page.Parameters {
			name := aws.ToString(param.Name)
			key := name[strings.LastIndex(name, "/")+1:]
			if key == "" {
				continue
			}
			if existing, ok := config[key]; ok && existing != "" {
				continue
			}
			config[key] = aws.ToString(param.Value)
			merged++
		}
	}

	return merged, nil
}
