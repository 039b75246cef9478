// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package s3fs

import (
	"context"
	"crypto/tls"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/logging"
)

type NewClientInput struct {
	Profile string
	Region  string
	// AWS Client
	Endpoint           string
	InsecureSkipVerify bool
	RetryMaxAttempts   int
	UsePathStyle       bool
	// AWS Credentials
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Client Log Mode
	LogClientRetries   bool
	LogClientRequests  bool
	LogClientResponses bool
	Logger             logging.Logger
}

// ClientLogMode returns the log mode for the flags set on the input.
func (input *NewClientInput) ClientLogMode() aws.ClientLogMode {
	clientLogMode := aws.ClientLogMode(0)
	if input.LogClientRetries {
		clientLogMode |= aws.LogRetries
	}
	if input.LogClientRequests {
		clientLogMode |= aws.LogRequest
	}
	if input.LogClientResponses {
		clientLogMode |= aws.LogResponse
	}
	return clientLogMode
}

// NewClient returns an S3 client.  Static credentials take precedence over the
// shared configuration profile.
func NewClient(ctx context.Context, input *NewClientInput) (*s3.Client, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithClientLogMode(input.ClientLogMode()),
	}
	if len(input.Profile) > 0 {
		optFns = append(optFns, config.WithSharedConfigProfile(input.Profile))
	}
	if len(input.Region) > 0 {
		optFns = append(optFns, config.WithRegion(input.Region))
	}
	if input.RetryMaxAttempts > 0 {
		optFns = append(optFns, config.WithRetryMaxAttempts(input.RetryMaxAttempts))
	}
	if input.Logger != nil {
		optFns = append(optFns, config.WithLogger(input.Logger))
	}
	if len(input.AccessKeyID) > 0 && len(input.SecretAccessKey) > 0 {
		optFns = append(optFns, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			input.AccessKeyID,
			input.SecretAccessKey,
			input.SessionToken)))
	}
	if input.InsecureSkipVerify {
		optFns = append(optFns, config.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true,
				},
			},
		}))
	}

	c, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(c, func(o *s3.Options) {
		o.UsePathStyle = input.UsePathStyle
		if len(input.Endpoint) > 0 {
			o.BaseEndpoint = aws.String(input.Endpoint)
		}
	})

	return client, nil
}
