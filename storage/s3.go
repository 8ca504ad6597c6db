package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"dealtracker/config"
)

// Publisher pushes the rendered digest page to S3-compatible storage
// (AWS S3, DO Spaces, R2) so a static host can serve it.
type Publisher struct {
	client *s3.Client
	cfg    config.PublishConfig
}

func NewPublisher(ctx context.Context, cfg config.PublishConfig) (*Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &Publisher{client: client, cfg: cfg}, nil
}

// PublishPage uploads the digest page under the configured key.
func (p *Publisher) PublishPage(ctx context.Context, body io.Reader) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(p.cfg.Key),
		Body:        body,
		ContentType: aws.String("text/html; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// PublicURL returns where the published page is reachable.
func (p *Publisher) PublicURL() string {
	if p.cfg.Endpoint != "" {
		host := strings.TrimPrefix(p.cfg.Endpoint, "https://")
		return fmt.Sprintf("https://%s.%s/%s", p.cfg.Bucket, host, p.cfg.Key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, p.cfg.Key)
}
