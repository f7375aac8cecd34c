package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config selects the S3 endpoint and credentials. Bucket and prefix belong to S3Sink.
type Config struct {
	Region string
	// Endpoint points at an S3-compatible store (MinIO, LocalStack); path-style addressing is used then.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// PutObjectAPI is the slice of *s3.Client the archive needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client loads the default AWS chain. Static keys, when both are set, replace it.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConf, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive: load aws config: %w", err)
	}

	return s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3Sink stores run reports under Prefix in Bucket.
type S3Sink struct {
	Client PutObjectAPI
	Bucket string
	Prefix string
}

func NewS3Sink(client PutObjectAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{Client: client, Bucket: bucket, Prefix: prefix}
}

func (s *S3Sink) Name() string { return "s3" }

// Key joins Prefix and name with exactly one slash.
func (s *S3Sink) Key(name string) string {
	p := strings.Trim(s.Prefix, "/")
	if p == "" {
		return name
	}
	return p + "/" + name
}

func (s *S3Sink) Put(ctx context.Context, name string, data []byte) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(s.Key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	}
	if strings.HasSuffix(name, ".br") {
		in.ContentEncoding = aws.String("br")
	}
	if _, err := s.Client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("archive: put s3://%s/%s: %w", s.Bucket, aws.ToString(in.Key), err)
	}
	return nil
}
