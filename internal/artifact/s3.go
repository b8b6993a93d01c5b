package artifact

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store writes artifacts to an S3 bucket. Each put replaces the whole
// object, which is what makes redelivered jobs harmless.
type S3Store struct {
	Client *s3.Client
	Bucket string
	Region string
}

// NewS3Store wraps an S3 client for one bucket
func NewS3Store(client *s3.Client, bucket, region string) *S3Store {
	return &S3Store{Client: client, Bucket: bucket, Region: region}
}

// Put uploads the artifact and returns its public URL
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string, publicRead bool) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if publicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := s.Client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to put %s: %w", key, err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, key), nil
}
