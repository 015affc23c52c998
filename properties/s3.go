package properties

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Loader reads a property bag from Amazon S3 or a compatible service.
// Without credentials the object must be publicly readable.
type S3Loader struct {
	client      *s3.S3
	bucket      string
	key         string
	log         *slog.Logger
	locationURI string
}

// NewS3Loader creates a loader for one object in a bucket.
func NewS3Loader(bucket, key, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Loader, error) {
	cfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		// Custom endpoints are typically S3-compatible stores that need
		// path-style addressing.
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(&cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create AWS session: %w", err)
	}

	return &S3Loader{
		client:      s3.New(sess),
		bucket:      bucket,
		key:         key,
		log:         log,
		locationURI: fmt.Sprintf("s3://%s/%s?region=%s", bucket, key, region),
	}, nil
}

// Load fetches and parses the object.
func (l *S3Loader) Load(ctx context.Context) (Properties, error) {
	resp, err := l.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(l.key),
	})
	if err != nil {
		return nil, fmt.Errorf("could not fetch s3://%s/%s: %w", l.bucket, l.key, err)
	}
	defer resp.Body.Close()

	props, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not parse s3://%s/%s: %w", l.bucket, l.key, err)
	}

	l.log.Debug("Loaded properties from S3",
		slog.String("bucket", l.bucket),
		slog.String("key", l.key),
		slog.Int("keys", len(props)))

	return props, nil
}

func (l *S3Loader) LocationURI() string {
	return l.locationURI
}
