package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type S3 struct {
	client *s3.Client
	bucket string
	region string
}

func NewS3(ctx context.Context, region, bucket, accessKey, secretKey string) (*S3, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket not configured")
	}
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("S3 access key or secret key missing")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3{client: s3.NewFromConfig(cfg), bucket: bucket, region: region}, nil
}

// UploadImage stores the object under folder/name and returns its public URL.
func (u *S3) UploadImage(ctx context.Context, file io.Reader, folder, name string) (string, error) {
	key := path.Join(folder, name)
	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("S3 upload failed: %w", err)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}
