package media

import (
	"context"
	"fmt"

	appconfig "coinvest/config"
)

// New returns the uploader selected by cfg.Provider. An empty provider yields Disabled.
func New(ctx context.Context, cfg *appconfig.MediaConfig) (Uploader, error) {
	switch cfg.Provider {
	case "":
		return Disabled{}, nil
	case "cloudinary":
		return NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	case "s3":
		return NewS3(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKey, cfg.S3.SecretKey)
	default:
		return nil, fmt.Errorf("unknown media provider %q", cfg.Provider)
	}
}
