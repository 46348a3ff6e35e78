package media

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// Optimized image params for fast frontend loading
const (
	ImageWidth = 800
	imageEager = "q_auto,f_auto,w_800,c_limit"
)

var eagerAsyncFalse = false

type Cloudinary struct {
	cloudName string
	uploader  *uploader.API
}

// NewCloudinary builds an uploader from Cloudinary cloud name, API key, and secret.
func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &Cloudinary{cloudName: cloudName, uploader: up}, nil
}

// BuildOptimizedImageURL returns a Cloudinary URL with transformations for optimized delivery.
func BuildOptimizedImageURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = ImageWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,c_limit/%s",
		cloudName, width, publicID)
}

// UploadImage uploads an image with eager optimizations (auto quality, format, resize).
func (c *Cloudinary) UploadImage(ctx context.Context, file io.Reader, folder, name string) (string, error) {
	result, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   name,
		Eager:      imageEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return "", err
	}
	if len(result.Eager) > 0 && result.Eager[0].SecureURL != "" {
		return result.Eager[0].SecureURL, nil
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	return BuildOptimizedImageURL(c.cloudName, result.PublicID, ImageWidth), nil
}
