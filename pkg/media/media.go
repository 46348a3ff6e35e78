// Package media uploads admin-supplied images (payment-method QR codes, deposit proofs).
package media

import (
	"context"
	"errors"
	"io"
)

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("media upload is not configured")

// Uploader stores an image and returns its public URL.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, name string) (string, error)
}

// Disabled rejects uploads when no provider is configured.
type Disabled struct{}

func (Disabled) UploadImage(context.Context, io.Reader, string, string) (string, error) {
	return "", ErrNotConfigured
}
