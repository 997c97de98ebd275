package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Uploader accepts a binary plus a folder hint and returns a public URL.
// The core only ever stores the URL; nothing depends on the backend.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
}

type cloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an Uploader from a cloudinary:// URL.
func NewCloudinaryUploader(cloudinaryURL string) (Uploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &cloudinaryUploader{cld: cld}, nil
}

func (u *cloudinaryUploader) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload: empty secure url (%s)", resp.Error.Message)
	}
	return resp.SecureURL, nil
}
