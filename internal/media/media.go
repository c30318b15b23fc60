package media

import (
	"context"
	"errors"
	"strings"
)

// Resolver turns the image field of an incoming request into the value
// that gets persisted.
type Resolver interface {
	Resolve(ctx context.Context, image string) (string, error)
}

// InlineResolver is used when no upload store is configured: data URIs are
// stored inline and anything else is kept exactly as the client sent it.
type InlineResolver struct {
	// MaxInlineBytes caps the length of an inline data URI. Zero means no cap.
	MaxInlineBytes int
}

var ErrImageTooLarge = errors.New("inline image too large")

func (r InlineResolver) Resolve(_ context.Context, image string) (string, error) {
	if strings.HasPrefix(image, "data:image/") && r.MaxInlineBytes > 0 && len(image) > r.MaxInlineBytes {
		return "", ErrImageTooLarge
	}
	return image, nil
}
