package media_test

import (
	"context"
	"duochat/backend/internal/media"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInlineResolver(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{"empty", "", "", nil},
		{"data uri kept", "data:image/png;base64,iVBORw0KGgo=", "data:image/png;base64,iVBORw0KGgo=", nil},
		{"https url kept", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png", nil},
		{"relative path kept", "/tmp/a.png", "/tmp/a.png", nil},
		{"other scheme kept", "ftp://files.example.com/a.png", "ftp://files.example.com/a.png", nil},
		{"surrounding spaces kept", "  b.jpg ", "  b.jpg ", nil},
	}

	r := media.InlineResolver{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInlineResolver_MaxInlineBytes(t *testing.T) {
	r := media.InlineResolver{MaxInlineBytes: 32}
	big := "data:image/png;base64," + strings.Repeat("A", 64)

	_, err := r.Resolve(context.Background(), big)
	assert.ErrorIs(t, err, media.ErrImageTooLarge)
}

func TestInlineResolver_CapOnlyAppliesToDataURIs(t *testing.T) {
	r := media.InlineResolver{MaxInlineBytes: 8}
	long := "https://cdn.example.com/" + strings.Repeat("a", 64) + ".png"

	got, err := r.Resolve(context.Background(), long)
	assert.NoError(t, err)
	assert.Equal(t, long, got)
}
