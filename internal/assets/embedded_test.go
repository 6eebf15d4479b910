package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestEmbeddedLoader_LoadStyle(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name    string
		style   string
		wantErr error
	}{
		{name: "default style", style: DefaultStyleName},
		{name: "missing style", style: "nonexistent", wantErr: ErrStyleNotFound},
		{name: "invalid name", style: "../default", wantErr: ErrInvalidAssetName},
		{name: "empty name", style: "", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			css, err := loader.LoadStyle(tt.style)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.style, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.style, err)
			}
			if !strings.Contains(css, "body") {
				t.Errorf("LoadStyle(%q) does not look like CSS", tt.style)
			}
		})
	}
}

func TestEmbeddedLoader_LoadPage(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name     string
		page     string
		wantText string
		wantErr  error
	}{
		{name: "index page", page: PageIndex, wantText: "# Save a web page as PDF"},
		{name: "login page", page: PageLogin, wantText: "# Sign the browser in"},
		{name: "missing page", page: "about", wantErr: ErrPageNotFound},
		{name: "extension in name", page: "index.md", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := loader.LoadPage(tt.page)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadPage(%q) error = %v, want %v", tt.page, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadPage(%q) unexpected error: %v", tt.page, err)
			}
			if !strings.Contains(src, tt.wantText) {
				t.Errorf("LoadPage(%q) missing %q", tt.page, tt.wantText)
			}
		})
	}
}
