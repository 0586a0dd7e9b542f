package branding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	_ "image/jpeg"
)

const (
	objectLogo        = "logo.png"
	objectHeaderStyle = "header_style.json"
)

// ErrNoLogo reports that no logo has been uploaded yet.
var ErrNoLogo = errors.New("branding: no logo uploaded")

// HeaderStyle is the styling the client UI applies to its header.
type HeaderStyle struct {
	DominantColor string `json:"dominantColor"`
	LogoURL       string `json:"logoUrl"`
}

// DefaultStyle is served when no logo has been uploaded.
func DefaultStyle() HeaderStyle {
	return HeaderStyle{DominantColor: DefaultHeaderColor, LogoURL: "/api/logo"}
}

// Service owns the branding objects.
type Service struct {
	store ObjectStore
}

func NewService(store ObjectStore) *Service {
	return &Service{store: store}
}

// UploadLogo validates and stores a new logo, extracts its dominant color,
// and persists the derived header style. JPEG uploads are re-encoded to
// PNG so the serving path has a single content type.
func (s *Service) UploadLogo(ctx context.Context, data []byte) (HeaderStyle, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return HeaderStyle{}, fmt.Errorf("branding: invalid image: %w", err)
	}

	if format != "png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return HeaderStyle{}, fmt.Errorf("branding: png encode: %w", err)
		}
		data = buf.Bytes()
	}

	style := HeaderStyle{
		DominantColor: DominantColor(img),
		LogoURL:       "/api/logo",
	}

	if err := s.store.Put(ctx, objectLogo, data, "image/png"); err != nil {
		return HeaderStyle{}, fmt.Errorf("branding: store logo: %w", err)
	}

	styleJSON, err := json.Marshal(style)
	if err != nil {
		return HeaderStyle{}, fmt.Errorf("branding: encode style: %w", err)
	}
	if err := s.store.Put(ctx, objectHeaderStyle, styleJSON, "application/json"); err != nil {
		return HeaderStyle{}, fmt.Errorf("branding: store style: %w", err)
	}

	slog.Info("logo uploaded", "dominant_color", style.DominantColor, "bytes", len(data))
	return style, nil
}

// Logo returns the stored logo as PNG bytes, or ErrNoLogo.
func (s *Service) Logo(ctx context.Context) ([]byte, error) {
	ok, err := s.store.Exists(ctx, objectLogo)
	if err != nil {
		return nil, fmt.Errorf("branding: logo lookup: %w", err)
	}
	if !ok {
		return nil, ErrNoLogo
	}
	data, err := s.store.Get(ctx, objectLogo)
	if err != nil {
		return nil, fmt.Errorf("branding: logo read: %w", err)
	}
	return data, nil
}

// Style returns the stored header style. A missing or unreadable style
// degrades to the default rather than erroring; the UI always gets
// something usable.
func (s *Service) Style(ctx context.Context) HeaderStyle {
	data, err := s.store.Get(ctx, objectHeaderStyle)
	if err != nil {
		return DefaultStyle()
	}
	var style HeaderStyle
	if err := json.Unmarshal(data, &style); err != nil {
		slog.Warn("stored header style unreadable, serving default", "error", err)
		return DefaultStyle()
	}
	if style.DominantColor == "" {
		style.DominantColor = DefaultHeaderColor
	}
	if style.LogoURL == "" {
		style.LogoURL = "/api/logo"
	}
	return style
}
