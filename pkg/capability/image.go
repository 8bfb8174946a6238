package capability

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage is returned for image references that cannot be loaded.
var ErrInvalidImage = errors.New("invalid image reference")

// ImageLoader resolves the image references carried by a snapshot (data URLs
// or http(s) URLs) into encoded images ready for upload.
type ImageLoader interface {
	Load(ctx context.Context, ref string) (Image, error)
}

// LoaderConfig configures the default image loader.
type LoaderConfig struct {
	// TransformEndpoint, when set, is a CDN image-transform URL that remote
	// images are fetched through. The source URL is passed in the "url" query
	// parameter and the size cap in "w".
	TransformEndpoint string

	// MaxDimension caps the longer image side; larger images are downscaled.
	// Default: 1536. Zero or negative disables resizing.
	MaxDimension int

	// MaxBytes caps the fetched payload. Default: 20 MiB.
	MaxBytes int64

	// Timeout bounds remote fetches. Default: 10s.
	Timeout time.Duration
}

// Loader is the default ImageLoader.
type Loader struct {
	cfg    LoaderConfig
	client *http.Client
}

// NewLoader creates a loader, applying defaults to cfg.
func NewLoader(cfg LoaderConfig) *Loader {
	if cfg.MaxDimension == 0 {
		cfg.MaxDimension = 1536
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 20 << 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Loader{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// Load implements ImageLoader.
func (l *Loader) Load(ctx context.Context, ref string) (Image, error) {
	ref = strings.TrimSpace(ref)

	var (
		data []byte
		mime string
		err  error
	)
	switch {
	case ref == "":
		return Image{}, fmt.Errorf("%w: empty", ErrInvalidImage)
	case strings.HasPrefix(ref, "data:"):
		data, mime, err = DecodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, mime, err = l.fetch(ctx, ref)
	default:
		return Image{}, fmt.Errorf("%w: unsupported scheme", ErrInvalidImage)
	}
	if err != nil {
		return Image{}, err
	}

	return l.fit(data, PickMIME(mime, data))
}

func (l *Loader) fetch(ctx context.Context, ref string) ([]byte, string, error) {
	target := ref
	if l.cfg.TransformEndpoint != "" {
		u, err := url.Parse(l.cfg.TransformEndpoint)
		if err != nil {
			return nil, "", fmt.Errorf("invalid transform endpoint: %w", err)
		}
		q := u.Query()
		q.Set("url", ref)
		if l.cfg.MaxDimension > 0 {
			q.Set("w", strconv.Itoa(l.cfg.MaxDimension))
		}
		u.RawQuery = q.Encode()
		target = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.cfg.MaxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > l.cfg.MaxBytes {
		return nil, "", fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, l.cfg.MaxBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// fit downscales images whose longer side exceeds MaxDimension. Images that
// cannot be decoded are passed through unchanged; providers may still read them.
func (l *Loader) fit(data []byte, mime string) (Image, error) {
	if l.cfg.MaxDimension <= 0 {
		return Image{Data: data, MIMEType: mime}, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || max(cfg.Width, cfg.Height) <= l.cfg.MaxDimension {
		return Image{Data: data, MIMEType: mime}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{Data: data, MIMEType: mime}, nil
	}

	scale := float64(l.cfg.MaxDimension) / float64(max(cfg.Width, cfg.Height))
	w := max(1, int(float64(cfg.Width)*scale))
	h := max(1, int(float64(cfg.Height)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if mime == "image/png" {
		if err := png.Encode(&buf, dst); err != nil {
			return Image{}, fmt.Errorf("encode png: %w", err)
		}
		return Image{Data: buf.Bytes(), MIMEType: "image/png"}, nil
	}
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return Image{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Image{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

// DecodeDataURL decodes a data URL, or bare base64, returning the payload and
// the declared MIME type.
func DecodeDataURL(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hint string
	if strings.HasPrefix(s, "data:") {
		idx := strings.IndexByte(s, ',')
		if idx < 0 {
			return nil, "", fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
		}
		meta := s[len("data:"):idx]
		if semi := strings.IndexByte(meta, ';'); semi >= 0 {
			hint = meta[:semi]
		} else {
			hint = meta
		}
		s = s[idx+1:]
	}

	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hint, nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return b, hint, nil
}

// PickMIME prefers the declared type and falls back to content sniffing.
func PickMIME(declared string, data []byte) string {
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = declared[:i]
	}
	if d := strings.TrimSpace(declared); d != "" && d != "application/octet-stream" {
		return d
	}
	if len(data) > 0 {
		return http.DetectContentType(data)
	}
	return "image/jpeg"
}
