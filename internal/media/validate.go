package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Validator performs the metadata-only check on an external media URL before
// the URL is handed to the search API.
type Validator struct {
	http   *http.Client
	logger *slog.Logger
}

// NewValidator creates a Validator. A nil client falls back to
// http.DefaultClient.
func NewValidator(log *slog.Logger, client *http.Client) *Validator {
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Validator{
		http:   client,
		logger: log.With(slog.String("service", "media")),
	}
}

// ValidateExternalURL issues a HEAD request and checks the declared size and
// content type. A missing content length passes; a missing content type does
// not and is reported as "unknown".
func (v *Validator) ValidateExternalURL(ctx context.Context, mediaURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mediaURL, nil)
	if err != nil {
		v.logger.Error("build validation request failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	resp, err := v.http.Do(req)
	if err != nil {
		v.logger.Error("external url validation failed", slog.String("url", mediaURL), slog.Any("error", err))
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		v.logger.Error("external url validation failed", slog.String("url", mediaURL), slog.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: status %d", ErrValidationFailed, resp.StatusCode)
	}

	if resp.ContentLength > ExternalSizeLimit {
		v.logger.Error("external file size too big", slog.Int64("content_length", resp.ContentLength))
		return fmt.Errorf("%w: %d bytes", ErrAssetTooLarge, resp.ContentLength)
	}
	contentType := normalizeContentType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(contentType, "image/") && !strings.HasPrefix(contentType, "video/") {
		if contentType == "" {
			contentType = "unknown"
		}
		v.logger.Error("external file type not supported", slog.String("content_type", contentType))
		return fmt.Errorf("%w: %s", ErrTypeNotSupported, contentType)
	}
	return nil
}

// normalizeContentType strips any media type parameters such as charset.
func normalizeContentType(value string) string {
	value = strings.TrimSpace(value)
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return value
}
