package preview

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/tracebot-dev/tracebot/internal/channel"
	"github.com/tracebot-dev/tracebot/internal/config"
	"github.com/tracebot-dev/tracebot/internal/media"
)

const (
	videoFilenameBase = "anime-preview"
	thumbFilenameBase = "anime-preview-thumbnail"

	defaultWidth  = 640
	defaultHeight = 360
)

// Assembler downloads the preview clip and thumbnail referenced by the top
// search result and re-uploads them to the chat host, producing the final
// outbound message. Every failure past the rendering stage downgrades to a
// text-only notice rather than aborting.
type Assembler struct {
	http     *http.Client
	logger   *slog.Logger
	uploader channel.MediaUploader
	size     string
	mute     bool
}

// NewAssembler creates an Assembler. A nil client falls back to
// http.DefaultClient.
func NewAssembler(log *slog.Logger, client *http.Client, uploader channel.MediaUploader, cfg config.TraceConfig) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Assembler{
		http:     client,
		logger:   log.With(slog.String("service", "preview")),
		uploader: uploader,
		size:     cfg.PreviewSize,
		mute:     cfg.Mute,
	}
}

// Assemble turns a rendered message into the one outbound message of this
// invocation, or nil when there is nothing to send at all.
func (a *Assembler) Assemble(ctx context.Context, rendered channel.RenderedMessage) *channel.OutboundMessage {
	if rendered.VideoURL == "" || rendered.ImageURL == "" {
		return a.notice(rendered)
	}

	video, videoMime, durationMs := a.fetchVideo(ctx, rendered.VideoURL)
	thumb, thumbMime := a.fetchThumbnail(ctx, rendered.ImageURL)
	if len(video) == 0 || len(thumb) == 0 {
		return a.notice(rendered)
	}

	dims, err := media.ProbeDimensions(thumb)
	if err != nil {
		a.logger.Error("reading thumbnail dimensions failed", slog.Any("error", err))
		dims = media.Dimensions{Width: defaultWidth, Height: defaultHeight}
	}

	videoName := videoFilenameBase + extensionFor(videoMime)
	thumbName := thumbFilenameBase + extensionFor(thumbMime)
	videoLocator, err := a.uploader.UploadMedia(ctx, video, videoMime, videoName)
	if err != nil {
		a.logger.Error("uploading video preview to chat host failed", slog.Any("error", err))
		return a.notice(rendered)
	}
	thumbLocator, err := a.uploader.UploadMedia(ctx, thumb, thumbMime, thumbName)
	if err != nil {
		a.logger.Error("uploading preview thumbnail to chat host failed", slog.Any("error", err))
		return a.notice(rendered)
	}

	return &channel.OutboundMessage{
		Kind:          channel.OutboundRich,
		HTML:          rendered.HTML,
		Text:          rendered.Text,
		VideoLocator:  videoLocator,
		VideoMime:     videoMime,
		VideoSize:     len(video),
		VideoFilename: videoName,
		DurationMs:    durationMs,
		Width:         dims.Width,
		Height:        dims.Height,
		ExternalURL:   rendered.VideoURL,
		ThumbLocator:  thumbLocator,
		ThumbMime:     thumbMime,
		ThumbSize:     len(thumb),
	}
}

func (a *Assembler) notice(rendered channel.RenderedMessage) *channel.OutboundMessage {
	if rendered.IsEmpty() {
		return nil
	}
	return channel.Notice(rendered.HTML, rendered.Text)
}

// fetchVideo downloads the preview clip. The clip duration comes from the
// x-video-start / x-video-end response headers, in seconds. Failures are
// non-fatal and yield empty values.
func (a *Assembler) fetchVideo(ctx context.Context, rawURL string) ([]byte, string, int) {
	target := a.previewURL(rawURL)
	if a.mute {
		target += "&mute"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		a.logger.Error("build video preview request failed", slog.Any("error", err))
		return nil, "", 0
	}
	resp, err := a.http.Do(req)
	if err != nil {
		a.logger.Error("downloading video preview failed", slog.Any("error", err))
		return nil, "", 0
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.logger.Error("downloading video preview failed", slog.Int("status", resp.StatusCode))
		return nil, "", 0
	}
	start := headerSeconds(resp, "x-video-start")
	end := headerSeconds(resp, "x-video-end")
	data, err := media.ReadAllWithLimit(resp.Body, media.ExternalSizeLimit)
	if err != nil {
		a.logger.Error("reading video preview failed", slog.Any("error", err))
		return nil, "", 0
	}
	return data, contentType(resp), int((end - start) * 1000)
}

// fetchThumbnail downloads the preview thumbnail. Failures are non-fatal and
// yield empty values.
func (a *Assembler) fetchThumbnail(ctx context.Context, rawURL string) ([]byte, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.previewURL(rawURL), nil)
	if err != nil {
		a.logger.Error("build thumbnail request failed", slog.Any("error", err))
		return nil, ""
	}
	resp, err := a.http.Do(req)
	if err != nil {
		a.logger.Error("downloading preview thumbnail failed", slog.Any("error", err))
		return nil, ""
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.logger.Error("downloading preview thumbnail failed", slog.Int("status", resp.StatusCode))
		return nil, ""
	}
	data, err := media.ReadAllWithLimit(resp.Body, media.ExternalSizeLimit)
	if err != nil {
		a.logger.Error("reading preview thumbnail failed", slog.Any("error", err))
		return nil, ""
	}
	return data, contentType(resp)
}

// previewURL appends the size selector to a preview URL, which already
// carries its own query string in practice.
func (a *Assembler) previewURL(rawURL string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "size=" + a.size
}

func headerSeconds(resp *http.Response, name string) float64 {
	value, err := strconv.ParseFloat(resp.Header.Get(name), 64)
	if err != nil {
		return 0
	}
	return value
}

func contentType(resp *http.Response) string {
	value := resp.Header.Get("Content-Type")
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = strings.TrimSpace(value[:idx])
	}
	return strings.TrimSpace(value)
}

// extensionFor picks a file extension for the common preview MIME types,
// deferring to the system MIME table for anything else.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
