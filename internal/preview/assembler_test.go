package preview

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracebot-dev/tracebot/internal/channel"
	"github.com/tracebot-dev/tracebot/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUploader struct {
	uploads []string
	fail    bool
}

func (f *fakeUploader) UploadMedia(_ context.Context, _ []byte, _ string, filename string) (string, error) {
	if f.fail {
		return "", errors.New("upload rejected")
	}
	f.uploads = append(f.uploads, filename)
	return "mxc://example.com/" + filename, nil
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

// previewServer serves /video and /image the way the trace.moe media
// endpoints do, capturing the request queries it sees.
func previewServer(t *testing.T, thumb []byte) (*httptest.Server, *map[string]string) {
	t.Helper()
	queries := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries[r.URL.Path] = r.URL.RawQuery
		switch r.URL.Path {
		case "/video":
			w.Header().Set("Content-Type", "video/mp4")
			w.Header().Set("x-video-start", "50")
			w.Header().Set("x-video-end", "100")
			_, _ = w.Write([]byte("video_data"))
		case "/image":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(thumb)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &queries
}

func renderedFor(srv *httptest.Server) channel.RenderedMessage {
	return channel.RenderedMessage{
		HTML:     "HTML text",
		Text:     "Body text",
		VideoURL: srv.URL + "/video?t=98.335&token=x",
		ImageURL: srv.URL + "/image?t=98.335&token=x",
	}
}

func TestAssembleBuildsRichMessage(t *testing.T) {
	t.Parallel()

	srv, queries := previewServer(t, pngBytes(t, 10, 10))
	uploader := &fakeUploader{}
	assembler := NewAssembler(testLogger(), nil, uploader, config.TraceConfig{PreviewSize: "l"})

	msg := assembler.Assemble(context.Background(), renderedFor(srv))
	require.NotNil(t, msg)
	assert.Equal(t, channel.OutboundRich, msg.Kind)
	assert.Equal(t, "HTML text", msg.HTML)
	assert.Equal(t, "Body text", msg.Text)
	assert.Equal(t, "mxc://example.com/anime-preview.mp4", msg.VideoLocator)
	assert.Equal(t, "mxc://example.com/anime-preview-thumbnail.png", msg.ThumbLocator)
	assert.Equal(t, "video/mp4", msg.VideoMime)
	assert.Equal(t, "image/png", msg.ThumbMime)
	assert.Equal(t, len("video_data"), msg.VideoSize)
	assert.Equal(t, "anime-preview.mp4", msg.VideoFilename)
	assert.Equal(t, 50000, msg.DurationMs)
	assert.Equal(t, 10, msg.Width)
	assert.Equal(t, 10, msg.Height)
	assert.Contains(t, msg.ExternalURL, "/video")

	assert.Contains(t, (*queries)["/video"], "size=l")
	assert.Contains(t, (*queries)["/image"], "size=l")
	assert.NotContains(t, (*queries)["/video"], "mute")
	assert.Equal(t, []string{"anime-preview.mp4", "anime-preview-thumbnail.png"}, uploader.uploads)
}

func TestAssembleAppendsMuteMarker(t *testing.T) {
	t.Parallel()

	srv, queries := previewServer(t, pngBytes(t, 10, 10))
	assembler := NewAssembler(testLogger(), nil, &fakeUploader{}, config.TraceConfig{PreviewSize: "m", Mute: true})

	msg := assembler.Assemble(context.Background(), renderedFor(srv))
	require.NotNil(t, msg)
	assert.Contains(t, (*queries)["/video"], "mute")
	assert.NotContains(t, (*queries)["/image"], "mute")
}

func TestAssembleDefaultsDimensionsOnDecodeFailure(t *testing.T) {
	t.Parallel()

	srv, _ := previewServer(t, []byte("not an image"))
	assembler := NewAssembler(testLogger(), nil, &fakeUploader{}, config.TraceConfig{PreviewSize: "m"})

	msg := assembler.Assemble(context.Background(), renderedFor(srv))
	require.NotNil(t, msg)
	assert.Equal(t, channel.OutboundRich, msg.Kind)
	assert.Equal(t, 640, msg.Width)
	assert.Equal(t, 360, msg.Height)
}

func TestAssembleDowngradesToNoticeOnUploadFailure(t *testing.T) {
	t.Parallel()

	srv, _ := previewServer(t, pngBytes(t, 10, 10))
	assembler := NewAssembler(testLogger(), nil, &fakeUploader{fail: true}, config.TraceConfig{PreviewSize: "m"})

	msg := assembler.Assemble(context.Background(), renderedFor(srv))
	require.NotNil(t, msg)
	assert.Equal(t, channel.OutboundNotice, msg.Kind)
	assert.Equal(t, "HTML text", msg.HTML)
	assert.Equal(t, "Body text", msg.Text)
	assert.Empty(t, msg.VideoLocator)
}

func TestAssembleDowngradesToNoticeOnFetchFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	assembler := NewAssembler(testLogger(), nil, &fakeUploader{}, config.TraceConfig{PreviewSize: "m"})
	msg := assembler.Assemble(context.Background(), channel.RenderedMessage{
		HTML:     "HTML text",
		Text:     "Body text",
		VideoURL: srv.URL + "/video",
		ImageURL: srv.URL + "/image",
	})
	require.NotNil(t, msg)
	assert.Equal(t, channel.OutboundNotice, msg.Kind)
}

func TestAssembleNoticeWhenNoPreviewURLs(t *testing.T) {
	t.Parallel()

	assembler := NewAssembler(testLogger(), nil, &fakeUploader{}, config.TraceConfig{PreviewSize: "m"})
	msg := assembler.Assemble(context.Background(), channel.RenderedMessage{HTML: "HTML text", Text: "Body text"})
	require.NotNil(t, msg)
	assert.Equal(t, channel.OutboundNotice, msg.Kind)
	assert.Equal(t, "HTML text", msg.HTML)
	assert.Equal(t, "Body text", msg.Text)
}

func TestAssembleNothingWhenEmpty(t *testing.T) {
	t.Parallel()

	assembler := NewAssembler(testLogger(), nil, &fakeUploader{}, config.TraceConfig{PreviewSize: "m"})
	assert.Nil(t, assembler.Assemble(context.Background(), channel.RenderedMessage{}))
}
