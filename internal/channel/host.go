package channel

import (
	"context"
	"errors"
	"fmt"
)

// ErrDownloadFailed wraps any host-side failure while fetching a stored blob.
var ErrDownloadFailed = errors.New("media download from chat host failed")

// Host is the chat-host surface the pipeline needs: fetching a replied-to
// message, moving media blobs, and sending the one reply per invocation.
type Host interface {
	MessageFetcher
	MediaFetcher
	MediaUploader
	Replier
}

// MessageFetcher resolves a message the user replied to.
type MessageFetcher interface {
	GetMessage(ctx context.Context, roomID, eventID string) (HostedMessage, error)
}

// MediaFetcher downloads the raw bytes of a host-stored media object.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, locator string) ([]byte, error)
}

// MediaUploader stores bytes on the host and returns the new locator.
type MediaUploader interface {
	UploadMedia(ctx context.Context, data []byte, mimeType, filename string) (string, error)
}

// Replier sends the outbound message as a reply to the triggering event and
// acknowledges commands with a read receipt.
type Replier interface {
	Reply(ctx context.Context, roomID, eventID string, msg *OutboundMessage) error
	MarkRead(ctx context.Context, roomID, eventID string) error
}

// Download fetches a hosted blob, wrapping any host error into the uniform
// download failure.
func Download(ctx context.Context, fetcher MediaFetcher, locator string) ([]byte, error) {
	data, err := fetcher.DownloadMedia(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return data, nil
}
