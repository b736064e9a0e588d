package bot

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tracebot-dev/tracebot/internal/channel"
)

var urlPattern = regexp.MustCompile(`(?i)(https?://\S+)`)

// Command is the host-neutral view of one command invocation.
type Command struct {
	RoomID  string
	EventID string
	Sender  string

	// IsText reports whether the triggering message is plain text. When
	// false, Locator and MimeType describe its attachment.
	IsText   bool
	Args     string // trailing text after the command word
	Locator  string
	MimeType string

	// ReplyToEventID is set when the command was sent in reply.
	ReplyToEventID string
}

// locateMedia resolves the media reference for a command: from the
// replied-to message when there is one, otherwise from the triggering
// message itself. A zero reference means nothing actionable was found.
func locateMedia(ctx context.Context, fetcher channel.MessageFetcher, cmd Command) (channel.MediaReference, error) {
	if cmd.ReplyToEventID != "" {
		target, err := fetcher.GetMessage(ctx, cmd.RoomID, cmd.ReplyToEventID)
		if err != nil {
			return channel.MediaReference{}, fmt.Errorf("fetch replied-to message: %w", err)
		}
		if target.IsText {
			if url := urlPattern.FindString(target.Body); url != "" {
				return channel.MediaReference{Kind: channel.MediaExternalLink, URL: url}, nil
			}
			return channel.MediaReference{}, nil
		}
		return channel.MediaReference{
			Kind:     channel.MediaHostedAttachment,
			Locator:  target.Locator,
			MimeType: target.MimeType,
		}, nil
	}

	if cmd.IsText {
		if url := urlPattern.FindString(cmd.Args); url != "" {
			return channel.MediaReference{Kind: channel.MediaExternalLink, URL: url}, nil
		}
		return channel.MediaReference{}, nil
	}
	return channel.MediaReference{
		Kind:     channel.MediaHostedAttachment,
		Locator:  cmd.Locator,
		MimeType: cmd.MimeType,
	}, nil
}
