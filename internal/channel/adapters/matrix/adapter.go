package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/tracebot-dev/tracebot/internal/bot"
	"github.com/tracebot-dev/tracebot/internal/channel"
	"github.com/tracebot-dev/tracebot/internal/config"
)

// Adapter binds the pipeline to a Matrix homeserver through a single bot
// account.
type Adapter struct {
	logger  *slog.Logger
	client  *mautrix.Client
	startup time.Time
}

var _ channel.Host = (*Adapter)(nil)

func NewAdapter(log *slog.Logger, cfg config.Config) (*Adapter, error) {
	if log == nil {
		log = slog.Default()
	}
	client, err := mautrix.NewClient(cfg.Matrix.Homeserver, id.UserID(cfg.Matrix.UserID), cfg.Matrix.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}
	// mautrix logs through zerolog, at the same level as everything else.
	client.Log = zerolog.New(os.Stderr).With().
		Timestamp().
		Str("component", "mautrix").
		Logger().
		Level(zerologLevel(cfg.Log.Level))

	return &Adapter{
		logger:  log.With(slog.String("adapter", "matrix")),
		client:  client,
		startup: time.Now(),
	}, nil
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Run joins the sync loop and feeds command invocations to handle until the
// context is canceled. Each invocation runs in its own goroutine.
func (a *Adapter) Run(ctx context.Context, handle func(context.Context, bot.Command)) error {
	syncer, ok := a.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return errors.New("unexpected syncer type on matrix client")
	}

	syncer.OnEventType(event.EventMessage, func(_ context.Context, evt *event.Event) {
		if evt.Sender == a.client.UserID {
			return
		}
		if time.UnixMilli(evt.Timestamp).Before(a.startup) {
			return
		}
		cmd, ok := parseCommand(evt)
		if !ok {
			return
		}
		a.logger.Info("command received",
			slog.String("room_id", cmd.RoomID),
			slog.String("sender", cmd.Sender),
		)
		go handle(ctx, cmd)
	})

	syncer.OnEventType(event.StateMember, func(_ context.Context, evt *event.Event) {
		a.handleMembership(ctx, evt)
	})

	a.logger.Info("starting sync loop", slog.String("user_id", string(a.client.UserID)))
	if err := a.client.SyncWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("matrix sync: %w", err)
	}
	return nil
}

// handleMembership accepts room invites addressed to the bot account.
func (a *Adapter) handleMembership(ctx context.Context, evt *event.Event) {
	if evt.GetStateKey() != string(a.client.UserID) {
		return
	}
	if evt.Content.AsMember().Membership != event.MembershipInvite {
		return
	}
	if _, err := a.client.JoinRoomByID(ctx, evt.RoomID); err != nil {
		a.logger.Warn("joining room failed",
			slog.String("room_id", string(evt.RoomID)),
			slog.Any("error", err),
		)
		return
	}
	a.logger.Info("joined room", slog.String("room_id", string(evt.RoomID)))
}

func (a *Adapter) GetMessage(ctx context.Context, roomID, eventID string) (channel.HostedMessage, error) {
	evt, err := a.client.GetEvent(ctx, id.RoomID(roomID), id.EventID(eventID))
	if err != nil {
		return channel.HostedMessage{}, fmt.Errorf("fetch event %s: %w", eventID, err)
	}
	if err := evt.Content.ParseRaw(evt.Type); err != nil && !errors.Is(err, event.ErrContentAlreadyParsed) {
		return channel.HostedMessage{}, fmt.Errorf("parse event %s: %w", eventID, err)
	}
	msg := evt.Content.AsMessage()
	if msg == nil {
		return channel.HostedMessage{}, fmt.Errorf("event %s is not a message", eventID)
	}

	switch msg.MsgType {
	case event.MsgImage, event.MsgVideo, event.MsgFile, event.MsgAudio:
		return channel.HostedMessage{
			Locator:  attachmentLocator(msg),
			MimeType: attachmentMimeType(msg),
		}, nil
	default:
		msg.RemoveReplyFallback()
		return channel.HostedMessage{IsText: true, Body: msg.Body}, nil
	}
}

func (a *Adapter) DownloadMedia(ctx context.Context, locator string) ([]byte, error) {
	uri, err := id.ParseContentURI(locator)
	if err != nil {
		return nil, fmt.Errorf("parse content uri %q: %w", locator, err)
	}
	data, err := a.client.DownloadBytes(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", locator, err)
	}
	return data, nil
}

func (a *Adapter) UploadMedia(ctx context.Context, data []byte, mimeType, filename string) (string, error) {
	resp, err := a.client.UploadMedia(ctx, mautrix.ReqUploadMedia{
		ContentBytes: data,
		ContentType:  mimeType,
		FileName:     filename,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	return resp.ContentURI.String(), nil
}

func (a *Adapter) Reply(ctx context.Context, roomID, eventID string, msg *channel.OutboundMessage) error {
	content := outboundContent(msg, id.EventID(eventID))
	if _, err := a.client.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (a *Adapter) MarkRead(ctx context.Context, roomID, eventID string) error {
	return a.client.MarkRead(ctx, id.RoomID(roomID), id.EventID(eventID))
}

// outboundContent maps the host-neutral outbound message onto a Matrix
// message event, either an m.video with caption and thumbnail or an
// m.notice fallback.
func outboundContent(msg *channel.OutboundMessage, inReplyTo id.EventID) *event.Content {
	mec := &event.MessageEventContent{
		MsgType:       event.MsgNotice,
		Body:          msg.Text,
		Format:        event.FormatHTML,
		FormattedBody: msg.HTML,
		RelatesTo: &event.RelatesTo{
			InReplyTo: &event.InReplyTo{EventID: inReplyTo},
		},
	}
	content := &event.Content{Parsed: mec}

	if msg.Kind != channel.OutboundRich {
		return content
	}

	mec.MsgType = event.MsgVideo
	mec.FileName = msg.VideoFilename
	mec.URL = id.ContentURIString(msg.VideoLocator)
	mec.Info = &event.FileInfo{
		MimeType: msg.VideoMime,
		Size:     msg.VideoSize,
		Duration: msg.DurationMs,
		Width:    msg.Width,
		Height:   msg.Height,
	}
	if msg.ThumbLocator != "" {
		mec.Info.ThumbnailURL = id.ContentURIString(msg.ThumbLocator)
		mec.Info.ThumbnailInfo = &event.FileInfo{
			MimeType: msg.ThumbMime,
			Size:     msg.ThumbSize,
			Width:    msg.Width,
			Height:   msg.Height,
		}
	}
	if msg.ExternalURL != "" {
		content.Raw = map[string]any{"external_url": msg.ExternalURL}
	}
	return content
}

func attachmentLocator(msg *event.MessageEventContent) string {
	if msg.File != nil {
		return string(msg.File.URL)
	}
	return string(msg.URL)
}

func attachmentMimeType(msg *event.MessageEventContent) string {
	if msg.Info != nil {
		return msg.Info.MimeType
	}
	return ""
}
