package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tracebot-dev/tracebot/internal/channel"
	"github.com/tracebot-dev/tracebot/internal/trace"
)

// CommandName is the chat command word, without the prefix.
const CommandName = "trace"

const (
	usageText = "> **Usage:**  \n" +
		"> In reply to the message that contains a screenshot or link to a screenshot: `!trace`  \n" +
		"> In a message that contains a link to a screenshot: `!trace <link>`  \n" +
		"> In a message that contains a screenshot as an attachment: `!trace`  \n" +
		"> To check the search quota and limit: `!trace quota`"
	usageHTML = "<blockquote><b>Usage:</b><br>" +
		"In reply to the message that contains a screenshot or link to a screenshot: <code>!trace</code><br>" +
		"In a message that contains a link to a screenshot: <code>!trace &lt;link&gt;</code><br>" +
		"In a message that contains a screenshot as an attachment: <code>!trace</code><br>" +
		"To check the search quota and limit: <code>!trace quota</code></blockquote>"

	noMediaText  = "No media found for analysis."
	noResultText = "Couldn't find an anime based on the provided screenshot/video."
	quotaFailure = "Connection to trace.moe API failed"
)

// Searcher is the slice of the trace.moe client the dispatcher uses.
type Searcher interface {
	SearchByURL(ctx context.Context, mediaURL string) (trace.Response, error)
	SearchByBytes(ctx context.Context, data []byte, contentType string) (trace.Response, error)
	GetQuota(ctx context.Context) *trace.Quota
}

// URLValidator performs the metadata check on external links.
type URLValidator interface {
	ValidateExternalURL(ctx context.Context, mediaURL string) error
}

// Renderer produces the parallel HTML/text fragments.
type Renderer interface {
	Render(resp trace.Response) channel.RenderedMessage
	RenderQuota(quota trace.Quota) channel.RenderedMessage
}

// Assembler turns a rendered message into the outbound reply.
type Assembler interface {
	Assemble(ctx context.Context, rendered channel.RenderedMessage) *channel.OutboundMessage
}

// Dispatcher runs the whole pipeline for one command invocation. It holds no
// per-invocation state; invocations are independent and may run concurrently.
type Dispatcher struct {
	logger    *slog.Logger
	host      channel.Host
	searcher  Searcher
	validator URLValidator
	renderer  Renderer
	assembler Assembler
}

// NewDispatcher wires the pipeline components together.
func NewDispatcher(log *slog.Logger, host channel.Host, searcher Searcher, validator URLValidator, renderer Renderer, assembler Assembler) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		logger:    log.With(slog.String("service", "dispatcher")),
		host:      host,
		searcher:  searcher,
		validator: validator,
		renderer:  renderer,
		assembler: assembler,
	}
}

// Handle processes one command invocation end to end and sends exactly one
// reply (or usage message).
func (d *Dispatcher) Handle(ctx context.Context, cmd Command) {
	log := d.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("room_id", cmd.RoomID),
		slog.String("event_id", cmd.EventID),
	)
	if err := d.host.MarkRead(ctx, cmd.RoomID, cmd.EventID); err != nil {
		log.Warn("mark read failed", slog.Any("error", err))
	}

	args := strings.TrimSpace(cmd.Args)
	if cmd.IsText && strings.EqualFold(args, "quota") {
		d.handleQuota(ctx, log, cmd)
		return
	}

	if cmd.ReplyToEventID == "" && cmd.IsText && urlPattern.FindString(args) == "" {
		d.reply(ctx, log, cmd, channel.Notice(usageHTML, usageText))
		return
	}

	ref, err := locateMedia(ctx, d.host, cmd)
	if err != nil {
		log.Error("locating media failed", slog.Any("error", err))
		d.reply(ctx, log, cmd, errorNotice(err))
		return
	}
	if ref.IsZero() {
		d.reply(ctx, log, cmd, plainNotice(noMediaText))
		return
	}

	resp, err := d.search(ctx, ref)
	if err != nil {
		log.Error("search failed", slog.Any("error", err))
		d.reply(ctx, log, cmd, errorNotice(err))
		return
	}

	rendered := d.renderer.Render(resp)
	outbound := d.assembler.Assemble(ctx, rendered)
	if outbound == nil {
		d.reply(ctx, log, cmd, plainNotice(noResultText))
		return
	}
	d.reply(ctx, log, cmd, outbound)
}

func (d *Dispatcher) search(ctx context.Context, ref channel.MediaReference) (trace.Response, error) {
	switch ref.Kind {
	case channel.MediaExternalLink:
		if err := d.validator.ValidateExternalURL(ctx, ref.URL); err != nil {
			return trace.Response{}, err
		}
		return d.searcher.SearchByURL(ctx, ref.URL)
	case channel.MediaHostedAttachment:
		data, err := channel.Download(ctx, d.host, ref.Locator)
		if err != nil {
			return trace.Response{}, err
		}
		return d.searcher.SearchByBytes(ctx, data, ref.MimeType)
	default:
		return trace.Response{}, fmt.Errorf("unsupported media reference kind: %s", ref.Kind)
	}
}

func (d *Dispatcher) handleQuota(ctx context.Context, log *slog.Logger, cmd Command) {
	quota := d.searcher.GetQuota(ctx)
	if quota == nil {
		d.reply(ctx, log, cmd, plainNotice(quotaFailure))
		return
	}
	rendered := d.renderer.RenderQuota(*quota)
	d.reply(ctx, log, cmd, channel.Notice(rendered.HTML, rendered.Text))
}

func (d *Dispatcher) reply(ctx context.Context, log *slog.Logger, cmd Command, msg *channel.OutboundMessage) {
	if err := d.host.Reply(ctx, cmd.RoomID, cmd.EventID, msg); err != nil {
		log.Error("sending reply failed", slog.Any("error", err))
	}
}

// plainNotice wraps a short status line into the parallel notice encodings.
func plainNotice(text string) *channel.OutboundMessage {
	return channel.Notice("<blockquote>"+text+"</blockquote>", "> "+text)
}

func errorNotice(err error) *channel.OutboundMessage {
	return plainNotice(err.Error())
}
