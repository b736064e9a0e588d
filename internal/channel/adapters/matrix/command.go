package matrix

import (
	"strings"

	"maunium.net/go/mautrix/event"

	"github.com/tracebot-dev/tracebot/internal/bot"
)

const commandPrefix = "!" + bot.CommandName

// parseCommand recognizes a command invocation in a room message: a text
// message starting with the command word, or a captioned attachment whose
// caption starts with it.
func parseCommand(evt *event.Event) (bot.Command, bool) {
	msg := evt.Content.AsMessage()
	if msg == nil {
		return bot.Command{}, false
	}

	cmd := bot.Command{
		RoomID:  string(evt.RoomID),
		EventID: string(evt.ID),
		Sender:  string(evt.Sender),
	}
	if rel := msg.RelatesTo; rel != nil {
		cmd.ReplyToEventID = string(rel.GetReplyTo())
	}

	switch msg.MsgType {
	case event.MsgText, event.MsgEmote:
		msg.RemoveReplyFallback()
		args, ok := commandArgs(msg.Body)
		if !ok {
			return bot.Command{}, false
		}
		cmd.IsText = true
		cmd.Args = args
		return cmd, true
	case event.MsgImage, event.MsgVideo:
		// Without a caption the body is just the filename.
		if msg.FileName == "" || msg.FileName == msg.Body {
			return bot.Command{}, false
		}
		if _, ok := commandArgs(msg.Body); !ok {
			return bot.Command{}, false
		}
		cmd.Locator = attachmentLocator(msg)
		cmd.MimeType = attachmentMimeType(msg)
		return cmd, true
	default:
		return bot.Command{}, false
	}
}

// commandArgs reports whether body starts with the command word and returns
// the trailing arguments.
func commandArgs(body string) (string, bool) {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) < len(commandPrefix) {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len(commandPrefix)], commandPrefix) {
		return "", false
	}
	rest := trimmed[len(commandPrefix):]
	if rest != "" && !strings.HasPrefix(rest, " ") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
