package channel

// MediaKind discriminates the two ways a user can hand the bot media.
type MediaKind string

const (
	// MediaExternalLink is a plain https URL found in message text.
	MediaExternalLink MediaKind = "external_link"
	// MediaHostedAttachment is a blob stored on the chat host.
	MediaHostedAttachment MediaKind = "hosted_attachment"
)

// MediaReference points at the media to analyze. Exactly one branch is
// populated, selected by Kind. Immutable after creation.
type MediaReference struct {
	Kind     MediaKind
	URL      string // external link
	Locator  string // host storage locator (mxc URI)
	MimeType string // declared type of the hosted attachment
}

// IsZero reports whether no media was located at all.
func (r MediaReference) IsZero() bool {
	return r.Kind == ""
}

// HostedMessage is the host-neutral view of a chat message the locator
// inspects: either plain text, or an attachment with its declared type.
type HostedMessage struct {
	IsText   bool
	Body     string
	Locator  string
	MimeType string
}

// RenderedMessage carries the two parallel renderings of a search response
// plus the preview URLs of the top match. HTML and Text are empty together
// or non-empty together.
type RenderedMessage struct {
	HTML     string
	Text     string
	VideoURL string
	ImageURL string
}

// IsEmpty reports whether there is nothing to say.
func (m RenderedMessage) IsEmpty() bool {
	return m.HTML == "" && m.Text == ""
}

// OutboundKind selects the outbound message style.
type OutboundKind string

const (
	// OutboundRich is a video attachment with thumbnail and caption.
	OutboundRich OutboundKind = "rich"
	// OutboundNotice is a caption-only fallback.
	OutboundNotice OutboundKind = "notice"
)

// OutboundMessage is the single reply produced by one invocation.
type OutboundMessage struct {
	Kind OutboundKind

	// Captions, present on both kinds.
	HTML string
	Text string

	// Rich media fields, set only when Kind is OutboundRich.
	VideoLocator  string
	VideoMime     string
	VideoSize     int
	VideoFilename string
	DurationMs    int
	Width         int
	Height        int
	ExternalURL   string
	ThumbLocator  string
	ThumbMime     string
	ThumbSize     int
}

// Notice builds a caption-only outbound message.
func Notice(html, text string) *OutboundMessage {
	return &OutboundMessage{
		Kind: OutboundNotice,
		HTML: html,
		Text: text,
	}
}
