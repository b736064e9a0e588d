package render

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tracebot-dev/tracebot/internal/channel"
	"github.com/tracebot-dev/tracebot/internal/trace"
)

const (
	anilistBaseURL     = "https://anilist.co/anime/"
	myAnimeListBaseURL = "https://myanimelist.net/anime/"
)

// Formatter turns a search response into the two parallel renderings. It has
// no mutable state and is safe for concurrent use.
type Formatter struct {
	logger     *slog.Logger
	maxResults int
}

// NewFormatter creates a Formatter rendering at most maxResults entries
// (clamped to a minimum of one).
func NewFormatter(log *slog.Logger, maxResults int) *Formatter {
	if log == nil {
		log = slog.Default()
	}
	if maxResults < 1 {
		maxResults = 1
	}
	return &Formatter{
		logger:     log.With(slog.String("service", "render")),
		maxResults: maxResults,
	}
}

// Render produces the HTML and markdown fragments describing the response.
// An API-side error or an empty result list yields an all-empty message.
func (f *Formatter) Render(resp trace.Response) channel.RenderedMessage {
	if msg := resp.ErrorMessage(); msg != "" {
		f.logger.Error("search API returned an error", slog.String("api_error", msg))
		return channel.RenderedMessage{}
	}
	matches := resp.Matches()
	if len(matches) == 0 {
		return channel.RenderedMessage{}
	}

	top := matches[0]
	b := &builder{}

	// Romaji heading linked to the AniList page.
	b.add(
		fmt.Sprintf("<div><blockquote><a href=%q><h3>%s</h3></a>", anilistURL(top.Anilist.ID), top.Anilist.Title.Romaji),
		fmt.Sprintf("> ### [%s](%s)  \n>  \n", top.Anilist.Title.Romaji, anilistURL(top.Anilist.ID)),
	)

	if english := top.Anilist.Title.EnglishTitle(); english != "" {
		b.add(
			fmt.Sprintf("<blockquote><b>English title:</b> %s</blockquote>", english),
			fmt.Sprintf("> > **English title:** %s  \n>  \n", english),
		)
	}

	b.add(catalogLinks(top.Anilist))

	if len(top.Anilist.Synonyms) > 0 {
		joined := strings.Join(top.Anilist.Synonyms, ", ")
		b.add(
			fmt.Sprintf("<blockquote><b>Alternative titles:</b> %s</blockquote>", joined),
			fmt.Sprintf("> > **Alternative titles:** %s  \n>  \n", joined),
		)
	}

	window := timeRange(top.From, top.To)
	b.add(
		fmt.Sprintf("<blockquote><b>Similarity:</b> %s%%</blockquote>", percentage(top.Similarity)),
		fmt.Sprintf("> > **Similarity:** %s%%  \n>  \n", percentage(top.Similarity)),
	)
	b.add(
		fmt.Sprintf("<blockquote><b>Filename:</b> %s</blockquote>", top.Filename),
		fmt.Sprintf("> > **Filename:** %s  \n>  \n", top.Filename),
	)
	b.add(
		fmt.Sprintf("<blockquote><b>Episode:</b> %s</blockquote>", episode(top.Episode)),
		fmt.Sprintf("> > **Episode:** %s  \n>  \n", episode(top.Episode)),
	)
	b.add(
		fmt.Sprintf("<blockquote><b>Time:</b> %s</blockquote>", window),
		fmt.Sprintf("> > **Time:** %s  \n>  \n", window),
	)

	if len(matches) > 1 && f.maxResults > 1 {
		b.add(
			"<p><details><summary><b>Other results:</b></summary>",
			"> **Other results:**  \n",
		)
		end := min(f.maxResults, len(matches))
		for i := 1; i < end; i++ {
			b.add(otherResult(i, matches[i]))
		}
		b.add("</details></p>", "")
	}

	b.add(
		"<p><b><sub>Results from trace.moe</sub></b></p></blockquote></div>",
		"> **Results from trace.moe**",
	)

	return channel.RenderedMessage{
		HTML:     b.html.String(),
		Text:     b.text.String(),
		VideoURL: top.Video,
		ImageURL: top.Image,
	}
}

// RenderQuota produces the two-fragment quota summary.
func (f *Formatter) RenderQuota(quota trace.Quota) channel.RenderedMessage {
	html := fmt.Sprintf(
		"<blockquote><h3>trace.moe quota</h3>"+
			"<p><b>Priority:</b> %d"+
			"<br><b>Concurrency:</b> %d"+
			"<br><b>Quota:</b> %d"+
			"<br><b>Quota used:</b> %d"+
			"</p></blockquote>",
		quota.Priority, quota.Concurrency, quota.Quota, quota.QuotaUsed,
	)
	text := fmt.Sprintf(
		"> ### trace.moe quota  \n"+
			"> **Priority:** %d  \n"+
			"> **Concurrency:** %d  \n"+
			"> **Quota:** %d  \n"+
			"> **Quota used:** %d",
		quota.Priority, quota.Concurrency, quota.Quota, quota.QuotaUsed,
	)
	return channel.RenderedMessage{HTML: html, Text: text}
}

// builder keeps the HTML and markdown renderings appended in lockstep so the
// two can never drift apart.
type builder struct {
	html strings.Builder
	text strings.Builder
}

func (b *builder) add(html, text string) {
	b.html.WriteString(html)
	b.text.WriteString(text)
}

func catalogLinks(info trace.AnilistInfo) (string, string) {
	html := fmt.Sprintf("<blockquote><a href=%q>AniList</a>", anilistURL(info.ID))
	text := fmt.Sprintf("> > [AniList](%s)", anilistURL(info.ID))
	if info.IDMal != 0 {
		html += fmt.Sprintf(", <a href=%q>MyAnimeList</a>", malURL(info.IDMal))
		text += fmt.Sprintf(", [MyAnimeList](%s)", malURL(info.IDMal))
	}
	return html + "</blockquote>", text + "  \n>  \n"
}

func otherResult(index int, m trace.Match) (string, string) {
	title := m.Anilist.Title.EnglishTitle()
	if title == "" {
		title = m.Anilist.Title.Romaji
	}
	window := timeRange(m.From, m.To)

	html := fmt.Sprintf("<blockquote>%d. <a href=%q>%s</a>", index, anilistURL(m.Anilist.ID), title)
	text := fmt.Sprintf("> > %d. [%s](%s)", index, title, anilistURL(m.Anilist.ID))
	if m.Anilist.IDMal != 0 {
		html += fmt.Sprintf(" (<a href=%q>MAL</a>)", malURL(m.Anilist.IDMal))
		text += fmt.Sprintf(" ([MAL](%s))", malURL(m.Anilist.IDMal))
	}
	html += fmt.Sprintf(" <b>S:</b> %s%%,", percentage(m.Similarity))
	text += fmt.Sprintf(" **S:** %s%%,", percentage(m.Similarity))
	if ep := episodeOrEmpty(m.Episode); ep != "" {
		html += fmt.Sprintf(" <b>Ep:</b> %s,", ep)
		text += fmt.Sprintf(" **Ep:** %s,", ep)
	}
	html += fmt.Sprintf(" <b>T:</b> %s</blockquote>", window)
	text += fmt.Sprintf(" **T:** %s  \n>  \n", window)
	return html, text
}

func anilistURL(id int64) string {
	return anilistBaseURL + strconv.FormatInt(id, 10)
}

func malURL(id int64) string {
	return myAnimeListBaseURL + strconv.FormatInt(id, 10)
}

// percentage renders a [0,1] similarity as a percent value with exactly two
// decimal places, without the sign.
func percentage(similarity float64) string {
	return fmt.Sprintf("%.2f", similarity*100)
}

// episode renders the episode number, or "-" when the API reported none.
func episode(value *float64) string {
	if ep := episodeOrEmpty(value); ep != "" {
		return ep
	}
	return "-"
}

func episodeOrEmpty(value *float64) string {
	if value == nil || *value == 0 {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

// timeRange renders the match window as wall-clock offsets from zero, the
// hour wrapping past 24h.
func timeRange(from, to float64) string {
	return clock(from) + " - " + clock(to)
}

func clock(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600%24, total%3600/60, total%60)
}
