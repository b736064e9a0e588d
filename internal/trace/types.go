package trace

// Response is the parsed body of a trace.moe search call. Error and Result
// are pointers so the decode boundary can tell an absent key from an empty
// value; a body carrying neither key is rejected as malformed.
type Response struct {
	FrameCount int64    `json:"frameCount"`
	Error      *string  `json:"error"`
	Result     *[]Match `json:"result"`
}

// ErrorMessage returns the API error string, or "" when the field is absent
// or empty.
func (r Response) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// Matches returns the ranked result list, never nil.
func (r Response) Matches() []Match {
	if r.Result == nil {
		return nil
	}
	return *r.Result
}

// Match is one ranked search hit. The API orders results by similarity
// descending; the order is preserved as-is.
type Match struct {
	Anilist    AnilistInfo `json:"anilist"`
	Filename   string      `json:"filename"`
	Episode    *float64    `json:"episode"`
	From       float64     `json:"from"`
	To         float64     `json:"to"`
	Similarity float64     `json:"similarity"`
	Video      string      `json:"video"`
	Image      string      `json:"image"`
}

// AnilistInfo carries the related-catalog metadata requested via the
// anilistInfo flag.
type AnilistInfo struct {
	ID       int64    `json:"id"`
	IDMal    int64    `json:"idMal"`
	Title    Title    `json:"title"`
	Synonyms []string `json:"synonyms"`
	IsAdult  bool     `json:"isAdult"`
}

type Title struct {
	Native  string  `json:"native"`
	Romaji  string  `json:"romaji"`
	English *string `json:"english"`
}

// EnglishTitle returns the English title, or "" when absent.
func (t Title) EnglishTitle() string {
	if t.English == nil {
		return ""
	}
	return *t.English
}

// Quota is the account status returned by the /me endpoint.
type Quota struct {
	ID          string `json:"id"`
	Priority    int    `json:"priority"`
	Concurrency int    `json:"concurrency"`
	Quota       int64  `json:"quota"`
	QuotaUsed   int64  `json:"quotaUsed"`
}
