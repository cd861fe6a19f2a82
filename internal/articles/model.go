package articles

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusDraft     = "draft"
	DefaultCategory = "General"

	defaultTargetWords = 1500
)

// lengthBuckets maps the named length options offered by the creation
// wizard to concrete word targets.
var lengthBuckets = map[string]int{
	"short":         1000,
	"medium":        1500,
	"long":          2200,
	"comprehensive": 3000,
}

// Article matches the articles table schema. Derived fields (word_count,
// seo_score) are set at creation and never recomputed in this flow.
type Article struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Status    string          `json:"status"`
	WordCount int             `json:"word_count"`
	SEOScore  int             `json:"seo_score"`
	Category  string          `json:"category"`
	Keywords  []string        `json:"keywords"`
	Tone      string          `json:"tone"`
	Audience  string          `json:"audience"`
	Citations json.RawMessage `json:"citations"`
	CreatedAt time.Time       `json:"created_at"`
}

// TargetLength accepts either a number or a named bucket ("short",
// "medium", "long", "comprehensive") in the request JSON.
type TargetLength int

func (l *TargetLength) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*l = TargetLength(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if words, ok := lengthBuckets[s]; ok {
		*l = TargetLength(words)
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*l = TargetLength(n)
		return nil
	}

	// Unknown bucket names fall back to the default target
	*l = 0
	return nil
}

// Words resolves the target to a usable word count.
func (l TargetLength) Words() int {
	if l <= 0 {
		return defaultTargetWords
	}
	return int(l)
}

type GenerateRequest struct {
	Topic       string       `json:"topic" validate:"required,min=1,max=500"`
	Audience    string       `json:"audience" validate:"omitempty,oneof=beginners professionals entrepreneurs students general"`
	Tone        string       `json:"tone" validate:"omitempty,oneof=professional conversational authoritative friendly academic"`
	Length      TargetLength `json:"length"`
	Keywords    []string     `json:"keywords" validate:"max=20,dive,min=1,max=100"`
	Context     string       `json:"context" validate:"max=5000"`
	APIProvider string       `json:"apiProvider" validate:"omitempty,oneof=deepseek openrouter"`
}

// GeneratedArticle is the published response shape of a successful
// generation; the dashboard client depends on these exact fields.
type GeneratedArticle struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	WordCount int       `json:"word_count"`
	SEOScore  int       `json:"seo_score"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type GenerateResponse struct {
	Article GeneratedArticle `json:"article"`
}

type ListParams struct {
	Page     int
	PageSize int
}

func DefaultListParams() ListParams {
	return ListParams{
		Page:     1,
		PageSize: 20,
	}
}
