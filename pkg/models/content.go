package models

import (
	"slices"
	"time"
)

const (
	ContentStatusDraft           = "draft"
	ContentStatusGenerating      = "generating"
	ContentStatusReady           = "ready"
	ContentStatusProcessingVideo = "processing_video"
	ContentStatusCompleted       = "completed"
	ContentStatusFailed          = "failed"
)

const (
	ContentTypeNew      = "new"
	ContentTypeImported = "imported"
)

const (
	LanguageEnglish = "english"
	LanguageSpanish = "spanish"
	LanguageBoth    = "both"
)

// ContentRecord is one generated marketing bundle plus the state of its video jobs.
// Video sub-state is namespaced by provider so concurrent jobs never share fields.
type ContentRecord struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Topic        string    `json:"topic"`
	PracticeArea string    `json:"practice_area"`
	Language     string    `json:"language"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Article    string   `json:"article,omitempty"`
	ArticleEs  string   `json:"article_es,omitempty"`
	Script     string   `json:"script,omitempty"`
	ScriptEs   string   `json:"script_es,omitempty"`
	Captions   []string `json:"captions"`
	CaptionsEs []string `json:"captions_es"`
	Hashtags   []string `json:"hashtags"`
	HashtagsEs []string `json:"hashtags_es"`

	Videos map[string]VideoState `json:"videos"`
}

// VideoState is the per-provider video sub-state of a ContentRecord.
type VideoState struct {
	JobID        string    `json:"job_id,omitempty"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	Format       string    `json:"format,omitempty"`
	URL          string    `json:"url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	DriveURL     string    `json:"drive_url,omitempty"`
	Error        string    `json:"error,omitempty"`
	Warning      string    `json:"warning,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can never alias store-owned slices or maps.
func (r ContentRecord) Clone() ContentRecord {
	out := r
	out.Captions = slices.Clone(r.Captions)
	out.CaptionsEs = slices.Clone(r.CaptionsEs)
	out.Hashtags = slices.Clone(r.Hashtags)
	out.HashtagsEs = slices.Clone(r.HashtagsEs)
	if r.Videos != nil {
		out.Videos = make(map[string]VideoState, len(r.Videos))
		for k, v := range r.Videos {
			out.Videos[k] = v
		}
	}
	return out
}

// Video returns the sub-state for provider and whether one exists.
func (r ContentRecord) Video(provider string) (VideoState, bool) {
	v, ok := r.Videos[provider]
	return v, ok
}

// LanguageCode maps the record language selection to the two-letter code used by
// video providers. "both" renders in English.
func (r ContentRecord) LanguageCode() string {
	if r.Language == LanguageSpanish || r.Language == "es" {
		return "es"
	}
	return "en"
}

// ScriptFor returns the script to voice for the given language code, falling back
// to the primary script when no Spanish variant was generated.
func (r ContentRecord) ScriptFor(lang string) string {
	if lang == "es" && r.ScriptEs != "" {
		return r.ScriptEs
	}
	return r.Script
}

// ContentPatch is a shallow merge-patch. Nil fields are left untouched.
// Videos merges field-by-field into each named provider's sub-state only.
type ContentPatch struct {
	Topic        *string `json:"topic,omitempty"`
	PracticeArea *string `json:"practice_area,omitempty"`
	Language     *string `json:"language,omitempty"`
	Status       *string `json:"status,omitempty"`
	Error        *string `json:"error,omitempty"`

	Article    *string  `json:"article,omitempty"`
	ArticleEs  *string  `json:"article_es,omitempty"`
	Script     *string  `json:"script,omitempty"`
	ScriptEs   *string  `json:"script_es,omitempty"`
	Captions   []string `json:"captions,omitempty"`
	CaptionsEs []string `json:"captions_es,omitempty"`
	Hashtags   []string `json:"hashtags,omitempty"`
	HashtagsEs []string `json:"hashtags_es,omitempty"`

	Videos map[string]VideoPatch `json:"videos,omitempty"`
}

// VideoPatch is a partial update of one provider's VideoState.
type VideoPatch struct {
	JobID        *string `json:"job_id,omitempty"`
	Status       *string `json:"status,omitempty"`
	Progress     *int    `json:"progress,omitempty"`
	Format       *string `json:"format,omitempty"`
	URL          *string `json:"url,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	DriveURL     *string `json:"drive_url,omitempty"`
	Error        *string `json:"error,omitempty"`
	Warning      *string `json:"warning,omitempty"`
}

// Apply merges p into r in place. now stamps every touched video sub-state.
func (p ContentPatch) Apply(r *ContentRecord, now time.Time) {
	setString(&r.Topic, p.Topic)
	setString(&r.PracticeArea, p.PracticeArea)
	setString(&r.Language, p.Language)
	setString(&r.Status, p.Status)
	setString(&r.Error, p.Error)
	setString(&r.Article, p.Article)
	setString(&r.ArticleEs, p.ArticleEs)
	setString(&r.Script, p.Script)
	setString(&r.ScriptEs, p.ScriptEs)

	if p.Captions != nil {
		r.Captions = slices.Clone(p.Captions)
	}
	if p.CaptionsEs != nil {
		r.CaptionsEs = slices.Clone(p.CaptionsEs)
	}
	if p.Hashtags != nil {
		r.Hashtags = slices.Clone(p.Hashtags)
	}
	if p.HashtagsEs != nil {
		r.HashtagsEs = slices.Clone(p.HashtagsEs)
	}

	if len(p.Videos) == 0 {
		return
	}
	if r.Videos == nil {
		r.Videos = make(map[string]VideoState, len(p.Videos))
	}
	for provider, vp := range p.Videos {
		v := r.Videos[provider]
		vp.apply(&v)
		v.UpdatedAt = now
		r.Videos[provider] = v
	}
}

func (vp VideoPatch) apply(v *VideoState) {
	setString(&v.JobID, vp.JobID)
	setString(&v.Status, vp.Status)
	if vp.Progress != nil {
		v.Progress = *vp.Progress
	}
	setString(&v.Format, vp.Format)
	setString(&v.URL, vp.URL)
	setString(&v.ThumbnailURL, vp.ThumbnailURL)
	setString(&v.DriveURL, vp.DriveURL)
	setString(&v.Error, vp.Error)
	setString(&v.Warning, vp.Warning)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}
