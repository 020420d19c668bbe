package ai

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/kiranshivaraju/contentdesk/internal/config"
)

type promptKind string

const (
	promptArticle  promptKind = "article"
	promptScript   promptKind = "script"
	promptCaptions promptKind = "captions"
	promptHashtags promptKind = "hashtags"
	promptIdeas    promptKind = "ideas"
)

// promptData is the input to every prompt template.
type promptData struct {
	Firm         config.FirmProfile
	Topic        string
	PracticeArea string
	Spanish      bool
}

var prompts = template.Must(template.New("prompts").Parse(`
{{define "article"}}You are a legal content writer for {{.Firm.FirmName}}, an experienced law firm with {{.Firm.Experience}} of practice.

{{if .Spanish}}Write this article in professional, formal Spanish (using "usted" form):{{else}}Write this article in English:{{end}}

Topic: {{.Topic}}
Practice Area: {{.PracticeArea}}

Write a comprehensive, professional blog article (800-1200 words) that:
1. Has an engaging title
2. Includes an introduction that hooks the reader
3. Covers the topic thoroughly with clear sections
4. Uses professional but approachable language
5. Provides valuable information for potential clients
6. Includes a call-to-action at the end mentioning "{{.Firm.FirmName}}" and encouraging readers to contact the office for a consultation
7. Mentions the service area: {{.Firm.ServiceArea}}
8. Is SEO-friendly and informative

The tone should be professional, trustworthy, and educational. Focus on helping potential clients understand their legal situation.{{end}}

{{define "script"}}You are creating a short video script for {{.Firm.FirmName}}.

{{if .Spanish}}Write this script in professional, formal Spanish (using "usted" form):{{else}}Write this script in English:{{end}}

Topic: {{.Topic}}
Practice Area: {{.PracticeArea}}

Create a SHORT 30-40 second video script (approximately 75-100 words) that:
1. Starts with ONE clear, simple hook question or statement about PEOPLE or FAMILY
2. Makes 2-3 key points focusing on PEOPLE, FAMILY, and RELATIONSHIPS
3. Speaks directly to the viewer - use "you" and "your family"
4. Uses short, clear sentences that are easy to understand when spoken aloud
5. Ends with: "Call {{.Firm.FirmName}} at {{.Firm.Phone}} for help"
6. Is designed to be read aloud clearly by an AI voiceover

The script must be people-focused:
- Keep it concise, 75-100 words maximum
- Talk about your family, your loved ones, protecting people you care about, peace of mind
- Never mention documents, paperwork, forms, files, wills, trusts or signing
- Say "protect your family" rather than "create a will"
- Use simple, warm, conversational language
- No legal jargon

Format: Plain spoken words only.{{end}}

{{define "captions"}}Create 5 different social media captions for Facebook/Instagram about this topic:

{{if .Spanish}}Write these captions in professional Spanish:{{else}}Write these captions in English:{{end}}

Topic: {{.Topic}}
Practice Area: {{.PracticeArea}}
Law Firm: {{.Firm.FirmName}}

Each caption should:
1. Be 50-150 characters
2. Be engaging and professional
3. Include a call-to-action
4. Be slightly different from each other (different angles/approaches)
5. Work well with a video post

Format: Return exactly 5 captions, one per line, numbered 1-5.{{end}}

{{define "hashtags"}}Generate 8-10 relevant hashtags for social media about:

{{if .Spanish}}Generate hashtags in Spanish:{{else}}Generate hashtags in English:{{end}}

Topic: {{.Topic}}
Practice Area: {{.PracticeArea}}

Mix of:
- General legal/law firm hashtags
- Practice area specific hashtags
- Location-based hashtags ({{.Firm.Location}})

Format: Return only the hashtags, space-separated, each starting with #{{end}}

{{define "ideas"}}Generate 10 engaging content topic ideas for a law firm's blog and social media.

Practice Area: {{.PracticeArea}}
Location: {{.Firm.ServiceArea}}

Requirements:
1. Topics should be practical and helpful for potential clients
2. Mix of educational content and common questions
3. Should be timely and relevant
4. Each topic should work as both a blog article and social media video
5. Include some seasonal/timely topics when relevant
6. Focus on California law when applicable

Format: Return exactly 10 topic ideas, one per line, numbered 1-10. Make them specific and actionable.{{end}}
`))

func renderPrompt(kind promptKind, data promptData) (string, error) {
	var sb strings.Builder
	if err := prompts.ExecuteTemplate(&sb, string(kind), data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", kind, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// disclaimer returns the firm disclaimer of the given kind for lang, falling
// back to English.
func disclaimer(firm config.FirmProfile, kind, lang string) string {
	var texts map[string]string
	switch kind {
	case "article":
		texts = firm.Disclaimers.Article
	case "script":
		texts = firm.Disclaimers.Script
	case "social":
		texts = firm.Disclaimers.Social
	}
	if d, ok := texts[lang]; ok && d != "" {
		return d
	}
	return texts["en"]
}
