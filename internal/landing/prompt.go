package landing

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// SystemInstruction is sent as the system message of every generation call.
const SystemInstruction = "You are a conversion copywriter. Output only a JSON object, no commentary."

// ContentTemplate is the JSON shape the model is asked to fill in.
const ContentTemplate = `{
  "hero": {"title": "", "subtitle": "", "cta": ""},
  "benefits": [{"title": "", "text": ""}],
  "process": [{"step_title": "", "step_text": ""}],
  "faq": [{"q": "", "a": ""}],
  "seo": {"title": "", "description": ""}
}`

// Prompt is the pair of messages sent to the model.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt embeds the brief and page type verbatim next to the content
// template. The brief is untrusted text for the model, not markup, so it is
// interpolated as-is.
func BuildPrompt(brief, pageType, locale string) Prompt {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Write the copy for a %s page.\n", pageType)
	sb.WriteString("Brief:\n")
	sb.WriteString(brief)
	sb.WriteString("\n\nRespond strictly with a JSON object matching this template:\n")
	sb.WriteString(ContentTemplate)
	sb.WriteString("\nProvide 3 to 6 benefits, 3 to 5 process steps and 3 to 6 FAQ entries.")
	if name, tag, ok := languageName(locale); ok {
		fmt.Fprintf(sb, "\nWrite all text in %s (%s).", name, tag)
	}
	return Prompt{System: SystemInstruction, User: sb.String()}
}

func languageName(locale string) (string, string, bool) {
	tag, ok := parseLocale(locale)
	if !ok {
		return "", "", false
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		name = tag.String()
	}
	return name, tag.String(), true
}

func parseLocale(locale string) (language.Tag, bool) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return language.Und, false
	}
	tag, err := language.Parse(locale)
	if err != nil || tag == language.Und {
		return language.Und, false
	}
	return tag, true
}

// htmlLang returns the canonical BCP 47 tag for the lang attribute.
func htmlLang(locale string) string {
	tag, ok := parseLocale(locale)
	if !ok {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}
