package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"landingsvc/internal/domain"
)

// StaticCompleter returns canned landing copy derived from the brief. It is
// used when no provider credentials are configured so the pipeline still runs
// end to end in development.
type StaticCompleter struct{}

func NewStaticCompleter() *StaticCompleter {
	return &StaticCompleter{}
}

func (s *StaticCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", classifyTransportError(ctx, ProviderStatic, err)
	}
	subject := briefSubject(req.User)
	title := cases.Title(language.Und).String(subject)
	content := domain.LandingContent{
		Hero: domain.Hero{
			Title:    title,
			Subtitle: fmt.Sprintf("Everything you need to know about %s.", subject),
			CTA:      "Get started",
		},
		Benefits: []domain.Benefit{
			{Title: "Fast", Text: "Up and running in minutes."},
			{Title: "Reliable", Text: "Built for day to day use."},
			{Title: "Friendly", Text: "Support from real people."},
		},
		Process: []domain.ProcessStep{
			{StepTitle: "Reach out", StepText: "Tell us what you need."},
			{StepTitle: "Plan", StepText: "We agree on the details."},
			{StepTitle: "Deliver", StepText: "You get the result on time."},
		},
		FAQ: []domain.FAQItem{
			{Q: "How do I start?", A: "Use the button at the top of the page."},
			{Q: "How long does it take?", A: "Most requests are handled within a day."},
			{Q: "Can I change my order?", A: "Yes, until work has started."},
		},
		SEO: domain.SEO{
			Title:       title,
			Description: fmt.Sprintf("Learn more about %s.", subject),
		},
	}
	out, err := json.Marshal(content)
	if err != nil {
		return "", &domain.ProviderError{Provider: ProviderStatic, Err: err}
	}
	return string(out), nil
}

// briefSubject extracts the first line following the "Brief:" marker of a
// generation prompt, falling back to a generic subject.
func briefSubject(user string) string {
	const marker = "Brief:"
	if idx := strings.Index(user, marker); idx >= 0 {
		rest := strings.TrimLeft(user[idx+len(marker):], " \r\n")
		if line, _, _ := strings.Cut(rest, "\n"); strings.TrimSpace(line) != "" {
			return truncateRunes(strings.TrimSpace(line), 80)
		}
	}
	return "our service"
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var _ domain.Completer = (*StaticCompleter)(nil)
