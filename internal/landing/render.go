package landing

import (
	"html"
	"strings"

	"landingsvc/internal/domain"
)

// RenderOptions tunes document-level attributes of the rendered page.
type RenderOptions struct {
	Locale string
}

const pageStyle = `body{margin:0;font-family:system-ui,-apple-system,"Segoe UI",Roboto,sans-serif;color:#1f2933;line-height:1.6}
main{max-width:960px;margin:0 auto;padding:0 1.5rem}
.hero{padding:4rem 0 3rem;text-align:center}
.hero h1{font-size:2.5rem;margin:0 0 1rem}
.cta{display:inline-block;margin-top:1.5rem;padding:.75rem 1.75rem;border-radius:6px;background:#1a73e8;color:#fff;text-decoration:none}
section{padding:2rem 0}
.grid{display:grid;grid-template-columns:repeat(auto-fit,minmax(220px,1fr));gap:1.25rem}
.card{padding:1.25rem;border:1px solid #e4e7eb;border-radius:8px}
.steps{counter-reset:step;list-style:none;padding:0}
.steps li{margin-bottom:1rem}
details{border-bottom:1px solid #e4e7eb;padding:.75rem 0}`

// Render maps content to a standalone HTML document. Every interpolated value
// is escaped. The hero is always present; list sections appear only when they
// have entries. Output is a pure function of the input.
func Render(c domain.LandingContent, opts RenderOptions) string {
	sb := &strings.Builder{}
	title := c.SEO.Title
	if title == "" {
		title = c.Hero.Title
	}

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString(`<html lang="` + esc(htmlLang(opts.Locale)) + "\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	sb.WriteString("<title>" + esc(title) + "</title>\n")
	if c.SEO.Description != "" {
		sb.WriteString(`<meta name="description" content="` + esc(c.SEO.Description) + "\">\n")
	}
	sb.WriteString("<style>\n" + pageStyle + "\n</style>\n")
	sb.WriteString("</head>\n<body>\n<main>\n")

	renderHero(sb, c.Hero)
	if len(c.Benefits) > 0 {
		renderBenefits(sb, c.Benefits)
	}
	if len(c.Process) > 0 {
		renderProcess(sb, c.Process)
	}
	if len(c.FAQ) > 0 {
		renderFAQ(sb, c.FAQ)
	}

	sb.WriteString("</main>\n</body>\n</html>\n")
	return sb.String()
}

func renderHero(sb *strings.Builder, h domain.Hero) {
	sb.WriteString("<section class=\"hero\">\n")
	sb.WriteString("<h1>" + esc(h.Title) + "</h1>\n")
	if h.Subtitle != "" {
		sb.WriteString("<p class=\"subtitle\">" + esc(h.Subtitle) + "</p>\n")
	}
	if h.CTA != "" {
		sb.WriteString("<a class=\"cta\" href=\"#contact\">" + esc(h.CTA) + "</a>\n")
	}
	sb.WriteString("</section>\n")
}

func renderBenefits(sb *strings.Builder, items []domain.Benefit) {
	sb.WriteString("<section class=\"benefits\">\n<div class=\"grid\">\n")
	for _, b := range items {
		sb.WriteString("<div class=\"card\">\n")
		sb.WriteString("<h3>" + esc(b.Title) + "</h3>\n")
		sb.WriteString("<p>" + esc(b.Text) + "</p>\n")
		sb.WriteString("</div>\n")
	}
	sb.WriteString("</div>\n</section>\n")
}

func renderProcess(sb *strings.Builder, steps []domain.ProcessStep) {
	sb.WriteString("<section class=\"process\">\n<ol class=\"steps\">\n")
	for _, s := range steps {
		sb.WriteString("<li>\n")
		sb.WriteString("<h3>" + esc(s.StepTitle) + "</h3>\n")
		sb.WriteString("<p>" + esc(s.StepText) + "</p>\n")
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ol>\n</section>\n")
}

func renderFAQ(sb *strings.Builder, items []domain.FAQItem) {
	sb.WriteString("<section class=\"faq\">\n")
	for _, f := range items {
		sb.WriteString("<details>\n")
		sb.WriteString("<summary>" + esc(f.Q) + "</summary>\n")
		sb.WriteString("<p>" + esc(f.A) + "</p>\n")
		sb.WriteString("</details>\n")
	}
	sb.WriteString("</section>\n")
}

func esc(s string) string {
	return html.EscapeString(s)
}
