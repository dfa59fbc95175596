package domain

import (
	"encoding/json"
	"strconv"
)

// LandingContent is the structured copy produced by the model. Every field is
// optional; missing or mistyped values decode as empty sections.
type LandingContent struct {
	Hero     Hero          `json:"hero"`
	Benefits []Benefit     `json:"benefits"`
	Process  []ProcessStep `json:"process"`
	FAQ      []FAQItem     `json:"faq"`
	SEO      SEO           `json:"seo"`
}

type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	CTA      string `json:"cta"`
}

type Benefit struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type ProcessStep struct {
	StepTitle string `json:"step_title"`
	StepText  string `json:"step_text"`
}

type FAQItem struct {
	Q string `json:"q"`
	A string `json:"a"`
}

type SEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ContentFromMap decodes a parsed model object into LandingContent without
// failing: sections that are not objects/arrays are treated as absent and
// array entries that are not objects are skipped. List sections are never nil
// so they always encode as arrays.
func ContentFromMap(obj map[string]any) LandingContent {
	c := LandingContent{
		Benefits: []Benefit{},
		Process:  []ProcessStep{},
		FAQ:      []FAQItem{},
	}
	if obj == nil {
		return c
	}
	if hero, ok := obj["hero"].(map[string]any); ok {
		c.Hero = Hero{
			Title:    stringField(hero, "title"),
			Subtitle: stringField(hero, "subtitle"),
			CTA:      stringField(hero, "cta"),
		}
	}
	for _, item := range objectItems(obj["benefits"]) {
		c.Benefits = append(c.Benefits, Benefit{
			Title: stringField(item, "title"),
			Text:  stringField(item, "text"),
		})
	}
	for _, item := range objectItems(obj["process"]) {
		c.Process = append(c.Process, ProcessStep{
			StepTitle: stringField(item, "step_title"),
			StepText:  stringField(item, "step_text"),
		})
	}
	for _, item := range objectItems(obj["faq"]) {
		c.FAQ = append(c.FAQ, FAQItem{
			Q: stringField(item, "q"),
			A: stringField(item, "a"),
		})
	}
	if seo, ok := obj["seo"].(map[string]any); ok {
		c.SEO = SEO{
			Title:       stringField(seo, "title"),
			Description: stringField(seo, "description"),
		}
	}
	return c
}

// MarshalIndent renders the content as the landing.json artifact.
func (c LandingContent) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func objectItems(v any) []map[string]any {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]map[string]any, 0, len(arr))
	for _, raw := range arr {
		if item, ok := raw.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
