// Package prompt implements the typed template registry spec.md §9 calls
// for: named templates parameterised strictly over {context} and {query},
// validated at load time, with per-intent defaults. Grounded on manifold's
// internal/agent/prompts.DefaultSystemPrompt (plain Go string templates
// filled with fmt.Sprintf), generalized into a registry because this
// system needs many named templates instead of one fixed system prompt.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wealthlens/ragpipe/internal/domain"
)

// allowedPlaceholders is the closed set of template variables spec.md §9
// permits; anything else fails validation at Load time.
var allowedPlaceholders = map[string]struct{}{
	"context": {},
	"query":   {},
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_]+)\}`)

// Template is one named prompt template.
type Template struct {
	Name             string
	Body             string
	DefaultForIntent domain.Intent // "" if this template is not a default
}

func (t Template) placeholders() []string {
	matches := placeholderPattern.FindAllStringSubmatch(t.Body, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Render substitutes {context} and {query} into the template body.
func (t Template) Render(context, query string) string {
	r := strings.NewReplacer("{context}", context, "{query}", query)
	return r.Replace(t.Body)
}

// Registry holds validated templates keyed by name, plus the per-intent
// default lookup.
type Registry struct {
	templates map[string]Template
	defaults  map[domain.Intent]string
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{templates: map[string]Template{}, defaults: map[domain.Intent]string{}}
}

// Load validates and registers templates, returning an error naming the
// first offending template if any references a placeholder other than
// {context}/{query}.
func (r *Registry) Load(templates ...Template) error {
	for _, t := range templates {
		for _, p := range t.placeholders() {
			if _, ok := allowedPlaceholders[p]; !ok {
				return fmt.Errorf("%w: template %q uses placeholder {%s}", domain.ErrTemplateValidation, t.Name, p)
			}
		}
		r.templates[t.Name] = t
		if t.DefaultForIntent != "" {
			r.defaults[t.DefaultForIntent] = t.Name
		}
	}
	return nil
}

// Resolve picks a template by explicit name if given and known, otherwise
// by the intent's registered default.
func (r *Registry) Resolve(name string, intent domain.Intent) (Template, error) {
	if name != "" {
		if t, ok := r.templates[name]; ok {
			return t, nil
		}
		return Template{}, fmt.Errorf("%w: %q", domain.ErrUnknownTemplate, name)
	}
	defName, ok := r.defaults[intent]
	if !ok {
		defName, ok = r.defaults[domain.IntentGeneral]
	}
	if !ok {
		return Template{}, fmt.Errorf("%w: no default for intent %q", domain.ErrUnknownTemplate, intent)
	}
	return r.templates[defName], nil
}

// Get looks up a template by exact name.
func (r *Registry) Get(name string) (Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// IsFormulaFamily reports whether a template name belongs to the esg
// formula-detection family per spec §4.9: a keyword scan over the
// template's own name, not the query text, so detection is deterministic.
func IsFormulaFamily(templateName string) bool {
	for _, kw := range []string{"formula", "calculate", "methodology", "derive", "equation"} {
		if strings.Contains(templateName, kw) {
			return true
		}
	}
	return strings.HasPrefix(templateName, "esg_")
}

// IsMonteCarloFamily reports whether a template belongs to the Monte Carlo
// tone-rule family (median-first, never pessimistic) per spec §4.9.
func IsMonteCarloFamily(templateName string) bool {
	return strings.HasPrefix(templateName, "monte_carlo_")
}
