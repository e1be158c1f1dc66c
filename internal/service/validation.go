package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

var (
	usernamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
	colorPattern     = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	fieldNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
)

// problems collects every input error so a request is rejected once with all reasons.
type problems []string

func (p *problems) add(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return domain.Invalid("Validation failed", p...)
}

func (p *problems) text(field, value string, maxLen int) {
	switch {
	case strings.TrimSpace(value) == "":
		p.add("%s is required", field)
	case utf8.RuneCountInString(value) > maxLen:
		p.add("%s must be at most %d characters", field, maxLen)
	}
}

func (p *problems) optionalText(field, value string, maxLen int) {
	if utf8.RuneCountInString(value) > maxLen {
		p.add("%s must be at most %d characters", field, maxLen)
	}
}

func (p *problems) slug(value string) {
	if !domain.ValidSlug(value) {
		p.add("slug must be lowercase letters, digits and single hyphens (max %d characters)", domain.MaxSlugLength)
	}
}

func (p *problems) email(value string) {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || !strings.Contains(value[strings.LastIndex(value, "@"):], ".") {
		p.add("email must be a valid email address")
	}
}

func (p *problems) username(value string) {
	if !usernamePattern.MatchString(value) {
		p.add("username must be 3-50 characters of letters, digits, dot, underscore or hyphen")
	}
}

func (p *problems) color(value string) {
	if value != "" && !colorPattern.MatchString(value) {
		p.add("color must be a hex color such as #RGB or #RRGGBB")
	}
}

func (p *problems) role(value domain.Role) {
	if !value.Valid() {
		p.add("role must be one of OWNER, EDITOR, VIEWER")
	}
}

// fields checks a content type schema.
func (p *problems) fields(defs []domain.FieldDefinition) {
	seen := make(map[string]bool, len(defs))
	for i, f := range defs {
		at := fmt.Sprintf("fields[%d]", i)
		if !fieldNamePattern.MatchString(f.Name) {
			p.add("%s.name must start with a letter and contain only letters, digits and underscores", at)
		} else if seen[f.Name] {
			p.add("%s.name %q is duplicated", at, f.Name)
		}
		seen[f.Name] = true
		if strings.TrimSpace(f.Label) == "" {
			p.add("%s.label is required", at)
		}
		if !f.Type.Valid() {
			p.add("%s.type %q is not a supported field type", at, f.Type)
		} else if f.Type.NeedsOptions() && len(f.Options) == 0 {
			p.add("%s.options must list at least one choice for %s fields", at, f.Type)
		}
	}
}

// slugFor returns the explicit slug, or one derived from source when none was given.
func slugFor(explicit, source string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	return domain.Slugify(source)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
