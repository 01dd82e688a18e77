// Package locale negotiates the content language of a request.
package locale

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// Matcher picks one of the supported locales for a request. The first
// supported locale is the fallback.
type Matcher struct {
	supported []string
	matcher   language.Matcher
}

func NewMatcher(supported []string) *Matcher {
	if len(supported) == 0 {
		supported = []string{"fr"}
	}
	tags := make([]language.Tag, 0, len(supported))
	names := make([]string, 0, len(supported))
	for _, s := range supported {
		tag, err := language.Parse(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		base, _ := tag.Base()
		tags = append(tags, tag)
		names = append(names, base.String())
	}
	if len(tags) == 0 {
		tags = []language.Tag{language.French}
		names = []string{"fr"}
	}
	return &Matcher{supported: names, matcher: language.NewMatcher(tags)}
}

func (m *Matcher) Supported() []string {
	return append([]string(nil), m.supported...)
}

// Match resolves an explicit locale or an Accept-Language header value.
func (m *Matcher) Match(prefs ...string) string {
	var tags []language.Tag
	for _, p := range prefs {
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return m.supported[0]
	}
	_, idx, conf := m.matcher.Match(tags...)
	if conf == language.No {
		return m.supported[0]
	}
	return m.supported[idx]
}

// FromRequest prefers the ?lang= query parameter over Accept-Language.
func (m *Matcher) FromRequest(r *http.Request) string {
	return m.Match(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"))
}
