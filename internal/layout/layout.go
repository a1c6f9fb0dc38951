// Package layout holds the static navigation descriptor of the docs shell and
// its JSON view with resolved icons.
package layout

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"git.home.luguber.info/inful/docsite/internal/foundation/normalization"
	"git.home.luguber.info/inful/docsite/internal/icons"
)

// TransparentMode controls when the navigation bar is drawn transparent.
type TransparentMode string

const (
	TransparentTop    TransparentMode = "top"
	TransparentAlways TransparentMode = "always"
	TransparentNone   TransparentMode = "none"
)

var transparentModeNormalizer = normalization.NewNormalizer("transparent mode", map[string]TransparentMode{
	"top":    TransparentTop,
	"always": TransparentAlways,
	"none":   TransparentNone,
}, TransparentNone)

// ActiveMode controls when a link is highlighted as active.
type ActiveMode string

const (
	ActiveURL       ActiveMode = "url"
	ActiveNestedURL ActiveMode = "nested-url"
	ActiveNone      ActiveMode = "none"
)

var activeModeNormalizer = normalization.NewNormalizer("active mode", map[string]ActiveMode{
	"url":        ActiveURL,
	"nested-url": ActiveNestedURL,
	"nested_url": ActiveNestedURL,
	"none":       ActiveNone,
}, ActiveURL)

// Layout is the navigation descriptor shared by every docs page.
type Layout struct {
	Nav       Nav    `yaml:"nav"`
	GitHubURL string `yaml:"github_url,omitempty"`
	Links     []Link `yaml:"links,omitempty"`
}

// Nav configures the navigation bar.
type Nav struct {
	Title           string          `yaml:"title"`
	TransparentMode TransparentMode `yaml:"transparent_mode,omitempty"`
}

// Link is one navigation link.
type Link struct {
	URL      string     `yaml:"url"`
	Text     string     `yaml:"text"`
	Icon     string     `yaml:"icon,omitempty"`
	External bool       `yaml:"external,omitempty"`
	Active   ActiveMode `yaml:"active,omitempty"`
}

var relativeURL = regexp.MustCompile(`^/`)

// Normalize canonicalizes enum values in place. Unknown values are errors.
func (l *Layout) Normalize() error {
	mode, err := transparentModeNormalizer.NormalizeWithError(string(l.Nav.TransparentMode))
	if err != nil {
		return err
	}
	l.Nav.TransparentMode = mode
	for i := range l.Links {
		active, err := activeModeNormalizer.NormalizeWithError(string(l.Links[i].Active))
		if err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
		l.Links[i].Active = active
	}
	return nil
}

// Validate implements validation.Validatable.
func (l Layout) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Nav),
		validation.Field(&l.GitHubURL, is.URL),
		validation.Field(&l.Links),
	)
}

// Validate implements validation.Validatable.
func (n Nav) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.TransparentMode, validation.In(TransparentTop, TransparentAlways, TransparentNone)),
	)
}

// Validate implements validation.Validatable.
func (l Link) Validate() error {
	urlRules := []validation.Rule{validation.Required}
	if l.External {
		urlRules = append(urlRules, is.URL)
	} else {
		urlRules = append(urlRules, validation.Match(relativeURL).Error("must be a site-relative path or an external link"))
	}
	return validation.ValidateStruct(&l,
		validation.Field(&l.URL, urlRules...),
		validation.Field(&l.Text, validation.Required, validation.By(notBlank)),
		validation.Field(&l.Active, validation.In(ActiveURL, ActiveNestedURL, ActiveNone)),
	)
}

func notBlank(value any) error {
	if s, _ := value.(string); strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}

// View is the JSON form of a Layout served to the page shell.
type View struct {
	Nav       NavView    `json:"nav"`
	GitHubURL string     `json:"githubUrl,omitempty"`
	Links     []LinkView `json:"links"`
}

// NavView is the JSON form of Nav.
type NavView struct {
	Title           string          `json:"title"`
	TransparentMode TransparentMode `json:"transparentMode"`
}

// LinkView is the JSON form of Link. Icon is omitted when the name does not
// resolve.
type LinkView struct {
	URL      string        `json:"url"`
	Text     string        `json:"text"`
	Icon     *icons.Handle `json:"icon,omitempty"`
	External bool          `json:"external"`
	Active   ActiveMode    `json:"active"`
}

// View resolves link icons through r and returns the JSON view.
func (l Layout) View(r *icons.Resolver) View {
	v := View{
		Nav:       NavView{Title: l.Nav.Title, TransparentMode: l.Nav.TransparentMode},
		GitHubURL: l.GitHubURL,
		Links:     make([]LinkView, 0, len(l.Links)),
	}
	if v.Nav.TransparentMode == "" {
		v.Nav.TransparentMode = TransparentNone
	}
	for _, link := range l.Links {
		lv := LinkView{URL: link.URL, Text: link.Text, External: link.External, Active: link.Active}
		if lv.Active == "" {
			lv.Active = ActiveURL
		}
		if h, ok := r.Resolve(link.Icon); ok {
			lv.Icon = &h
		}
		v.Links = append(v.Links, lv)
	}
	return v
}
