package extract

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Style selects the strategy cascade applied to an origin's documents.
type Style string

const (
	// StyleItemized is a bulleted order listing with a sentinel fallback.
	StyleItemized Style = "itemized"
	// StyleInvoice is a tabular invoice without a sentinel fallback.
	StyleInvoice Style = "invoice"
)

// Origin is a recognized sender category.
type Origin struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Style    Style    `yaml:"style"`
}

// DefaultOrigins returns the built-in origin table. Order matters: the
// first origin whose keyword appears in the sender wins.
func DefaultOrigins() []Origin {
	return []Origin{
		{Name: "amazon", Keywords: []string{"amazon.in", "amazon"}, Style: StyleItemized},
		{Name: "croma", Keywords: []string{"croma.com", "croma"}, Style: StyleInvoice},
	}
}

// LoadOrigins reads an origin table from a YAML file of the form
//
//	origins:
//	  - name: amazon
//	    keywords: [amazon.in, amazon]
//	    style: itemized
func LoadOrigins(path string) ([]Origin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "origins: read %s", path)
	}

	var file struct {
		Origins []Origin `yaml:"origins"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "origins: parse %s", path)
	}
	if len(file.Origins) == 0 {
		return nil, eris.Errorf("origins: %s defines no origins", path)
	}
	for _, o := range file.Origins {
		if o.Name == "" || len(o.Keywords) == 0 {
			return nil, eris.Errorf("origins: entry %q needs a name and keywords", o.Name)
		}
		if o.Style != StyleItemized && o.Style != StyleInvoice {
			return nil, eris.Errorf("origins: %s has unknown style %q", o.Name, o.Style)
		}
	}
	return file.Origins, nil
}

// Resolve matches a sender against the origin table case-insensitively.
func Resolve(origins []Origin, sender string) (Origin, bool) {
	sender = strings.ToLower(sender)
	for _, o := range origins {
		for _, kw := range o.Keywords {
			if kw != "" && strings.Contains(sender, strings.ToLower(kw)) {
				return o, true
			}
		}
	}
	return Origin{}, false
}
