package booking

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Package is a priced service within a category.
type Package struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
}

// Category groups packages; the form's package select is disabled until a
// category is chosen.
type Category struct {
	ID       string    `yaml:"id"`
	Title    string    `yaml:"title"`
	Packages []Package `yaml:"packages"`
}

// Option is an id/label pair for simple selects.
type Option struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Catalog is the set of choices the booking form offers.
type Catalog struct {
	Categories    []Category `yaml:"categories"`
	LocationTypes []Option   `yaml:"location_types"`
	Distances     []Option   `yaml:"distances"`
}

// ParseCatalog decodes and checks a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, errors.New("catalog: no categories")
	}
	seen := map[string]bool{}
	for _, cat := range c.Categories {
		if cat.ID == "" || cat.Title == "" {
			return nil, errors.New("catalog: category needs id and title")
		}
		if seen[cat.ID] {
			return nil, fmt.Errorf("catalog: duplicate category %q", cat.ID)
		}
		seen[cat.ID] = true
		if len(cat.Packages) == 0 {
			return nil, fmt.Errorf("catalog: category %q has no packages", cat.ID)
		}
	}
	if _, ok := findOption(c.LocationTypes, LocationMobile); !ok {
		return nil, errors.New("catalog: mobile location type missing")
	}
	return &c, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog { return defaultCatalog() }

// Category looks up a category by id.
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// Package looks up a package within a category.
func (c *Catalog) Package(categoryID, packageID string) (Package, bool) {
	cat, ok := c.Category(categoryID)
	if !ok {
		return Package{}, false
	}
	for _, p := range cat.Packages {
		if p.ID == packageID {
			return p, true
		}
	}
	return Package{}, false
}

// DefaultPackage is the package preselected when categoryID is chosen:
// CustomPackage for enquiry-only categories, otherwise none.
func (c *Catalog) DefaultPackage(categoryID string) string {
	cat, ok := c.Category(categoryID)
	if ok && len(cat.Packages) == 1 && cat.Packages[0].ID == CustomPackage {
		return CustomPackage
	}
	return ""
}

// ServiceLabel composes the single human-readable service string sent to
// the API, e.g. "Valeting – Full valet (From £120)".
func (c *Catalog) ServiceLabel(categoryID, packageID string) string {
	cat, ok := c.Category(categoryID)
	if !ok {
		return ""
	}
	if packageID == CustomPackage {
		return cat.Title
	}
	p, ok := c.Package(categoryID, packageID)
	if !ok {
		return ""
	}
	label := cat.Title + " – " + p.Name
	if p.Price != "" {
		label += " (" + p.Price + ")"
	}
	return label
}

// CategoryTitle returns the title for id, or "" if unknown.
func (c *Catalog) CategoryTitle(id string) string {
	cat, _ := c.Category(id)
	return cat.Title
}

// LocationLabel returns the display label for a location type id.
func (c *Catalog) LocationLabel(id string) string {
	o, _ := findOption(c.LocationTypes, id)
	return o.Label
}

// DistanceLabel returns the display label for a distance tier id.
func (c *Catalog) DistanceLabel(id string) string {
	o, _ := findOption(c.Distances, id)
	return o.Label
}

func findOption(opts []Option, id string) (Option, bool) {
	for _, o := range opts {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}
