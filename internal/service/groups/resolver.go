package groups

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/J-Mash24/worldz1/internal/domain/models"
	drepo "github.com/J-Mash24/worldz1/internal/domain/repository"
)

// presetFile is the on-disk shape of the groups data file:
// region -> preset name -> members. Keeping the region/bloc tables in one
// YAML file decouples the data from the resolution logic.
type presetFile struct {
	Regions map[string]map[string]presetEntry `yaml:"regions"`
}

type presetEntry struct {
	Countries   []string `yaml:"countries"`
	Description string   `yaml:"desc"`
}

// Resolver resolves user selections to immutable groups. Presets are loaded
// once at startup; manual selections are normalized ISO-3 code lists.
type Resolver struct {
	presets map[string]models.Group
	regions map[string][]string // region -> preset names, for the listing
}

// LoadResolver reads the presets file and builds a Resolver.
func LoadResolver(path string) (*Resolver, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read groups file: %w", err)
	}

	var f presetFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse groups file: %w", err)
	}

	r := &Resolver{
		presets: make(map[string]models.Group),
		regions: make(map[string][]string),
	}
	for region, entries := range f.Regions {
		for name, e := range entries {
			codes := normalizeCodes(e.Countries)
			if len(codes) == 0 {
				return nil, fmt.Errorf("preset %q has no valid members", name)
			}
			key := presetKey(name)
			if _, dup := r.presets[key]; dup {
				return nil, fmt.Errorf("duplicate preset %q", name)
			}
			r.presets[key] = models.Group{
				Name:        name,
				Description: e.Description,
				Codes:       codes,
			}
			r.regions[region] = append(r.regions[region], name)
		}
	}
	for _, names := range r.regions {
		sort.Strings(names)
	}
	return r, nil
}

// Resolve turns a selection into a Group. Manual code lists are normalized;
// preset keys are matched case-insensitively.
func (r *Resolver) Resolve(sel models.Selection) (models.Group, error) {
	if sel.Preset != "" {
		g, ok := r.presets[presetKey(sel.Preset)]
		if !ok {
			return models.Group{}, fmt.Errorf("unknown preset %q", sel.Preset)
		}
		return g, nil
	}

	codes := normalizeCodes(sel.Codes)
	if len(codes) == 0 {
		return models.Group{}, fmt.Errorf("selection has no valid country codes")
	}
	return models.Group{Name: "Selected countries", Codes: codes}, nil
}

// Presets lists all configured groups, sorted by region then name.
func (r *Resolver) Presets() []models.Group {
	regions := make([]string, 0, len(r.regions))
	for region := range r.regions {
		regions = append(regions, region)
	}
	sort.Strings(regions)

	out := make([]models.Group, 0, len(r.presets))
	for _, region := range regions {
		for _, name := range r.regions[region] {
			out = append(out, r.presets[presetKey(name)])
		}
	}
	return out
}

// normalizeCodes uppercases ISO-3 codes, drops malformed entries and
// duplicates, and preserves first-seen order.
func normalizeCodes(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.ToUpper(strings.TrimSpace(c))
		if len(c) != 3 || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func presetKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

var _ drepo.GroupResolver = (*Resolver)(nil)
