package groups

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/J-Mash24/worldz1/internal/domain/models"
)

const testPresets = `
regions:
  Europe:
    Benelux:
      countries: [BEL, NLD, LUX]
      desc: Highly integrated Western European economies.
    Baltic States:
      countries: [EST, LVA, LTU]
      desc: Post-Soviet EU members.
  Blocs:
    BRICS:
      countries: [BRA, RUS, IND, CHN, ZAF]
      desc: Large emerging economies.
`

func writePresets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "groups.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolvePreset(t *testing.T) {
	r, err := LoadResolver(writePresets(t, testPresets))
	require.NoError(t, err)

	g, err := r.Resolve(models.Selection{Preset: "brics"})
	require.NoError(t, err)

	assert.Equal(t, "BRICS", g.Name)
	assert.Equal(t, []string{"BRA", "RUS", "IND", "CHN", "ZAF"}, g.Codes)
	assert.NotEmpty(t, g.Description)
}

func TestResolveUnknownPreset(t *testing.T) {
	r, err := LoadResolver(writePresets(t, testPresets))
	require.NoError(t, err)

	_, err = r.Resolve(models.Selection{Preset: "NAFTA"})
	assert.Error(t, err)
}

func TestResolveManualSelection(t *testing.T) {
	r, err := LoadResolver(writePresets(t, testPresets))
	require.NoError(t, err)

	g, err := r.Resolve(models.Selection{Codes: []string{"usa", " CHN ", "usa", "Germany", "DEU"}})
	require.NoError(t, err)

	// Normalized, deduplicated, malformed entries dropped.
	assert.Equal(t, []string{"USA", "CHN", "DEU"}, g.Codes)
}

func TestResolveEmptySelection(t *testing.T) {
	r, err := LoadResolver(writePresets(t, testPresets))
	require.NoError(t, err)

	_, err = r.Resolve(models.Selection{Codes: []string{"x", ""}})
	assert.Error(t, err)
}

func TestPresetsSortedByRegionThenName(t *testing.T) {
	r, err := LoadResolver(writePresets(t, testPresets))
	require.NoError(t, err)

	all := r.Presets()
	require.Len(t, all, 3)
	assert.Equal(t, "BRICS", all[0].Name) // Blocs sorts before Europe
	assert.Equal(t, "Baltic States", all[1].Name)
	assert.Equal(t, "Benelux", all[2].Name)
}

func TestLoadResolverRejectsEmptyPreset(t *testing.T) {
	_, err := LoadResolver(writePresets(t, `
regions:
  Europe:
    Nowhere:
      countries: []
`))
	assert.Error(t, err)
}
