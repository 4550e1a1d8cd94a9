package rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLimitsAreConsistent(t *testing.T) {
	require.NoError(t, DefaultLimits().Check())
}

func TestLoadLimitsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	doc := "auto_approval: 250\nmanager: \"12000.50\"\ndue_soon_window: 48h\ncurrencies: [USD, EUR]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	limits, err := LoadLimitsFile(path, DefaultLimits())
	require.NoError(t, err)

	assert.True(t, limits.AutoApproval.Equal(decimal.NewFromInt(250)))
	assert.True(t, limits.Manager.Equal(decimal.RequireFromString("12000.50")))
	assert.True(t, limits.Supervisor.Equal(decimal.NewFromInt(2000)), "keys absent from the file keep defaults")
	assert.Equal(t, 48*time.Hour, limits.DueSoonWindow)
	assert.Equal(t, []string{"USD", "EUR"}, limits.Currencies)
}

func TestLoadLimitsFile_RejectsInconsistentTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("manager: 100\n"), 0o600))

	base := DefaultLimits()
	limits, err := LoadLimitsFile(path, base)
	require.Error(t, err)
	assert.True(t, limits.Manager.Equal(base.Manager))
}
