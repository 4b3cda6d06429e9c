package cli

import (
	"testing"

	"github.com/staabm/platformsh-cli/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestResolveAliasGroup(t *testing.T) {
	cfg := config.Defaults()
	cfgWithGroup := config.Defaults()
	cfgWithGroup.Drush.AliasGroup = "from-config"

	tests := []struct {
		name string
		flag string
		proj *config.Project
		cfg  *config.Config
		want string
	}{
		{
			name: "flag wins",
			flag: "from-flag",
			proj: &config.Project{ID: "abc123", AliasGroup: "from-project"},
			cfg:  cfgWithGroup,
			want: "from-flag",
		},
		{
			name: "project file beats config",
			proj: &config.Project{ID: "abc123", AliasGroup: "from-project"},
			cfg:  cfgWithGroup,
			want: "from-project",
		},
		{
			name: "config beats project ID",
			proj: &config.Project{ID: "abc123"},
			cfg:  cfgWithGroup,
			want: "from-config",
		},
		{
			name: "project ID as fallback",
			proj: &config.Project{ID: "abc123"},
			cfg:  cfg,
			want: "abc123",
		},
		{
			name: "nil project tolerated",
			cfg:  cfg,
			want: "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveAliasGroup(tt.flag, tt.proj, tt.cfg, "abc123")
			assert.Equal(t, tt.want, got)
		})
	}
}
