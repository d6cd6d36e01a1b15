package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusMapping(t *testing.T) {
	m, err := ParseStatusMapping("New:To Do, In Progress ,Invalid:Done,Done")
	require.NoError(t, err)

	assert.Equal(t, StatusMapping{
		"new":         "To Do",
		"in progress": "In Progress",
		"invalid":     "Done",
		"done":        "Done",
	}, m)

	to, ok := m.Lookup("INVALID")
	assert.True(t, ok)
	assert.Equal(t, "Done", to)

	assert.Equal(t, []string{"Blocked"}, m.Missing([]string{"New", "Blocked", "done"}))
}

func TestParseStatusMappingErrors(t *testing.T) {
	_, err := ParseStatusMapping("")
	assert.Error(t, err)

	_, err = ParseStatusMapping(":Done")
	assert.Error(t, err)
}

func TestDefaultStatusesParse(t *testing.T) {
	m, err := ParseStatusMapping(DefaultStatuses)
	require.NoError(t, err)
	assert.Empty(t, m.Missing([]string{"New", "In Progress", "Done", "Invalid", "Blocked", "Testable", "Ready for acceptance"}))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2017-03-01", time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2017-03-01T10:20:30Z", time.Date(2017, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"2017-03-01T10:20:30.000Z", time.Date(2017, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"2017-03-01 10:20:30 UTC", time.Date(2017, 3, 1, 10, 20, 30, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, got.Time.Equal(tt.want), "%s: got %s", tt.in, got.Time)
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	v.SetDefault("JIRA_SERVER_TYPE", ServerTypeHosted)
	v.SetDefault("JIRA_API_TIMEOUT", "30s")
	v.SetDefault("OUTPUT_DIR_JIRA", "out/jira")
	v.Set("JIRA_API_BASE", "https://jira.example.com/")
	v.Set("ASSEMBLA_TYPES_EXTRA", "Bug, Story")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "https://jira.example.com", cfg.JiraAPIBase)
	assert.Equal(t, 30*time.Second, cfg.JiraAPITimeout)
	assert.Equal(t, "out/jira/attachments", cfg.OutputDirJiraAttachments)
	assert.Equal(t, []string{"bug", "story"}, cfg.AssemblaTypesExtra)
	assert.False(t, cfg.IsCloud())
}

func TestFromViperBadTimeout(t *testing.T) {
	v := viper.New()
	v.Set("JIRA_API_TIMEOUT", "soon")

	_, err := fromViper(v)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "JIRA_API_TIMEOUT", cfgErr.Key)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		JiraAPIBase:          "https://jira.example.com",
		JiraAPIAdminUser:     "admin",
		JiraAPIAdminPassword: "secret",
		JiraServerType:       ServerTypeHosted,
	}
	assert.NoError(t, cfg.Validate())

	cfg.JiraServerType = ServerTypeCloud
	assert.Error(t, cfg.Validate())

	cfg.JiraAPIKey = "token"
	assert.NoError(t, cfg.Validate())

	cfg.JiraServerType = "onprem"
	assert.Error(t, cfg.Validate())

	cfg.JiraServerType = ServerTypeHosted
	cfg.JiraAPIBase = ""
	assert.Error(t, cfg.Validate())
}

func TestTicketsCreatedOnTime(t *testing.T) {
	cfg := &Config{}
	_, ok, err := cfg.TicketsCreatedOnTime()
	require.NoError(t, err)
	assert.False(t, ok)

	cfg.TicketsCreatedOn = "2018-01-15"
	cutoff, ok, err := cfg.TicketsCreatedOnTime()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2018-01-15", cutoff.Format("2006-01-02"))

	cfg.TicketsCreatedOn = "15/01/2018"
	_, _, err = cfg.TicketsCreatedOnTime()
	assert.Error(t, err)
}

func TestLoadConfigWithFlags(t *testing.T) {
	t.Setenv("OUTPUT_DIR_ASSEMBLA", "env/assembla")
	t.Setenv("OUTPUT_DIR_JIRA", "env/jira")
	t.Setenv("OUTPUT_DIR_JIRA_ATTACHMENTS", "")
	t.Setenv("TICKETS_CREATED_ON", "")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--dir-jira", "flag/jira", "--since", "2017-01-01"}))

	cfg, err := LoadConfigWithFlags(fs)
	require.NoError(t, err)

	// 指定されなかったフラグは環境変数の値を使う
	assert.Equal(t, "env/assembla", cfg.OutputDirAssembla)
	assert.Equal(t, "flag/jira", cfg.OutputDirJira)
	assert.Equal(t, "flag/jira/attachments", cfg.OutputDirJiraAttachments)
	assert.Equal(t, "2017-01-01", cfg.TicketsCreatedOn)
}
