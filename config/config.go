package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// JIRA API設定
	JiraAPIBase          string
	JiraAPIAdminUser     string
	JiraAPIAdminPassword string
	JiraAPIAdminEmail    string
	JiraServerType       string
	JiraAPIKey           string
	JiraAPIUserPassword  string
	JiraAPITimeout       time.Duration

	// ステータスマッピング (from[:to],...)
	JiraAPIStatuses string

	// Assembla API設定 (添付ファイルのダウンロード用)
	AssemblaAPIKey    string
	AssemblaAPISecret string

	// ファイルパス
	OutputDirAssembla        string
	OutputDirJira            string
	OutputDirJiraAttachments string

	// フィルタ設定
	TicketsCreatedOn   string
	AssemblaTypesExtra []string
}

// サーバータイプ
const (
	ServerTypeHosted = "hosted"
	ServerTypeCloud  = "cloud"
)

// DefaultStatuses はJIRA_API_STATUSESが未設定の場合のマッピングです
const DefaultStatuses = "New:To Do,In Progress,Blocked:In Progress,Testable:In Progress,Ready for Acceptance:In Progress,Done,Invalid:Done"

var (
	defaultDirAssembla = filepath.Join("data", "assembla")
	defaultDirJira     = filepath.Join("data", "jira")
)

// デフォルトで無視するサマリーのタイプ接頭辞
var defaultTypesExtra = []string{"bug", "chore", "epic", "feature", "spike", "story", "task"}

// LoadConfig は環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込む
	_ = godotenv.Load()

	return fromViper(newViper())
}

func fromViper(v *viper.Viper) (*Config, error) {
	timeout, err := time.ParseDuration(v.GetString("JIRA_API_TIMEOUT"))
	if err != nil {
		return nil, &ConfigError{Key: "JIRA_API_TIMEOUT", Message: "不正な時間指定です", Err: err}
	}

	cfg := &Config{
		JiraAPIBase:          strings.TrimRight(v.GetString("JIRA_API_BASE"), "/"),
		JiraAPIAdminUser:     v.GetString("JIRA_API_ADMIN_USER"),
		JiraAPIAdminPassword: v.GetString("JIRA_API_ADMIN_PASSWORD"),
		JiraAPIAdminEmail:    v.GetString("JIRA_API_ADMIN_EMAIL"),
		JiraServerType:       strings.ToLower(v.GetString("JIRA_SERVER_TYPE")),
		JiraAPIKey:           v.GetString("JIRA_API_KEY"),
		JiraAPIUserPassword:  v.GetString("JIRA_API_USER_PASSWORD"),
		JiraAPITimeout:       timeout,
		JiraAPIStatuses:      v.GetString("JIRA_API_STATUSES"),
		AssemblaAPIKey:       v.GetString("ASSEMBLA_API_KEY"),
		AssemblaAPISecret:    v.GetString("ASSEMBLA_API_SECRET"),
		OutputDirAssembla:    v.GetString("OUTPUT_DIR_ASSEMBLA"),
		OutputDirJira:        v.GetString("OUTPUT_DIR_JIRA"),
		TicketsCreatedOn:     strings.TrimSpace(v.GetString("TICKETS_CREATED_ON")),
		AssemblaTypesExtra:   defaultTypesExtra,
	}

	cfg.OutputDirJiraAttachments = v.GetString("OUTPUT_DIR_JIRA_ATTACHMENTS")
	if cfg.OutputDirJiraAttachments == "" {
		cfg.OutputDirJiraAttachments = filepath.Join(cfg.OutputDirJira, "attachments")
	}

	if extra := v.GetString("ASSEMBLA_TYPES_EXTRA"); extra != "" {
		cfg.AssemblaTypesExtra = splitList(extra)
	}

	return cfg, nil
}

// Validate はJIRA APIを呼び出すツールに必要な設定を確認します
func (c *Config) Validate() error {
	if c.JiraAPIBase == "" {
		return &ConfigError{Key: "JIRA_API_BASE", Message: "必須項目です"}
	}
	if c.JiraAPIAdminUser == "" {
		return &ConfigError{Key: "JIRA_API_ADMIN_USER", Message: "必須項目です"}
	}
	if c.JiraAPIAdminPassword == "" {
		return &ConfigError{Key: "JIRA_API_ADMIN_PASSWORD", Message: "必須項目です"}
	}
	switch c.JiraServerType {
	case ServerTypeHosted:
	case ServerTypeCloud:
		if c.JiraAPIKey == "" {
			return &ConfigError{Key: "JIRA_API_KEY", Message: "cloud の場合は必須項目です"}
		}
	default:
		return &ConfigError{Key: "JIRA_SERVER_TYPE", Message: fmt.Sprintf("'%s' は hosted または cloud ではありません", c.JiraServerType)}
	}
	return nil
}

// IsCloud はJIRA Cloudに接続する場合にtrueを返します
func (c *Config) IsCloud() bool {
	return c.JiraServerType == ServerTypeCloud
}

// TicketsCreatedOnTime はTICKETS_CREATED_ONを解析します。未設定の場合はゼロ値とfalseを返します
func (c *Config) TicketsCreatedOnTime() (utc.Time, bool, error) {
	if c.TicketsCreatedOn == "" {
		return utc.Time{}, false, nil
	}
	t, err := ParseDate(c.TicketsCreatedOn)
	if err != nil {
		return utc.Time{}, false, &ConfigError{Key: "TICKETS_CREATED_ON", Message: "日付を解析できません", Err: err}
	}
	return t, true, nil
}

// Assembla/JIRAのCSVで使われる日付フォーマット
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02 15:04:05 UTC",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate はCSVやenvで使われる日付文字列をUTCとして解析します
func ParseDate(s string) (utc.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := utc.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return utc.Time{}, fmt.Errorf("日付フォーマットが不正です: '%s'", s)
}

// ConfigError は設定値の不備を表します
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("設定エラー %s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("設定エラー %s: %s", e.Key, e.Message)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
