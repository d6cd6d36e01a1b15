package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// コマンドラインフラグと設定キーの対応
var flagKeys = []struct {
	name  string
	key   string
	usage string
}{
	{"jira-api-base", "JIRA_API_BASE", "JIRAサーバーのURL"},
	{"dir-assembla", "OUTPUT_DIR_ASSEMBLA", "Assemblaエクスポートのディレクトリ"},
	{"dir-jira", "OUTPUT_DIR_JIRA", "JIRA側CSVの入出力ディレクトリ"},
	{"dir-attachments", "OUTPUT_DIR_JIRA_ATTACHMENTS", "添付ファイルのダウンロード先"},
	{"since", "TICKETS_CREATED_ON", "この日付以降に作成されたチケットのみ処理する (YYYY-MM-DD)"},
	{"statuses", "JIRA_API_STATUSES", "ステータスマッピング (from[:to],...)"},
}

// AddFlags は設定値を上書きするフラグを登録します
func AddFlags(fs *pflag.FlagSet) {
	for _, f := range flagKeys {
		fs.String(f.name, "", f.usage)
	}
}

// LoadConfigWithFlags は環境変数を読み込み、指定されたフラグで上書きします
func LoadConfigWithFlags(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := newViper()
	for _, f := range flagKeys {
		if flag := fs.Lookup(f.name); flag != nil {
			if err := v.BindPFlag(f.key, flag); err != nil {
				return nil, &ConfigError{Key: f.key, Message: "フラグを設定に関連付けできません", Err: err}
			}
		}
	}
	return fromViper(v)
}

// newViper は環境変数とデフォルト値を設定した viper を返します
func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("JIRA_SERVER_TYPE", ServerTypeHosted)
	v.SetDefault("JIRA_API_STATUSES", DefaultStatuses)
	v.SetDefault("JIRA_API_TIMEOUT", "30s")
	v.SetDefault("OUTPUT_DIR_ASSEMBLA", defaultDirAssembla)
	v.SetDefault("OUTPUT_DIR_JIRA", defaultDirJira)
	return v
}
