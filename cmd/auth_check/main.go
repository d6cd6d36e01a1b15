package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"assemblatojira/api"
	"assemblatojira/config"
	"assemblatojira/utils"
)

var rootCmd = &cobra.Command{
	Use:   "auth_check",
	Short: "JIRA認証確認ツール",
	Long: `JIRA認証確認ツール

このツールはJIRA APIの管理者認証情報が正しく設定されているかを確認します。
認証が成功すれば、他のツールも正常に動作する可能性が高いです。

環境変数:
  JIRA_API_BASE            JIRA URL (必須)
  JIRA_API_ADMIN_USER      管理者ユーザー (必須)
  JIRA_API_ADMIN_PASSWORD  管理者パスワード (必須)
  JIRA_SERVER_TYPE         hosted または cloud (デフォルト: hosted)
  JIRA_API_KEY             APIトークン (cloud の場合は必須)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	config.AddFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.LogError("%v", err)
		utils.LogError("認証情報を確認してください。")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	utils.LogInfo("JIRA認証確認ツール")

	cfg, err := config.LoadConfigWithFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	utils.LogInfo("JIRA APIの認証を確認しています...")
	if err := api.NewJiraClient(cfg).CheckAuth(ctx); err != nil {
		return err
	}

	utils.LogInfo("JIRA認証成功！ 接続先: %s (%s)", cfg.JiraAPIBase, cfg.JiraServerType)
	return nil
}
