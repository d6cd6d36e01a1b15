package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"assemblatojira/api"
	"assemblatojira/config"
	"assemblatojira/services"
	"assemblatojira/utils"
)

var rootCmd = &cobra.Command{
	Use:   "attachment_upload",
	Short: "JIRA 添付ファイルアップロードツール",
	Long: `JIRA 添付ファイルアップロードツール

download_attachments でダウンロードした添付ファイルを、対応するJIRAイシューにアップロードします。
jira-attachments-download.csv の順序どおりに、添付ファイルの作成者としてアップロードします。
結果は jira-attachments-import.csv に書き込まれます。

環境変数:
  JIRA_API_BASE               JIRA URL (必須)
  JIRA_API_ADMIN_USER         管理者ユーザー (必須)
  JIRA_API_ADMIN_PASSWORD     管理者パスワード (必須)
  OUTPUT_DIR_JIRA             jira-tickets.csv のディレクトリ (デフォルト: data/jira)
  OUTPUT_DIR_JIRA_ATTACHMENTS 添付ファイルのフォルダ (デフォルト: $OUTPUT_DIR_JIRA/attachments)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	config.AddFlags(rootCmd.Flags())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		utils.LogError("添付ファイルアップロードエラー: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	utils.LogInfo("JIRA 添付ファイルアップロードツール")

	cfg, err := config.LoadConfigWithFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	utils.LogInfo("JIRA認証情報を確認しています...")
	jiraClient := api.NewJiraClient(cfg)
	if err := jiraClient.CheckAuth(cmd.Context()); err != nil {
		return err
	}
	utils.LogInfo("JIRA認証成功")

	_, err = services.NewAttachmentUploader(cfg, jiraClient, services.NewCSVProcessor(cfg)).Run(cmd.Context())
	return err
}
