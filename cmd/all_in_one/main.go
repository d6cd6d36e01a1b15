package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"assemblatojira/api"
	"assemblatojira/config"
	"assemblatojira/services"
	"assemblatojira/utils"
)

var (
	sanityOnly   bool
	statusOnly   bool
	downloadOnly bool
	uploadOnly   bool
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "all_in_one",
	Short: "Assembla → JIRA 移行ツール",
	Long: `Assembla → JIRA 移行ツール

整合性チェック、ステータス更新、添付ファイルのダウンロードとアップロードを順に実行します。
--*-only を指定した場合はその処理のみを実行します。

環境変数:
  JIRA_API_BASE               JIRA URL (必須)
  JIRA_API_ADMIN_USER         管理者ユーザー (必須)
  JIRA_API_ADMIN_PASSWORD     管理者パスワード (必須)
  JIRA_API_ADMIN_EMAIL        管理者メールアドレス (cloud)
  JIRA_SERVER_TYPE            hosted または cloud (デフォルト: hosted)
  JIRA_API_KEY                APIトークン (cloud の場合は必須)
  JIRA_API_USER_PASSWORD      各ユーザー共通のパスワード (hosted)
  JIRA_API_STATUSES           ステータスマッピング
  OUTPUT_DIR_ASSEMBLA         Assemblaエクスポートのディレクトリ (デフォルト: data/assembla)
  OUTPUT_DIR_JIRA             JIRA側CSVのディレクトリ (デフォルト: data/jira)
  OUTPUT_DIR_JIRA_ATTACHMENTS 添付ファイルのダウンロード先
  ASSEMBLA_API_KEY            Assembla APIキー
  ASSEMBLA_API_SECRET         Assembla APIシークレット
  TICKETS_CREATED_ON          この日付以降に作成されたチケットのみ処理する`,
	Example: `  # すべての処理を実行
  all_in_one

  # 2017年以降のチケットの整合性チェックのみを実行
  all_in_one --sanity-only --since 2017-01-01`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&sanityOnly, "sanity-only", false, "整合性チェックのみを実行する")
	rootCmd.Flags().BoolVar(&statusOnly, "status-only", false, "ステータス更新のみを実行する")
	rootCmd.Flags().BoolVar(&downloadOnly, "download-only", false, "添付ファイルのダウンロードのみを実行する")
	rootCmd.Flags().BoolVar(&uploadOnly, "upload-only", false, "添付ファイルのアップロードのみを実行する")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "デバッグログを出力する")
	rootCmd.MarkFlagsMutuallyExclusive("sanity-only", "status-only", "download-only", "upload-only")
	config.AddFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.LogError("移行処理に失敗しました: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	utils.SetVerbose(verbose)
	startTime := time.Now()

	cfg, err := config.LoadConfigWithFlags(cmd.Flags())
	if err != nil {
		return err
	}

	stages := selectStages()
	if stages.Status || stages.Upload {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	utils.LogInfo("Assembla → JIRA 移行ツール (v1.0.0)")
	utils.LogInfo("設定読み込み完了 (JIRA: %s, Assembla: %s, JIRA CSV: %s)", cfg.JiraAPIBase, cfg.OutputDirAssembla, cfg.OutputDirJira)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jiraClient := api.NewJiraClient(cfg)
	assemblaClient := api.NewAssemblaClient(cfg)
	csvProc := services.NewCSVProcessor(cfg)
	migrationService := services.NewMigrationService(cfg, jiraClient, assemblaClient, csvProc)

	if err := migrationService.RunMigration(ctx, stages); err != nil {
		return err
	}

	utils.LogInfo("移行処理が完了しました。合計実行時間: %s", time.Since(startTime))
	return nil
}

func selectStages() services.Stages {
	switch {
	case sanityOnly:
		return services.Stages{SanityCheck: true}
	case statusOnly:
		return services.Stages{Status: true}
	case downloadOnly:
		return services.Stages{Download: true}
	case uploadOnly:
		return services.Stages{Upload: true}
	default:
		return services.AllStages()
	}
}
