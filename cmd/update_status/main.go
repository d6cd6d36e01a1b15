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

var rootCmd = &cobra.Command{
	Use:   "update_status",
	Short: "JIRAイシューのステータス更新ツール",
	Long: `JIRAイシューのステータス更新ツール

tickets.csv のAssemblaステータスに従って、対応するJIRAイシューを遷移させます。
  done    → done (解決状況: Done)
  invalid → done (解決状況: Won't do)
  new     → 変更なし (to do)
  その他  → in progress

結果は jira-tickets-status-updates.csv に書き込まれます。`,
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
		utils.LogError("ステータス更新エラー: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "ステータス更新")

	cfg, err := config.LoadConfigWithFlags(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	jiraClient := api.NewJiraClient(cfg)
	if err := jiraClient.CheckAuth(cmd.Context()); err != nil {
		return err
	}

	_, err = services.NewStatusUpdater(cfg, jiraClient, services.NewCSVProcessor(cfg)).Run(cmd.Context())
	return err
}
