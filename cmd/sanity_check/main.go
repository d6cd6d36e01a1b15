package main

import (
	"os"

	"github.com/spf13/cobra"

	"assemblatojira/config"
	"assemblatojira/services"
	"assemblatojira/utils"
)

var rootCmd = &cobra.Command{
	Use:   "sanity_check",
	Short: "Assembla/JIRA エクスポートの整合性チェック",
	Long: `Assembla/JIRA エクスポートの整合性チェック

tickets.csv の重複、jira-tickets.csv との対応、コメント・タグ・添付ファイルの参照先を確認します。
JIRA APIは呼び出しません。重複や対応の不一致がある場合は終了コード1で終了します。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	config.AddFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.LogError("整合性チェックエラー: %v", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithFlags(cmd.Flags())
	if err != nil {
		return err
	}

	report, err := services.NewSanityChecker(cfg, services.NewCSVProcessor(cfg)).Run()
	if err != nil {
		return err
	}

	utils.LogInfo("整合性チェック完了: チケット=%d, 未対応=%d, リンク警告=%d",
		report.Tickets, len(report.UnmappedTickets), len(report.LinkWarnings))
	return nil
}
