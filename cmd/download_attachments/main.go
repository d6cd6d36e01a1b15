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
	Use:   "download_attachments",
	Short: "Assembla 添付ファイルダウンロードツール",
	Long: `Assembla 添付ファイルダウンロードツール

ticket-attachments.csv の添付ファイルを作成日時の古い順にダウンロードします。
同名のファイルは上書きせず name.001.ext のように連番を付けて保存します。
ダウンロードできたファイルは jira-attachments-download.csv に記録されます。`,
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
		utils.LogError("添付ファイルダウンロードエラー: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "添付ファイルダウンロード")

	cfg, err := config.LoadConfigWithFlags(cmd.Flags())
	if err != nil {
		return err
	}

	downloader := services.NewAttachmentDownloader(cfg, api.NewAssemblaClient(cfg), services.NewCSVProcessor(cfg))
	_, err = downloader.Run(cmd.Context())
	return err
}
