package services

import (
	"context"
	"fmt"
	"time"

	"assemblatojira/config"
	"assemblatojira/utils"
)

// MigrationService はAssemblaからJIRAへの移行バッチを処理します
type MigrationService struct {
	config     *config.Config
	jiraClient JiraAPI
	downloader Downloader
	csvProc    *CSVProcessor
}

// NewMigrationService は新しい移行サービスを作成します
func NewMigrationService(cfg *config.Config, jiraClient JiraAPI, downloader Downloader, csvProc *CSVProcessor) *MigrationService {
	return &MigrationService{
		config:     cfg,
		jiraClient: jiraClient,
		downloader: downloader,
		csvProc:    csvProc,
	}
}

// Stages は実行する処理の選択です
type Stages struct {
	SanityCheck bool
	Status      bool
	Download    bool
	Upload      bool
}

// AllStages はすべての処理を有効にした Stages を返します
func AllStages() Stages {
	return Stages{SanityCheck: true, Status: true, Download: true, Upload: true}
}

// SanityCheck は整合性チェックを実行します
func (m *MigrationService) SanityCheck() (*SanityReport, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "整合性チェック")

	return NewSanityChecker(m.config, m.csvProc).Run()
}

// UpdateStatuses はJIRAイシューのステータスを更新します
func (m *MigrationService) UpdateStatuses(ctx context.Context) error {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "ステータス更新")

	_, err := NewStatusUpdater(m.config, m.jiraClient, m.csvProc).Run(ctx)
	return err
}

// DownloadAttachments は添付ファイルをダウンロードします
func (m *MigrationService) DownloadAttachments(ctx context.Context) error {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "添付ファイルダウンロード")

	_, err := NewAttachmentDownloader(m.config, m.downloader, m.csvProc).Run(ctx)
	return err
}

// UploadAttachments は添付ファイルをアップロードします
func (m *MigrationService) UploadAttachments(ctx context.Context) error {
	_, err := NewAttachmentUploader(m.config, m.jiraClient, m.csvProc).Run(ctx)
	return err
}

// RunMigration は移行処理全体を実行します
func (m *MigrationService) RunMigration(ctx context.Context, stages Stages) error {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "移行処理全体")

	if stages.Status || stages.Upload {
		// JIRA認証チェック
		if err := m.jiraClient.CheckAuth(ctx); err != nil {
			return fmt.Errorf("JIRA認証エラー: %w", err)
		}
		utils.LogInfo("JIRA認証成功")
	}

	if stages.SanityCheck {
		utils.LogInfo("整合性チェックを開始します")
		if _, err := m.SanityCheck(); err != nil {
			return fmt.Errorf("整合性チェックエラー: %w", err)
		}
	}

	if stages.Status {
		utils.LogInfo("ステータスの更新を開始します")
		if err := m.UpdateStatuses(ctx); err != nil {
			return fmt.Errorf("ステータス更新エラー: %w", err)
		}
	}

	if stages.Download {
		utils.LogInfo("添付ファイルのダウンロードを開始します")
		if err := m.DownloadAttachments(ctx); err != nil {
			return fmt.Errorf("添付ファイルダウンロードエラー: %w", err)
		}
	}

	if stages.Upload {
		utils.LogInfo("添付ファイルのアップロードを開始します")
		if err := m.UploadAttachments(ctx); err != nil {
			return fmt.Errorf("添付ファイルアップロードエラー: %w", err)
		}
	}

	utils.LogInfo("移行処理が完了しました")
	return nil
}
