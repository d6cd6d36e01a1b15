package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"assemblatojira/config"
	"assemblatojira/models"
	"assemblatojira/utils"
)

// AttachmentUploader はダウンロード済みの添付ファイルをJIRAイシューにアップロードします
type AttachmentUploader struct {
	config  *config.Config
	jira    JiraAPI
	csvProc *CSVProcessor
}

// NewAttachmentUploader は新しいアップロード処理を作成します
func NewAttachmentUploader(cfg *config.Config, jira JiraAPI, csvProc *CSVProcessor) *AttachmentUploader {
	return &AttachmentUploader{config: cfg, jira: jira, csvProc: csvProc}
}

// Run はjira-attachments-download.csvの順序どおりに添付ファイルをアップロードします
func (u *AttachmentUploader) Run(ctx context.Context) ([]models.AttachmentUpload, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "添付ファイルアップロード")

	downloads, err := u.csvProc.LoadAttachmentDownloads()
	if err != nil {
		return nil, fmt.Errorf("ダウンロード結果読み込みエラー: %w", err)
	}
	jiraTickets, err := u.csvProc.LoadJiraTickets()
	if err != nil {
		return nil, fmt.Errorf("JIRAチケット読み込みエラー: %w", err)
	}
	users, err := u.csvProc.LoadAssemblaUsers()
	if err != nil {
		return nil, fmt.Errorf("ユーザー読み込みエラー: %w", err)
	}

	// 添付ファイルフォルダの確認
	folder := u.config.OutputDirJiraAttachments
	if _, err := os.Stat(folder); os.IsNotExist(err) {
		return nil, fmt.Errorf("添付ファイルフォルダが見つかりません: %s", folder)
	}

	index := NewTicketIndex().AddJiraTickets(jiraTickets).AddUsers(users)

	utils.LogInfo("添付ファイルのアップロードを開始します: フォルダ=%s, 合計=%d", folder, len(downloads))

	total := len(downloads)
	uploads := make([]models.AttachmentUpload, 0, total)
	failed := 0

	for i, d := range downloads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		upload := models.AttachmentUpload{
			Result:               models.ResultNOK,
			AssemblaAttachmentID: d.AssemblaAttachmentID,
			AssemblaTicketID:     d.AssemblaTicketID,
			Filename:             d.Filename,
		}
		progress := utils.Progress(i+1, total)

		issueID := index.AssemblaToJira[d.AssemblaTicketID]
		if issueID == "" {
			utils.LogWarn("%s Assembla ID %s に対応するJIRAイシューが見つかりません => %s", progress, d.AssemblaTicketID, utils.Result(false))
			uploads = append(uploads, upload)
			failed++
			continue
		}
		upload.JiraTicketID = issueID

		creds := u.jira.UserCredentials(d.CreatedBy, index.Email(d.CreatedBy))
		filePath := filepath.Join(folder, d.Filename)

		attachmentID, err := u.jira.UploadAttachment(ctx, issueID, filePath, creds)
		if err != nil {
			utils.LogError("%s ファイル %s のアップロード失敗: %v", progress, d.Filename, err)
			uploads = append(uploads, upload)
			failed++
			continue
		}

		utils.LogInfo("%s ファイル %s をイシュー %s にアップロードしました => %s", progress, d.Filename, issueID, utils.Result(true))
		upload.Result = models.ResultOK
		upload.JiraAttachmentID = attachmentID
		uploads = append(uploads, upload)
	}

	utils.LogInfo("添付ファイルのアップロードが完了しました: 合計=%d, 成功=%d, 失敗=%d", total, total-failed, failed)

	if err := u.csvProc.WriteAttachmentUploads(uploads); err != nil {
		return nil, fmt.Errorf("アップロード結果の書き込みエラー: %w", err)
	}

	return uploads, nil
}
