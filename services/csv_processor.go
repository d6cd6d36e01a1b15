package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"assemblatojira/config"
	"assemblatojira/models"
	"assemblatojira/utils"
)

// CSVProcessor はCSVファイルの読み書きを担当します
type CSVProcessor struct {
	config *config.Config
}

// NewCSVProcessor は新しいCSVプロセッサーを作成します
func NewCSVProcessor(cfg *config.Config) *CSVProcessor {
	return &CSVProcessor{
		config: cfg,
	}
}

// Assembla/JIRAのCSVファイル名
const (
	TicketsCSV            = "tickets.csv"
	UsersCSV              = "users.csv"
	CommentsCSV           = "ticket-comments.csv"
	TagsCSV               = "ticket-tags.csv"
	AttachmentsCSV        = "ticket-attachments.csv"
	JiraTicketsCSV        = "jira-tickets.csv"
	JiraStatusesCSV       = "jira-statuses.csv"
	JiraResolutionsCSV    = "jira-resolutions.csv"
	StatusUpdatesCSV      = "jira-tickets-status-updates.csv"
	AttachmentsDownloaded = "jira-attachments-download.csv"
	AttachmentsImported   = "jira-attachments-import.csv"
)

// AssemblaPath はAssembla出力ディレクトリ内のパスを返します
func (p *CSVProcessor) AssemblaPath(name string) string {
	return filepath.Join(p.config.OutputDirAssembla, name)
}

// JiraPath はJIRA出力ディレクトリ内のパスを返します
func (p *CSVProcessor) JiraPath(name string) string {
	return filepath.Join(p.config.OutputDirJira, name)
}

// ReadCSV は汎用CSVリーダーです。ヘッダーのみのファイルは0行として扱います
func (p *CSVProcessor) ReadCSV(filePath string) ([]models.CSVRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("CSVオープンエラー: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV読み込みエラー %s: %w", filePath, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("CSVヘッダーがありません: %s", filePath)
	}

	headers := records[0]
	result := make([]models.CSVRecord, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) != len(headers) {
			utils.LogWarn("%s:%d: フィールド数が不一致（ヘッダー: %d, 行: %d）", filePath, i+2, len(headers), len(record))
		}
		rowData := make(models.CSVRecord)
		for j := 0; j < min(len(headers), len(record)); j++ {
			rowData[headers[j]] = record[j]
		}
		result = append(result, rowData)
	}

	utils.LogDebug("CSVを読み込みました %s: %d 行", filePath, len(result))
	return result, nil
}

// WriteCSV はヘッダーの順序どおりに行を書き込みます
func (p *CSVProcessor) WriteCSV(filePath string, headers []string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("ディレクトリ作成エラー: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("CSVファイル作成エラー: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("ヘッダー書き込みエラー: %w", err)
	}

	for _, row := range rows {
		if len(row) != len(headers) {
			return fmt.Errorf("行のカラム数がヘッダーと一致しません: %d != %d", len(row), len(headers))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("行書き込みエラー: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV書き込み完了エラー: %w", err)
	}

	utils.LogInfo("CSV書き込み完了 %s: %d 行", filePath, len(rows))
	return nil
}

var numericID = regexp.MustCompile(`^\d+$`)

// IsNumericID はIDが数字のみで構成されているかを判定します
func IsNumericID(s string) bool {
	return numericID.MatchString(s)
}

// LoadAssemblaTickets はtickets.csvを読み込みます
func (p *CSVProcessor) LoadAssemblaTickets() ([]models.AssemblaTicket, error) {
	path := p.AssemblaPath(TicketsCSV)
	records, err := p.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	tickets := make([]models.AssemblaTicket, 0, len(records))
	for i, rec := range records {
		ticket := models.AssemblaTicket{
			ID:         rec["id"],
			Number:     rec["number"],
			Summary:    rec["summary"],
			Status:     rec["status"],
			ReporterID: rec["reporter_id"],
		}
		if created := rec["created_on"]; created != "" {
			ticket.CreatedOn, err = config.ParseDate(created)
			if err != nil {
				return nil, &InvalidRecordError{File: path, Line: i + 1, Message: err.Error()}
			}
		}
		tickets = append(tickets, ticket)
	}

	utils.LogInfo("Assemblaチケットを読み込みました: %d 件", len(tickets))
	return tickets, nil
}

// LoadAssemblaUsers はusers.csvを読み込みます
func (p *CSVProcessor) LoadAssemblaUsers() ([]models.AssemblaUser, error) {
	records, err := p.ReadCSV(p.AssemblaPath(UsersCSV))
	if err != nil {
		return nil, err
	}

	users := make([]models.AssemblaUser, 0, len(records))
	for _, rec := range records {
		users = append(users, models.AssemblaUser{
			ID:    rec["id"],
			Login: rec["login"],
			Name:  rec["name"],
			Email: rec["email"],
		})
	}
	return users, nil
}

// LoadAssemblaComments はticket-comments.csvを読み込みます
func (p *CSVProcessor) LoadAssemblaComments() ([]models.AssemblaComment, error) {
	records, err := p.ReadCSV(p.AssemblaPath(CommentsCSV))
	if err != nil {
		return nil, err
	}

	comments := make([]models.AssemblaComment, 0, len(records))
	for _, rec := range records {
		comments = append(comments, models.AssemblaComment{
			ID:        rec["id"],
			TicketID:  rec["ticket_id"],
			UserID:    rec["user_id"],
			CreatedOn: rec["created_on"],
			Comment:   rec["comment"],
		})
	}
	return comments, nil
}

// LoadAssemblaTags はticket-tags.csvを読み込みます
func (p *CSVProcessor) LoadAssemblaTags() ([]models.AssemblaTag, error) {
	records, err := p.ReadCSV(p.AssemblaPath(TagsCSV))
	if err != nil {
		return nil, err
	}

	tags := make([]models.AssemblaTag, 0, len(records))
	for _, rec := range records {
		tags = append(tags, models.AssemblaTag{
			ID:       rec["id"],
			TicketID: rec["ticket_id"],
			Name:     rec["name"],
		})
	}
	return tags, nil
}

// LoadAssemblaAttachments はticket-attachments.csvを読み込みます
func (p *CSVProcessor) LoadAssemblaAttachments() ([]models.AssemblaAttachment, error) {
	records, err := p.ReadCSV(p.AssemblaPath(AttachmentsCSV))
	if err != nil {
		return nil, err
	}

	attachments := make([]models.AssemblaAttachment, 0, len(records))
	for _, rec := range records {
		attachments = append(attachments, models.AssemblaAttachment{
			ID:          rec["id"],
			TicketID:    rec["ticket_id"],
			Filename:    rec["filename"],
			ContentType: rec["content_type"],
			URL:         rec["url"],
			CreatedAt:   rec["created_at"],
			CreatedBy:   rec["created_by"],
		})
	}
	return attachments, nil
}

// LoadJiraTickets は移行マッピング (jira-tickets.csv) を読み込みます
func (p *CSVProcessor) LoadJiraTickets() ([]models.JiraTicket, error) {
	records, err := p.ReadCSV(p.JiraPath(JiraTicketsCSV))
	if err != nil {
		return nil, err
	}

	tickets := make([]models.JiraTicket, 0, len(records))
	for _, rec := range records {
		tickets = append(tickets, models.JiraTicket{
			Result:               rec["result"],
			JiraTicketID:         rec["jira_ticket_id"],
			JiraTicketKey:        rec["jira_ticket_key"],
			AssemblaTicketID:     rec["assembla_ticket_id"],
			AssemblaTicketNumber: rec["assembla_ticket_number"],
			IssueTypeID:          rec["issue_type_id"],
			IssueTypeName:        rec["issue_type_name"],
			ReporterName:         rec["reporter_name"],
		})
	}

	utils.LogInfo("JIRAチケットマッピングを読み込みました: %d 件", len(tickets))
	return tickets, nil
}

// LoadJiraStatuses はjira-statuses.csvを読み込みます
func (p *CSVProcessor) LoadJiraStatuses() ([]models.JiraStatus, error) {
	records, err := p.ReadCSV(p.JiraPath(JiraStatusesCSV))
	if err != nil {
		return nil, err
	}

	statuses := make([]models.JiraStatus, 0, len(records))
	for _, rec := range records {
		statuses = append(statuses, models.JiraStatus{ID: rec["id"], Name: rec["name"]})
	}
	return statuses, nil
}

// LoadJiraResolutions はjira-resolutions.csvを読み込みます
func (p *CSVProcessor) LoadJiraResolutions() ([]models.JiraResolution, error) {
	records, err := p.ReadCSV(p.JiraPath(JiraResolutionsCSV))
	if err != nil {
		return nil, err
	}

	resolutions := make([]models.JiraResolution, 0, len(records))
	for _, rec := range records {
		resolutions = append(resolutions, models.JiraResolution{ID: rec["id"], Name: rec["name"]})
	}
	return resolutions, nil
}

// LoadAttachmentDownloads はダウンロード結果 (jira-attachments-download.csv) を読み込みます
func (p *CSVProcessor) LoadAttachmentDownloads() ([]models.AttachmentDownload, error) {
	records, err := p.ReadCSV(p.JiraPath(AttachmentsDownloaded))
	if err != nil {
		return nil, err
	}

	downloads := make([]models.AttachmentDownload, 0, len(records))
	for _, rec := range records {
		downloads = append(downloads, models.AttachmentDownload{
			CreatedAt:            rec["created_at"],
			CreatedBy:            rec["created_by"],
			AssemblaAttachmentID: rec["assembla_attachment_id"],
			AssemblaTicketID:     rec["assembla_ticket_id"],
			Filename:             rec["filename"],
			ContentType:          rec["content_type"],
		})
	}
	return downloads, nil
}

// WriteStatusUpdates はステータス更新結果を書き込みます
func (p *CSVProcessor) WriteStatusUpdates(updates []models.StatusUpdate) error {
	headers := []string{
		"result", "assembla_ticket_id", "assembla_ticket_status", "jira_ticket_id",
		"jira_transition_from_id", "jira_transition_from_name",
		"jira_transition_to_id", "jira_transition_to_name",
	}

	rows := make([][]string, 0, len(updates))
	for _, u := range updates {
		rows = append(rows, []string{
			u.Result, u.AssemblaTicketID, u.AssemblaTicketStatus, u.JiraTicketID,
			zeroIfEmpty(u.From.ID), zeroIfEmpty(u.From.Name),
			zeroIfEmpty(u.To.ID), zeroIfEmpty(u.To.Name),
		})
	}

	return p.WriteCSV(p.JiraPath(StatusUpdatesCSV), headers, rows)
}

// WriteAttachmentDownloads はダウンロード結果を書き込みます
func (p *CSVProcessor) WriteAttachmentDownloads(downloads []models.AttachmentDownload) error {
	headers := []string{
		"created_at", "created_by", "assembla_attachment_id",
		"assembla_ticket_id", "filename", "content_type",
	}

	rows := make([][]string, 0, len(downloads))
	for _, d := range downloads {
		rows = append(rows, []string{
			d.CreatedAt, d.CreatedBy, d.AssemblaAttachmentID,
			d.AssemblaTicketID, d.Filename, d.ContentType,
		})
	}

	return p.WriteCSV(p.JiraPath(AttachmentsDownloaded), headers, rows)
}

// WriteAttachmentUploads はアップロード結果を書き込みます
func (p *CSVProcessor) WriteAttachmentUploads(uploads []models.AttachmentUpload) error {
	headers := []string{
		"result", "assembla_attachment_id", "assembla_ticket_id",
		"jira_ticket_id", "filename", "jira_attachment_id",
	}

	rows := make([][]string, 0, len(uploads))
	for _, u := range uploads {
		rows = append(rows, []string{
			u.Result, u.AssemblaAttachmentID, u.AssemblaTicketID,
			u.JiraTicketID, u.Filename, u.JiraAttachmentID,
		})
	}

	return p.WriteCSV(p.JiraPath(AttachmentsImported), headers, rows)
}

// 失敗行の遷移情報は 0 で埋めます
func zeroIfEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "0"
	}
	return s
}
