package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"assemblatojira/config"
	"assemblatojira/models"
	"assemblatojira/utils"
)

// Downloader は添付ファイルの内容を取得します
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// AttachmentDownloader はAssemblaの添付ファイルをローカルにダウンロードします
type AttachmentDownloader struct {
	config     *config.Config
	downloader Downloader
	csvProc    *CSVProcessor
}

// NewAttachmentDownloader は新しいダウンロード処理を作成します
func NewAttachmentDownloader(cfg *config.Config, downloader Downloader, csvProc *CSVProcessor) *AttachmentDownloader {
	return &AttachmentDownloader{config: cfg, downloader: downloader, csvProc: csvProc}
}

// maxFilenameSuffix はファイル名の連番の上限です
const maxFilenameSuffix = 999

const defaultFilename = "nil.txt"

var numberedSuffix = regexp.MustCompile(`\.\d{3}$`)

// UniqueFilePath はdir内で既存ファイルと衝突しないパスとファイル名を返します。
// 衝突する場合は "name.001.ext" のように3桁の連番を付けます
func UniqueFilePath(dir, filename string) (string, string, error) {
	if filename == "" {
		filename = defaultFilename
	}
	filename = filepath.Base(filename)
	path := filepath.Join(dir, filename)

	for nr := 1; exists(path); nr++ {
		if nr > maxFilenameSuffix {
			return "", "", fmt.Errorf("%w: filepath='%s', nr=%d", ErrTooManyFilenames, path, nr)
		}
		ext := filepath.Ext(filename)
		base := numberedSuffix.ReplaceAllString(strings.TrimSuffix(filename, ext), "")
		filename = fmt.Sprintf("%s.%03d%s", base, nr, ext)
		path = filepath.Join(dir, filename)
	}

	return path, filename, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// SortAttachments は添付ファイルを作成日時の古い順に並べ替えます (同時刻は元の順序を維持)
func SortAttachments(attachments []models.AssemblaAttachment) {
	sort.SliceStable(attachments, func(i, j int) bool {
		ti, errI := config.ParseDate(attachments[i].CreatedAt)
		tj, errJ := config.ParseDate(attachments[j].CreatedAt)
		if errI != nil || errJ != nil {
			return attachments[i].CreatedAt < attachments[j].CreatedAt
		}
		return ti.Time.Before(tj.Time)
	})
}

// Run は添付ファイルを古い順にダウンロードし、結果をCSVに書き込みます
func (d *AttachmentDownloader) Run(ctx context.Context) ([]models.AttachmentDownload, error) {
	users, err := d.csvProc.LoadAssemblaUsers()
	if err != nil {
		return nil, fmt.Errorf("ユーザー読み込みエラー: %w", err)
	}
	tickets, err := d.csvProc.LoadAssemblaTickets()
	if err != nil {
		return nil, fmt.Errorf("Assemblaチケット読み込みエラー: %w", err)
	}
	attachments, err := d.csvProc.LoadAssemblaAttachments()
	if err != nil {
		return nil, fmt.Errorf("添付ファイル読み込みエラー: %w", err)
	}

	utils.LogInfo("Total attachments: %d", len(attachments))
	index := NewTicketIndex().AddTickets(tickets).AddUsers(users)

	cutoff, ok, err := d.config.TicketsCreatedOnTime()
	if err != nil {
		return nil, err
	}
	if ok {
		utils.LogInfo("Filter newer than: %s", cutoff.Format("2006-01-02"))
		attachments, err = FilterAttachmentsByTicket(attachments, index.TicketsByID, cutoff)
		if err != nil {
			return nil, err
		}
	}

	// 古い順にダウンロードすることで、JIRAでの添付順序を保つ
	SortAttachments(attachments)

	dir := d.config.OutputDirJiraAttachments
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ディレクトリ作成エラー: %w", err)
	}

	total := len(attachments)
	downloads := make([]models.AttachmentDownload, 0, total)
	failed := 0

	for i, a := range attachments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path, filename, err := UniqueFilePath(dir, a.Filename)
		if err != nil {
			return nil, err
		}

		utils.LogInfo("Downloading: %s", a.URL)
		utils.LogInfo("%s %s %s '%s' (%s)", utils.Progress(i+1, total), a.CreatedAt, a.TicketID, filename, a.ContentType)

		content, err := d.downloader.Download(ctx, a.URL)
		if err != nil {
			utils.LogError("%v", err)
			failed++
			continue
		}

		if err := writeNewFile(path, content); err != nil {
			utils.LogError("ファイル書き込みエラー %s: %v", path, err)
			failed++
			continue
		}

		downloads = append(downloads, models.AttachmentDownload{
			CreatedAt:            a.CreatedAt,
			CreatedBy:            index.UserLogins[a.CreatedBy],
			AssemblaAttachmentID: a.ID,
			AssemblaTicketID:     a.TicketID,
			Filename:             filename,
			ContentType:          a.ContentType,
		})
	}

	utils.LogInfo("Total all: %d (成功=%d, 失敗=%d)", total, len(downloads), failed)
	if err := d.csvProc.WriteAttachmentDownloads(downloads); err != nil {
		return nil, fmt.Errorf("ダウンロード結果の書き込みエラー: %w", err)
	}

	return downloads, nil
}

// writeNewFile は既存ファイルを上書きせずに書き込みます
func writeNewFile(path string, content []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
