package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assemblatojira/models"
)

func writeDownloadFixtures(t *testing.T, p *CSVProcessor, dir string) {
	t.Helper()
	writeFixture(t, p.JiraPath(AttachmentsDownloaded),
		"created_at,created_by,assembla_attachment_id,assembla_ticket_id,filename,content_type",
		"2017-01-12T10:00:00Z,alice,a2,101,design.pdf,application/pdf",
		"2017-02-12T10:00:00Z,bob,a1,102,design.001.pdf,application/pdf",
		"2017-02-13T10:00:00Z,bob,a9,999,orphan.txt,text/plain",
	)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"design.pdf", "design.001.pdf", "orphan.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
}

func TestAttachmentUploaderRun(t *testing.T) {
	cfg, p := newTestEnv(t)
	writeStandardFixtures(t, p)
	writeDownloadFixtures(t, p, cfg.OutputDirJiraAttachments)
	jira := newFakeJira()

	uploads, err := NewAttachmentUploader(cfg, jira, p).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, uploads, 3)

	assert.Equal(t, []string{
		"upload 10001 design.pdf as alice",
		"upload 10002 design.001.pdf as bob",
	}, jira.calls)

	assert.Equal(t, models.AttachmentUpload{
		Result: models.ResultOK, AssemblaAttachmentID: "a2", AssemblaTicketID: "101",
		JiraTicketID: "10001", Filename: "design.pdf", JiraAttachmentID: "att-design.pdf",
	}, uploads[0])
	assert.Equal(t, models.ResultNOK, uploads[2].Result, "unmapped ticket")
	assert.Empty(t, uploads[2].JiraTicketID)

	lines := readLines(t, p.JiraPath(AttachmentsImported))
	require.Len(t, lines, 4)
	assert.Equal(t, "NOK,a9,999,,orphan.txt,", lines[3])
}

func TestAttachmentUploaderRecordsFailures(t *testing.T) {
	cfg, p := newTestEnv(t)
	writeStandardFixtures(t, p)
	writeDownloadFixtures(t, p, cfg.OutputDirJiraAttachments)
	jira := newFakeJira()
	jira.failIssues["10001"] = true

	uploads, err := NewAttachmentUploader(cfg, jira, p).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ResultNOK, uploads[0].Result)
	assert.Equal(t, "10001", uploads[0].JiraTicketID)
	assert.Equal(t, models.ResultOK, uploads[1].Result)
}

func TestAttachmentUploaderMissingFolder(t *testing.T) {
	cfg, p := newTestEnv(t)
	writeStandardFixtures(t, p)
	writeFixture(t, p.JiraPath(AttachmentsDownloaded),
		"created_at,created_by,assembla_attachment_id,assembla_ticket_id,filename,content_type",
	)

	_, err := NewAttachmentUploader(cfg, newFakeJira(), p).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.OutputDirJiraAttachments)
}
