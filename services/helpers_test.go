package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"assemblatojira/api"
	"assemblatojira/config"
	"assemblatojira/models"
)

func newTestEnv(t *testing.T) (*config.Config, *CSVProcessor) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		JiraAPIBase:              "http://jira.test",
		JiraAPIStatuses:          config.DefaultStatuses,
		OutputDirAssembla:        filepath.Join(dir, "assembla"),
		OutputDirJira:            filepath.Join(dir, "jira"),
		OutputDirJiraAttachments: filepath.Join(dir, "jira", "attachments"),
		AssemblaTypesExtra:       []string{"bug", "story"},
	}
	return cfg, NewCSVProcessor(cfg)
}

func writeFixture(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// writeStandardFixtures は4件のチケットとそのマッピングを書き込みます
func writeStandardFixtures(t *testing.T, p *CSVProcessor) {
	t.Helper()
	writeFixture(t, p.AssemblaPath(TicketsCSV),
		"id,number,summary,status,reporter_id,created_on",
		"101,1,BUG: first,New,u1,2017-01-10T10:00:00Z",
		"102,2,second,Done,u2,2017-02-10T10:00:00Z",
		"103,3,SPIKE: third,Invalid,u1,2017-03-10T10:00:00Z",
		"104,4,fourth,Testable,u2,2017-04-10T10:00:00Z",
	)
	writeFixture(t, p.AssemblaPath(UsersCSV),
		"id,login,name,email",
		"u1,alice,Alice,alice@example.com",
		"u2,bob,Bob,bob@example.com",
	)
	writeFixture(t, p.AssemblaPath(CommentsCSV),
		"id,ticket_id,user_id,created_on,comment",
		"c1,101,u1,2017-01-11T10:00:00Z,hello",
		"c2,102,u2,2017-02-11T10:00:00Z,world",
		"c3,999,u2,2017-02-11T10:00:00Z,orphan",
	)
	writeFixture(t, p.AssemblaPath(TagsCSV),
		"id,ticket_id,name",
		"t1,101,backend",
	)
	writeFixture(t, p.AssemblaPath(AttachmentsCSV),
		"id,ticket_id,filename,content_type,url,created_at,created_by",
		"a1,102,design.pdf,application/pdf,http://assembla.test/a1,2017-02-12T10:00:00Z,u2",
		"a2,101,design.pdf,application/pdf,http://assembla.test/a2,2017-01-12T10:00:00Z,u1",
		"a3,104,log.txt,text/plain,http://assembla.test/a3,2017-04-12T10:00:00Z,u2",
	)
	writeFixture(t, p.JiraPath(JiraTicketsCSV),
		"result,jira_ticket_id,jira_ticket_key,assembla_ticket_id,assembla_ticket_number,issue_type_id,issue_type_name,reporter_name",
		"OK,10001,PRJ-1,101,1,10002,Bug,alice@assembla",
		"OK,10002,PRJ-2,102,2,10003,Task,bob",
		"OK,10003,PRJ-3,103,3,10003,Task,alice",
		"OK,10004,PRJ-4,104,4,10003,Task,bob",
	)
	writeFixture(t, p.JiraPath(JiraStatusesCSV),
		"id,name",
		"10000,To Do",
		"3,In Progress",
		"10001,Done",
	)
	writeFixture(t, p.JiraPath(JiraResolutionsCSV),
		"id,name",
		"10000,Done",
		"10001,Won't Do",
	)
}

// fakeJira は JiraAPI のテスト用実装です
type fakeJira struct {
	transitions    []models.Transition
	transitionsErr error
	failIssues     map[string]bool
	authErr        error

	calls []string
}

func newFakeJira() *fakeJira {
	return &fakeJira{
		transitions: []models.Transition{
			{ID: "11", Name: "Start", To: models.StatusRef{ID: "3", Name: "In Progress"}},
			{ID: "31", Name: "Finish", To: models.StatusRef{ID: "10001", Name: "Done"}},
		},
		failIssues: make(map[string]bool),
	}
}

func (f *fakeJira) CheckAuth(ctx context.Context) error {
	f.calls = append(f.calls, "auth")
	return f.authErr
}

func (f *fakeJira) UserCredentials(login, email string) api.Credentials {
	return api.Credentials{Username: login, Password: email}
}

func (f *fakeJira) GetTransitions(ctx context.Context, issueID string, creds api.Credentials) ([]models.Transition, error) {
	f.calls = append(f.calls, fmt.Sprintf("transitions %s as %s", issueID, creds.Username))
	return f.transitions, f.transitionsErr
}

func (f *fakeJira) TransitionIssue(ctx context.Context, issueID, transitionID string, creds api.Credentials) error {
	f.calls = append(f.calls, fmt.Sprintf("transition %s %s", issueID, transitionID))
	if f.failIssues[issueID] {
		return &api.APIError{Method: "POST", URL: issueID, StatusCode: 400, Message: "bad transition"}
	}
	return nil
}

func (f *fakeJira) UpdateResolution(ctx context.Context, issueID, resolutionID string, creds api.Credentials) error {
	f.calls = append(f.calls, fmt.Sprintf("resolution %s %s", issueID, resolutionID))
	return nil
}

func (f *fakeJira) UploadAttachment(ctx context.Context, issueID, filePath string, creds api.Credentials) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("upload %s %s as %s", issueID, filepath.Base(filePath), creds.Username))
	if f.failIssues[issueID] {
		return "", &api.APIError{Method: "POST", URL: issueID, StatusCode: 413, Message: "too large"}
	}
	if _, err := os.Stat(filePath); err != nil {
		return "", err
	}
	return "att-" + filepath.Base(filePath), nil
}

// fakeDownloader は URL → 内容 を返すテスト用ダウンローダーです
type fakeDownloader struct {
	content map[string]string
	urls    []string
}

func (f *fakeDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	c, ok := f.content[url]
	if !ok {
		return nil, &api.APIError{Method: "GET", URL: url, StatusCode: 404, Message: "not found"}
	}
	return []byte(c), nil
}
