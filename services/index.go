package services

import (
	"regexp"
	"strings"

	"assemblatojira/models"
)

// TicketIndex は1回の実行で使うID間の対応表です。
// 読み込み後に一度だけ構築し、各処理に渡します
type TicketIndex struct {
	TicketsByID     map[string]models.AssemblaTicket
	TicketsByNumber map[string]models.AssemblaTicket

	// AssemblaチケットID → JIRAイシューID
	AssemblaToJira models.IssueMapping
	// JIRAイシューID → 報告者ログイン名
	JiraReporters map[string]string

	UserLogins  map[string]string // AssemblaユーザーID → ログイン名
	LoginEmails map[string]string // ログイン名 → メールアドレス

	StatusIDs     map[string]string // 小文字のステータス名 → ID
	ResolutionIDs map[string]string // 小文字の解決状況名 → ID
}

// NewTicketIndex は空の対応表を作成します
func NewTicketIndex() *TicketIndex {
	return &TicketIndex{
		TicketsByID:     make(map[string]models.AssemblaTicket),
		TicketsByNumber: make(map[string]models.AssemblaTicket),
		AssemblaToJira:  make(models.IssueMapping),
		JiraReporters:   make(map[string]string),
		UserLogins:      make(map[string]string),
		LoginEmails:     make(map[string]string),
		StatusIDs:       make(map[string]string),
		ResolutionIDs:   make(map[string]string),
	}
}

// AddTickets はAssemblaチケットを登録します
func (x *TicketIndex) AddTickets(tickets []models.AssemblaTicket) *TicketIndex {
	for _, t := range tickets {
		x.TicketsByID[t.ID] = t
		x.TicketsByNumber[t.Number] = t
	}
	return x
}

// AddJiraTickets は移行マッピングを登録します
func (x *TicketIndex) AddJiraTickets(rows []models.JiraTicket) *TicketIndex {
	for _, row := range rows {
		x.AssemblaToJira[row.AssemblaTicketID] = row.JiraTicketID
		x.JiraReporters[row.JiraTicketID] = row.ReporterName
	}
	return x
}

// AddUsers はユーザーのログイン名とメールアドレスを登録します
func (x *TicketIndex) AddUsers(users []models.AssemblaUser) *TicketIndex {
	for _, u := range users {
		x.UserLogins[u.ID] = u.Login
		if u.Login != "" {
			x.LoginEmails[u.Login] = u.Email
		}
	}
	return x
}

// AddStatuses はJIRAのステータスを登録します
func (x *TicketIndex) AddStatuses(statuses []models.JiraStatus) *TicketIndex {
	for _, s := range statuses {
		x.StatusIDs[strings.ToLower(s.Name)] = s.ID
	}
	return x
}

// AddResolutions はJIRAの解決状況を登録します
func (x *TicketIndex) AddResolutions(resolutions []models.JiraResolution) *TicketIndex {
	for _, r := range resolutions {
		x.ResolutionIDs[strings.ToLower(r.Name)] = r.ID
	}
	return x
}

// IsMapped はAssemblaチケットがJIRAイシューに対応付いていればtrueを返します
func (x *TicketIndex) IsMapped(assemblaTicketID string) bool {
	return x.AssemblaToJira[assemblaTicketID] != ""
}

var emailSuffix = regexp.MustCompile(`@.*$`)

// ReporterLogin はJIRAイシューの報告者のログイン名 (@以降を除去) を返します
func (x *TicketIndex) ReporterLogin(jiraID string) string {
	return emailSuffix.ReplaceAllString(x.JiraReporters[jiraID], "")
}

// Email はログイン名に対応するメールアドレスを返します
func (x *TicketIndex) Email(login string) string {
	return x.LoginEmails[login]
}

// Status は小文字のステータス名に対応する StatusRef を返します
func (x *TicketIndex) Status(name string) models.StatusRef {
	return models.StatusRef{ID: x.StatusIDs[strings.ToLower(name)], Name: name}
}
