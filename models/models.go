package models

import "github.com/agentstation/utc"

// AssemblaTicket はAssemblaのチケットを表します (tickets.csv)
type AssemblaTicket struct {
	ID         string
	Number     string
	Summary    string
	Status     string
	ReporterID string
	CreatedOn  utc.Time
}

// AssemblaUser はAssemblaのユーザーを表します (users.csv)
type AssemblaUser struct {
	ID    string
	Login string
	Name  string
	Email string
}

// AssemblaComment はチケットのコメントを表します (ticket-comments.csv)
type AssemblaComment struct {
	ID        string
	TicketID  string
	UserID    string
	CreatedOn string
	Comment   string
}

// AssemblaTag はチケットのタグを表します (ticket-tags.csv)
type AssemblaTag struct {
	ID       string
	TicketID string
	Name     string
}

// AssemblaAttachment はチケットの添付ファイルを表します (ticket-attachments.csv)
type AssemblaAttachment struct {
	ID          string
	TicketID    string
	Filename    string
	ContentType string
	URL         string
	CreatedAt   string
	CreatedBy   string
}

// JiraTicket は移行マッピングの1行を表します (jira-tickets.csv)
type JiraTicket struct {
	Result               string
	JiraTicketID         string
	JiraTicketKey        string
	AssemblaTicketID     string
	AssemblaTicketNumber string
	IssueTypeID          string
	IssueTypeName        string
	ReporterName         string
}

// JiraStatus はJIRAのステータスです (jira-statuses.csv)
type JiraStatus struct {
	ID   string
	Name string
}

// JiraResolution はJIRAの解決状況です (jira-resolutions.csv)
type JiraResolution struct {
	ID   string
	Name string
}

// Transition はJIRAイシューで利用可能なステータス遷移です
type Transition struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	To   StatusRef `json:"to"`
}

// StatusRef はIDと名前の組です
type StatusRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TicketLink は検証済みのAssemblaチケットとJIRAイシューの対応です
type TicketLink struct {
	Jira struct {
		ID  int
		Key string
	}
	Assembla struct {
		ID     int
		Number int
	}
	IssueType struct {
		ID   int
		Name string
	}
}

// StatusUpdate はステータス更新結果の監査行です
type StatusUpdate struct {
	Result               string
	AssemblaTicketID     string
	AssemblaTicketStatus string
	JiraTicketID         string
	From                 StatusRef
	To                   StatusRef
}

// AttachmentDownload はダウンロード済み添付ファイルの監査行です
type AttachmentDownload struct {
	CreatedAt            string
	CreatedBy            string
	AssemblaAttachmentID string
	AssemblaTicketID     string
	Filename             string
	ContentType          string
}

// AttachmentUpload はJIRAへの添付ファイルアップロード結果の監査行です
type AttachmentUpload struct {
	Result               string
	AssemblaAttachmentID string
	AssemblaTicketID     string
	JiraTicketID         string
	Filename             string
	JiraAttachmentID     string
}

// 処理結果
const (
	ResultOK  = "OK"
	ResultNOK = "NOK"
)

// CSVRecord はCSVの1行を表します (ヘッダー名→値のマップ)
type CSVRecord map[string]string

// IssueMapping はAssemblaチケットIDとJIRAイシューIDのマッピングを表します
type IssueMapping map[string]string
