package services

import (
	"fmt"
	"regexp"
	"strconv"

	"assemblatojira/config"
	"assemblatojira/models"
	"assemblatojira/utils"
)

// SanityChecker はAssemblaのエクスポートとJIRAの移行マッピングの整合性を検証します
type SanityChecker struct {
	config  *config.Config
	csvProc *CSVProcessor
}

// NewSanityChecker は新しいチェッカーを作成します
func NewSanityChecker(cfg *config.Config, csvProc *CSVProcessor) *SanityChecker {
	return &SanityChecker{config: cfg, csvProc: csvProc}
}

// ReferenceCheck はコメント等が参照するチケットの検証結果です。
// Valid と Invalid は重複なしのチケットIDを出現順に保持します
type ReferenceCheck struct {
	Name    string
	Total   int
	Valid   []string
	Invalid []string
}

// SanityReport はチェック結果の集計です
type SanityReport struct {
	Tickets         int
	UnmappedTickets []string
	LinkWarnings    []string
	Links           []models.TicketLink
	References      []ReferenceCheck
}

// Run はすべてのチェックを実行します。致命的な不整合があればエラーを返します
func (s *SanityChecker) Run() (*SanityReport, error) {
	tickets, err := s.csvProc.LoadAssemblaTickets()
	if err != nil {
		return nil, fmt.Errorf("Assemblaチケット読み込みエラー: %w", err)
	}
	comments, err := s.csvProc.LoadAssemblaComments()
	if err != nil {
		return nil, fmt.Errorf("コメント読み込みエラー: %w", err)
	}
	tags, err := s.csvProc.LoadAssemblaTags()
	if err != nil {
		return nil, fmt.Errorf("タグ読み込みエラー: %w", err)
	}
	attachments, err := s.csvProc.LoadAssemblaAttachments()
	if err != nil {
		return nil, fmt.Errorf("添付ファイル読み込みエラー: %w", err)
	}
	jiraTickets, err := s.csvProc.LoadJiraTickets()
	if err != nil {
		return nil, fmt.Errorf("JIRAチケット読み込みエラー: %w", err)
	}

	index := NewTicketIndex().AddJiraTickets(jiraTickets)

	cutoff, ok, err := s.config.TicketsCreatedOnTime()
	if err != nil {
		return nil, err
	}
	if ok {
		utils.LogInfo("Filter newer than: %s", cutoff.Format("2006-01-02"))
		tickets = FilterTickets(tickets, cutoff)
		comments = FilterCommentsByMapping(comments, index.IsMapped)
		tags = FilterTagsByMapping(tags, index.IsMapped)
		attachments = FilterAttachmentsByMapping(attachments, index.IsMapped)
	}

	utils.LogInfo("Total tickets: %d", len(tickets))
	utils.LogInfo("Total comments: %d", len(comments))
	utils.LogInfo("Total tags: %d", len(tags))
	utils.LogInfo("Total attachments: %d", len(attachments))

	if err := CheckTicketsUnique(tickets); err != nil {
		return nil, err
	}
	utils.LogInfo("Assembla tickets unique => %s", utils.Result(true))

	mappingPath := s.csvProc.JiraPath(JiraTicketsCSV)
	if err := CheckMappingMatches(mappingPath, tickets, jiraTickets); err != nil {
		return nil, err
	}
	utils.LogInfo("Jira tickets match Assembla tickets => %s", utils.Result(true))

	report := &SanityReport{Tickets: len(tickets)}

	report.UnmappedTickets = CheckTicketsMapped(s.csvProc.AssemblaPath(TicketsCSV), tickets, jiraTickets)
	utils.LogInfo("Assembla tickets match Jira tickets => %s (未対応: %d)", utils.Result(len(report.UnmappedTickets) == 0), len(report.UnmappedTickets))

	report.Links, report.LinkWarnings = ValidateLinks(jiraTickets)
	for _, w := range report.LinkWarnings {
		utils.LogWarn("%s", w)
	}

	linked := make(map[string]bool, len(report.Links))
	for _, link := range report.Links {
		linked[strconv.Itoa(link.Assembla.ID)] = true
	}

	report.References = []ReferenceCheck{
		CheckReferences("Comments", ticketIDs(comments, func(c models.AssemblaComment) string { return c.TicketID }), linked),
		CheckReferences("Tags", ticketIDs(tags, func(t models.AssemblaTag) string { return t.TicketID }), linked),
		CheckReferences("Attachments", ticketIDs(attachments, func(a models.AssemblaAttachment) string { return a.TicketID }), linked),
	}
	for _, ref := range report.References {
		utils.LogInfo("%s %d valid tickets", ref.Name, len(ref.Valid))
		utils.LogInfo("%s %d invalid tickets", ref.Name, len(ref.Invalid))
		for _, id := range ref.Invalid {
			utils.LogWarn("%s: assembla_ticket_id=%s %s", ref.Name, id, utils.Result(false))
		}
	}

	return report, nil
}

// CheckTicketsUnique はチケットIDと番号が数字で、かつ重複していないことを確認します
func CheckTicketsUnique(tickets []models.AssemblaTicket) error {
	idSeen := make(map[string]int)
	nrSeen := make(map[string]int)
	dups := &DuplicateTicketsError{}

	for i, t := range tickets {
		if !IsNumericID(t.ID) || !IsNumericID(t.Number) {
			return fmt.Errorf("%w: Invalid line %d: id='%s', number='%s'", ErrInvalidRecord, i+1, t.ID, t.Number)
		}
		idSeen[t.ID]++
		if idSeen[t.ID] == 2 {
			dups.IDs = append(dups.IDs, t.ID)
		}
		nrSeen[t.Number]++
		if nrSeen[t.Number] == 2 {
			dups.Numbers = append(dups.Numbers, t.Number)
		}
	}

	if len(dups.IDs) > 0 || len(dups.Numbers) > 0 {
		return dups
	}
	return nil
}

// CheckMappingMatches は移行マッピングの各行が既存のAssemblaチケットを参照し、番号が一致することを確認します
func CheckMappingMatches(path string, tickets []models.AssemblaTicket, jiraTickets []models.JiraTicket) error {
	byID := make(map[string]models.AssemblaTicket, len(tickets))
	for _, t := range tickets {
		byID[t.ID] = t
	}

	for i, jt := range jiraTickets {
		ticket, ok := byID[jt.AssemblaTicketID]
		if !ok {
			return fmt.Errorf("%w: %s:%d cannot find Assembla ticket with id='%s', ticket_jira='%s'",
				ErrMappingMismatch, path, i+1, jt.AssemblaTicketID, jiraTicketString(jt))
		}
		if ticket.Number != jt.AssemblaTicketNumber {
			return fmt.Errorf("%w: %s:%d cannot find Assembla ticket with number='%s', ticket_jira='%s'",
				ErrMappingMismatch, path, i+1, jt.AssemblaTicketNumber, jiraTicketString(jt))
		}
	}
	return nil
}

// CheckTicketsMapped はJIRAに対応するイシューがないAssemblaチケットを報告します (警告のみ)
func CheckTicketsMapped(path string, tickets []models.AssemblaTicket, jiraTickets []models.JiraTicket) []string {
	byID := make(map[string]models.JiraTicket, len(jiraTickets))
	for _, jt := range jiraTickets {
		byID[jt.AssemblaTicketID] = jt
	}

	var problems []string
	for i, t := range tickets {
		jt, ok := byID[t.ID]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%s:%d cannot find Jira ticket with assembla_ticket_id='%s'", path, i+1, t.ID))
		case jt.AssemblaTicketNumber != t.Number:
			problems = append(problems, fmt.Sprintf("%s:%d cannot find Jira ticket with assembla_ticket_number='%s'", path, i+1, t.Number))
		default:
			continue
		}
		utils.LogWarn("%s", problems[len(problems)-1])
	}
	return problems
}

var jiraKeyPattern = regexp.MustCompile(`^[A-Z]+-\d+$`)

// ValidateLinks は result=OK のマッピング行を検証し、TicketLink に変換します。
// 不正な値や重複は警告として返します
func ValidateLinks(jiraTickets []models.JiraTicket) ([]models.TicketLink, []string) {
	var links []models.TicketLink
	var warnings []string
	warn := func(line int, format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf("Line %d: ", line)+fmt.Sprintf(format, args...))
	}

	seen := map[string]map[string]bool{
		"jira_ticket_id":         {},
		"jira_ticket_key":        {},
		"assembla_ticket_id":     {},
		"assembla_ticket_number": {},
	}

	for i, jt := range jiraTickets {
		if jt.Result != models.ResultOK {
			continue
		}
		line := i + 1
		fields := []struct {
			name  string
			value string
			valid bool
		}{
			{"jira_ticket_id", jt.JiraTicketID, IsNumericID(jt.JiraTicketID)},
			{"jira_ticket_key", jt.JiraTicketKey, jiraKeyPattern.MatchString(jt.JiraTicketKey)},
			{"assembla_ticket_id", jt.AssemblaTicketID, IsNumericID(jt.AssemblaTicketID)},
			{"assembla_ticket_number", jt.AssemblaTicketNumber, IsNumericID(jt.AssemblaTicketNumber)},
		}

		for _, f := range fields {
			if !f.valid {
				warn(line, "Invalid %s='%s'", f.name, f.value)
			}
		}
		for _, f := range fields {
			if seen[f.name][f.value] {
				warn(line, "already seen %s='%s'", f.name, f.value)
			}
			seen[f.name][f.value] = true
		}

		var link models.TicketLink
		link.Jira.ID, _ = strconv.Atoi(jt.JiraTicketID)
		link.Jira.Key = jt.JiraTicketKey
		link.Assembla.ID, _ = strconv.Atoi(jt.AssemblaTicketID)
		link.Assembla.Number, _ = strconv.Atoi(jt.AssemblaTicketNumber)
		link.IssueType.ID, _ = strconv.Atoi(jt.IssueTypeID)
		link.IssueType.Name = jt.IssueTypeName
		links = append(links, link)
	}

	return links, warnings
}

// CheckReferences はチケットIDの一覧を検証済みリンクと照合します
func CheckReferences(name string, ids []string, linked map[string]bool) ReferenceCheck {
	check := ReferenceCheck{Name: name, Total: len(ids)}
	seen := make(map[string]bool)
	for _, id := range ids {
		key := normalizeID(id)
		if seen[key] {
			continue
		}
		seen[key] = true
		if linked[key] {
			check.Valid = append(check.Valid, key)
		} else {
			check.Invalid = append(check.Invalid, key)
		}
	}
	return check
}

func ticketIDs[T any](items []T, ticketID func(T) string) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, ticketID(item))
	}
	return ids
}

// 先頭のゼロ等を除いた数値表現に揃えます
func normalizeID(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil {
		return id
	}
	return strconv.Itoa(n)
}

func jiraTicketString(jt models.JiraTicket) string {
	return fmt.Sprintf("jira_ticket_id=%s,jira_ticket_key=%s,assembla_ticket_id=%s,assembla_ticket_number=%s",
		jt.JiraTicketID, jt.JiraTicketKey, jt.AssemblaTicketID, jt.AssemblaTicketNumber)
}
