package services

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"assemblatojira/api"
	"assemblatojira/config"
	"assemblatojira/models"
	"assemblatojira/utils"
)

// JIRA側のステータスと解決状況の名前
const (
	StatusToDo       = "to do"
	StatusInProgress = "in progress"
	StatusDone       = "done"

	ResolutionDone   = "Done"
	ResolutionWontDo = "Won't do"
)

// StatusPlan はAssemblaステータスに対して行う操作です
type StatusPlan struct {
	Noop       bool
	Target     string
	Resolution string
}

// PlanStatus はAssemblaステータスから適用するJIRAステータスを決定します。
// done/invalid は done (解決状況 Done/Won't do)、new は何もしない、それ以外はすべて in progress です
func PlanStatus(status string) StatusPlan {
	switch {
	case strings.EqualFold(status, "done"):
		return StatusPlan{Target: StatusDone, Resolution: ResolutionDone}
	case strings.EqualFold(status, "invalid"):
		return StatusPlan{Target: StatusDone, Resolution: ResolutionWontDo}
	case strings.EqualFold(status, "new"):
		return StatusPlan{Noop: true, Target: StatusToDo}
	default:
		// TODO: testable, blocked, ready for acceptance 等に対応するJIRAワークフローが用意できたら個別に遷移させる
		return StatusPlan{Target: StatusInProgress}
	}
}

// JiraAPI はステータス更新と添付ファイルアップロードで使うJIRA APIです
type JiraAPI interface {
	CheckAuth(ctx context.Context) error
	UserCredentials(login, email string) api.Credentials
	GetTransitions(ctx context.Context, issueID string, creds api.Credentials) ([]models.Transition, error)
	TransitionIssue(ctx context.Context, issueID, transitionID string, creds api.Credentials) error
	UpdateResolution(ctx context.Context, issueID, resolutionID string, creds api.Credentials) error
	UploadAttachment(ctx context.Context, issueID, filePath string, creds api.Credentials) (string, error)
}

// StatusUpdater はAssemblaのステータスをJIRAイシューに反映します
type StatusUpdater struct {
	config  *config.Config
	jira    JiraAPI
	csvProc *CSVProcessor
}

// NewStatusUpdater は新しいステータス更新処理を作成します
func NewStatusUpdater(cfg *config.Config, jira JiraAPI, csvProc *CSVProcessor) *StatusUpdater {
	return &StatusUpdater{config: cfg, jira: jira, csvProc: csvProc}
}

// statusRun は1回の実行の状態です
type statusRun struct {
	index       *TicketIndex
	transitions map[string]string // 小文字の遷移先ステータス名 → トランジションID
	total       int
}

// StatusCount はAssemblaステータスごとのチケット数です
type StatusCount struct {
	Status string
	Count  int
}

// CountStatuses はステータスごとのチケット数を出現順に集計します
func CountStatuses(tickets []models.AssemblaTicket) []StatusCount {
	var counts []StatusCount
	pos := make(map[string]int)
	for _, t := range tickets {
		i, ok := pos[t.Status]
		if !ok {
			pos[t.Status] = len(counts)
			counts = append(counts, StatusCount{Status: t.Status, Count: 1})
			continue
		}
		counts[i].Count++
	}
	return counts
}

var summaryType = regexp.MustCompile(`^([A-Z]+):`)

// ExtraSummaryTypes はサマリーの "TYPE:" 接頭辞のうち既知のタイプ以外をソートして返します
func ExtraSummaryTypes(tickets []models.AssemblaTicket, known []string) []string {
	seen := make(map[string]bool)
	var types []string
	for _, t := range tickets {
		m := summaryType.FindStringSubmatch(t.Summary)
		if m == nil {
			continue
		}
		typ := m[1]
		if seen[typ] || slices.Contains(known, strings.ToLower(typ)) {
			continue
		}
		seen[typ] = true
		types = append(types, typ)
	}
	slices.Sort(types)
	return types
}

// Run はステータス更新を実行し、結果をCSVに書き込みます
func (s *StatusUpdater) Run(ctx context.Context) ([]models.StatusUpdate, error) {
	mapping, err := config.ParseStatusMapping(s.config.JiraAPIStatuses)
	if err != nil {
		return nil, err
	}

	tickets, err := s.csvProc.LoadAssemblaTickets()
	if err != nil {
		return nil, fmt.Errorf("Assemblaチケット読み込みエラー: %w", err)
	}

	cutoff, ok, err := s.config.TicketsCreatedOnTime()
	if err != nil {
		return nil, err
	}
	if ok {
		utils.LogInfo("Filter newer than: %s", cutoff.Format("2006-01-02"))
		tickets = FilterTickets(tickets, cutoff)
	}

	utils.LogInfo("Total Assembla tickets: %d", len(tickets))

	counts := CountStatuses(tickets)
	statuses := make([]string, 0, len(counts))
	for _, c := range counts {
		utils.LogInfo("* %s: %d", c.Status, c.Count)
		statuses = append(statuses, c.Status)
	}

	if extra := ExtraSummaryTypes(tickets, s.config.AssemblaTypesExtra); len(extra) > 0 {
		utils.LogInfo("Extra statuses detected in the summary (ignored): %d", len(extra))
		for _, typ := range extra {
			utils.LogInfo("* %s", typ)
		}
	}

	if missing := mapping.Missing(statuses); len(missing) > 0 {
		utils.LogError("Sanity check => %s", utils.Result(false))
		return nil, &MissingStatusesError{Statuses: missing}
	}
	utils.LogInfo("Sanity check => %s", utils.Result(true))

	run, err := s.prepare(ctx, tickets)
	if err != nil {
		return nil, err
	}

	updates := make([]models.StatusUpdate, 0, len(tickets))
	for i, ticket := range tickets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		updates = append(updates, s.updateStatus(ctx, run, ticket, i+1))
	}

	utils.LogInfo("Total updates: %d", len(updates))
	if err := s.csvProc.WriteStatusUpdates(updates); err != nil {
		return nil, fmt.Errorf("ステータス更新結果の書き込みエラー: %w", err)
	}

	return updates, nil
}

// prepare はJIRAのステータス・解決状況・マッピングを読み込み、サンプルイシューからトランジションを取得します
func (s *StatusUpdater) prepare(ctx context.Context, tickets []models.AssemblaTicket) (*statusRun, error) {
	resolutions, err := s.csvProc.LoadJiraResolutions()
	if err != nil {
		return nil, fmt.Errorf("JIRA解決状況読み込みエラー: %w", err)
	}
	statuses, err := s.csvProc.LoadJiraStatuses()
	if err != nil {
		return nil, fmt.Errorf("JIRAステータス読み込みエラー: %w", err)
	}
	jiraTickets, err := s.csvProc.LoadJiraTickets()
	if err != nil {
		return nil, fmt.Errorf("JIRAチケット読み込みエラー: %w", err)
	}
	users, err := s.csvProc.LoadAssemblaUsers()
	if err != nil {
		return nil, fmt.Errorf("ユーザー読み込みエラー: %w", err)
	}

	utils.LogInfo("Jira ticket resolutions:")
	for _, r := range resolutions {
		utils.LogInfo("* %s: %s", r.ID, r.Name)
	}
	utils.LogInfo("Jira ticket statuses:")
	for _, st := range statuses {
		utils.LogInfo("* %s: %s", st.ID, st.Name)
	}

	run := &statusRun{
		index: NewTicketIndex().
			AddTickets(tickets).
			AddJiraTickets(jiraTickets).
			AddUsers(users).
			AddStatuses(statuses).
			AddResolutions(resolutions),
		transitions: make(map[string]string),
		total:       len(tickets),
	}

	if len(tickets) == 0 {
		return run, nil
	}

	firstID := tickets[0].ID
	issueID := run.index.AssemblaToJira[firstID]
	if issueID == "" {
		return nil, fmt.Errorf("%w: cannot find issue_id, first_id='%s'", ErrTicketNotFound, firstID)
	}

	transitions, err := s.jira.GetTransitions(ctx, issueID, s.credentials(run.index, issueID))
	if err != nil {
		return nil, fmt.Errorf("%w: first_id='%s', issue_id=%s: %v", ErrNoTransitions, firstID, issueID, err)
	}
	if len(transitions) == 0 {
		return nil, fmt.Errorf("%w: first_id='%s', issue_id=%s", ErrNoTransitions, firstID, issueID)
	}

	utils.LogInfo("Jira ticket transitions:")
	for _, t := range transitions {
		utils.LogInfo("* %s '%s' => %s '%s'", t.ID, t.Name, t.To.ID, t.To.Name)
		run.transitions[strings.ToLower(t.To.Name)] = t.ID
	}

	// 必要な遷移先がなければ更新を始める前に中断する
	for _, t := range tickets {
		plan := PlanStatus(t.Status)
		if plan.Noop {
			continue
		}
		if _, ok := run.transitions[plan.Target]; !ok {
			return nil, fmt.Errorf("%w: '%s' への遷移がありません (status='%s')", ErrNoTransitions, plan.Target, t.Status)
		}
	}

	return run, nil
}

func (s *StatusUpdater) credentials(index *TicketIndex, issueID string) api.Credentials {
	login := index.ReporterLogin(issueID)
	return s.jira.UserCredentials(login, index.Email(login))
}

// updateStatus は1件のチケットのステータスを更新します。失敗しても処理は継続します
func (s *StatusUpdater) updateStatus(ctx context.Context, run *statusRun, ticket models.AssemblaTicket, counter int) models.StatusUpdate {
	update := models.StatusUpdate{
		Result:               models.ResultNOK,
		AssemblaTicketID:     ticket.ID,
		AssemblaTicketStatus: ticket.Status,
	}
	progress := utils.Progress(counter, run.total)

	issueID := run.index.AssemblaToJira[ticket.ID]
	if issueID == "" {
		utils.LogWarn("%s assembla_ticket_id=%s: JIRAイシューが見つかりません => %s", progress, ticket.ID, utils.Result(false))
		return update
	}
	update.JiraTicketID = issueID

	plan := PlanStatus(ticket.Status)
	from := run.index.Status(StatusToDo)
	to := run.index.Status(plan.Target)

	if plan.Noop {
		update.Result = models.ResultOK
		update.From, update.To = from, to
		return update
	}

	creds := s.credentials(run.index, issueID)
	url := fmt.Sprintf("%s/rest/api/2/issue/%s/transitions", s.config.JiraAPIBase, issueID)
	if err := s.jira.TransitionIssue(ctx, issueID, run.transitions[plan.Target], creds); err != nil {
		utils.LogError("%s %v", progress, err)
		return update
	}
	utils.LogInfo("%s POST %s '%s' to '%s' => %s", progress, url, from.Name, to.Name, utils.Result(true))

	update.Result = models.ResultOK
	update.From, update.To = from, to

	if plan.Resolution != "" {
		resolutionID := run.index.ResolutionIDs[strings.ToLower(plan.Resolution)]
		if resolutionID == "" {
			utils.LogWarn("解決状況 '%s' がjira-resolutions.csvにありません: issue_id=%s", plan.Resolution, issueID)
		} else if err := s.jira.UpdateResolution(ctx, issueID, resolutionID, creds); err != nil {
			utils.LogError("%v resolution='%s'", err, plan.Resolution)
		}
	}

	return update
}
