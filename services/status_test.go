package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assemblatojira/models"
)

func TestPlanStatus(t *testing.T) {
	tests := []struct {
		status string
		want   StatusPlan
	}{
		{"Done", StatusPlan{Target: StatusDone, Resolution: ResolutionDone}},
		{"DONE", StatusPlan{Target: StatusDone, Resolution: ResolutionDone}},
		{"invalid", StatusPlan{Target: StatusDone, Resolution: ResolutionWontDo}},
		{"New", StatusPlan{Noop: true, Target: StatusToDo}},
		{"In Progress", StatusPlan{Target: StatusInProgress}},
		{"Blocked", StatusPlan{Target: StatusInProgress}},
		{"Ready for Acceptance", StatusPlan{Target: StatusInProgress}},
		{"", StatusPlan{Target: StatusInProgress}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PlanStatus(tt.status), tt.status)
	}
}

func TestCountStatuses(t *testing.T) {
	counts := CountStatuses([]models.AssemblaTicket{
		{Status: "New"}, {Status: "Done"}, {Status: "New"}, {Status: "New"},
	})
	assert.Equal(t, []StatusCount{{"New", 3}, {"Done", 1}}, counts)
}

func TestExtraSummaryTypes(t *testing.T) {
	types := ExtraSummaryTypes([]models.AssemblaTicket{
		{Summary: "BUG: crash"},
		{Summary: "SPIKE: research"},
		{Summary: "ALPHA: first"},
		{Summary: "SPIKE: again"},
		{Summary: "no prefix: here"},
	}, []string{"bug"})
	assert.Equal(t, []string{"ALPHA", "SPIKE"}, types)
}

func TestStatusUpdaterRun(t *testing.T) {
	cfg, p := newTestEnv(t)
	writeStandardFixtures(t, p)
	jira := newFakeJira()

	updates, err := NewStatusUpdater(cfg, jira, p).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 4)

	// サンプルイシューは最初のチケット (101 → 10001) で、報告者 alice@assembla の @ 以降は除去される
	assert.Equal(t, []string{
		"transitions 10001 as alice",
		"transition 10002 31",
		"resolution 10002 10000",
		"transition 10003 31",
		"resolution 10003 10001",
		"transition 10004 11",
	}, jira.calls)

	assert.Equal(t, models.StatusUpdate{
		Result: models.ResultOK, AssemblaTicketID: "101", AssemblaTicketStatus: "New", JiraTicketID: "10001",
		From: models.StatusRef{ID: "10000", Name: StatusToDo}, To: models.StatusRef{ID: "10000", Name: StatusToDo},
	}, updates[0])
	assert.Equal(t, models.StatusRef{ID: "10001", Name: StatusDone}, updates[1].To)
	assert.Equal(t, models.StatusRef{ID: "3", Name: StatusInProgress}, updates[3].To)

	lines := readLines(t, p.JiraPath(StatusUpdatesCSV))
	require.Len(t, lines, 5)
	assert.Equal(t, "OK,104,Testable,10004,10000,to do,3,in progress", lines[4])
}

func TestStatusUpdaterRunRecordsFailures(t *testing.T) {
	cfg, p := newTestEnv(t)
	writeStandardFixtures(t, p)
	jira := newFakeJira()
	jira.failIssues["10002"] = true

	updates, err := NewStatusUpdater(cfg, jira, p).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ResultNOK, updates[1].Result)
	assert.Equal(t, models.ResultOK, updates[2].Result, "processing continues after a failure")
	assert.NotContains(t, jira.calls, "resolution 10002 10000")

	lines := readLines(t, p.JiraPath(StatusUpdatesCSV))
	assert.Equal(t, "NOK,102,Done,10002,0,0,0,0", lines[2])
}

func TestStatusUpdaterRunMissingStatuses(t *testing.T) {
	cfg, p := newTestEnv(t)
	writeStandardFixtures(t, p)
	cfg.JiraAPIStatuses = "New:To Do,Done"

	_, err := NewStatusUpdater(cfg, newFakeJira(), p).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingStatuses))

	var missing *MissingStatusesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"Invalid", "Testable"}, missing.Statuses)
}

func TestStatusUpdaterRunNoTransitions(t *testing.T) {
	cfg, p := newTestEnv(t)
	writeStandardFixtures(t, p)

	jira := newFakeJira()
	jira.transitions = nil
	_, err := NewStatusUpdater(cfg, jira, p).Run(context.Background())
	assert.True(t, errors.Is(err, ErrNoTransitions))

	jira = newFakeJira()
	jira.transitions = jira.transitions[:1] // in progress のみ
	_, err = NewStatusUpdater(cfg, jira, p).Run(context.Background())
	assert.True(t, errors.Is(err, ErrNoTransitions))
	assert.Equal(t, []string{"transitions 10001 as alice"}, jira.calls, "no transition is applied before aborting")
}

func TestStatusUpdaterRunWithCutoff(t *testing.T) {
	cfg, p := newTestEnv(t)
	writeStandardFixtures(t, p)
	cfg.TicketsCreatedOn = "2017-03-10"

	jira := newFakeJira()
	updates, err := NewStatusUpdater(cfg, jira, p).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "103", updates[0].AssemblaTicketID)
	assert.Equal(t, "transitions 10003 as alice", jira.calls[0])
}
