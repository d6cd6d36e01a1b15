package services

import (
	"errors"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assemblatojira/models"
)

func day(y int, m time.Month, d int) utc.Time {
	return utc.New(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestNewerThan(t *testing.T) {
	cutoff := day(2017, 3, 1)
	assert.True(t, NewerThan(day(2017, 3, 1), cutoff), "equal timestamps are kept")
	assert.True(t, NewerThan(day(2017, 3, 2), cutoff))
	assert.False(t, NewerThan(day(2017, 2, 28), cutoff))
	assert.False(t, NewerThan(utc.Time{}, cutoff))
}

func TestFilterTicketsNeverIncreases(t *testing.T) {
	tickets := []models.AssemblaTicket{
		{ID: "1", CreatedOn: day(2017, 1, 1)},
		{ID: "2", CreatedOn: day(2017, 3, 1)},
		{ID: "3", CreatedOn: day(2017, 5, 1)},
	}

	for _, cutoff := range []utc.Time{day(2016, 1, 1), day(2017, 3, 1), day(2018, 1, 1)} {
		got := FilterTickets(tickets, cutoff)
		assert.LessOrEqual(t, len(got), len(tickets))
		for _, ticket := range got {
			assert.False(t, ticket.CreatedOn.Time.Before(cutoff.Time))
		}
	}

	got := FilterTickets(tickets, day(2017, 3, 1))
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestFilterAttachmentsByTicket(t *testing.T) {
	ticketsByID := map[string]models.AssemblaTicket{
		"1": {ID: "1", CreatedOn: day(2017, 1, 1)},
		"2": {ID: "2", CreatedOn: day(2017, 6, 1)},
	}
	attachments := []models.AssemblaAttachment{
		// 添付ファイル自体は新しいが、チケットが古いので除外される
		{ID: "a1", TicketID: "1", CreatedAt: "2018-01-01T00:00:00Z"},
		{ID: "a2", TicketID: "2", CreatedAt: "2017-06-02T00:00:00Z"},
	}

	got, err := FilterAttachmentsByTicket(attachments, ticketsByID, day(2017, 3, 1))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a2", got[0].ID)

	attachments = append(attachments, models.AssemblaAttachment{ID: "a3", TicketID: "404"})
	_, err = FilterAttachmentsByTicket(attachments, ticketsByID, day(2017, 3, 1))
	assert.True(t, errors.Is(err, ErrTicketNotFound))
}

func TestFilterByMapping(t *testing.T) {
	mapped := func(id string) bool { return id == "1" }

	comments := FilterCommentsByMapping([]models.AssemblaComment{{TicketID: "1"}, {TicketID: "2"}}, mapped)
	assert.Len(t, comments, 1)

	tags := FilterTagsByMapping([]models.AssemblaTag{{TicketID: "2"}}, mapped)
	assert.Empty(t, tags)

	attachments := FilterAttachmentsByMapping([]models.AssemblaAttachment{{TicketID: "1"}, {TicketID: "1"}}, mapped)
	assert.Len(t, attachments, 2)
}
