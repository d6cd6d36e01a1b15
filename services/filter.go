package services

import (
	"fmt"

	"github.com/agentstation/utc"

	"assemblatojira/models"
	"assemblatojira/utils"
)

// NewerThan は作成日時がカットオフ以降 (>=) であればtrueを返します
func NewerThan(createdOn, cutoff utc.Time) bool {
	return !createdOn.Time.Before(cutoff.Time)
}

// selectByTicket はチケットIDに対する判定でスライスを絞り込みます
func selectByTicket[T any](items []T, ticketID func(T) string, keep func(string) bool) []T {
	result := make([]T, 0, len(items))
	for _, item := range items {
		if keep(ticketID(item)) {
			result = append(result, item)
		}
	}
	return result
}

// FilterTickets は作成日時がカットオフ以降のチケットのみを残します
func FilterTickets(tickets []models.AssemblaTicket, cutoff utc.Time) []models.AssemblaTicket {
	result := make([]models.AssemblaTicket, 0, len(tickets))
	for _, t := range tickets {
		if NewerThan(t.CreatedOn, cutoff) {
			result = append(result, t)
		}
	}
	logFiltered("Tickets", len(tickets), len(result))
	return result
}

// FilterAttachmentsByTicket は添付ファイルが属するチケットの作成日時で絞り込みます。
// 添付ファイル自体の作成日時ではない点に注意してください
func FilterAttachmentsByTicket(attachments []models.AssemblaAttachment, ticketsByID map[string]models.AssemblaTicket, cutoff utc.Time) ([]models.AssemblaAttachment, error) {
	result := make([]models.AssemblaAttachment, 0, len(attachments))
	for _, a := range attachments {
		ticket, ok := ticketsByID[a.TicketID]
		if !ok {
			return nil, fmt.Errorf("%w: ticket id='%s'", ErrTicketNotFound, a.TicketID)
		}
		if NewerThan(ticket.CreatedOn, cutoff) {
			result = append(result, a)
		}
	}
	logFiltered("Attachments", len(attachments), len(result))
	return result, nil
}

// FilterCommentsByMapping はマッピング済みチケットのコメントのみを残します
func FilterCommentsByMapping(comments []models.AssemblaComment, mapped func(string) bool) []models.AssemblaComment {
	result := selectByTicket(comments, func(c models.AssemblaComment) string { return c.TicketID }, mapped)
	logFiltered("Comments", len(comments), len(result))
	return result
}

// FilterTagsByMapping はマッピング済みチケットのタグのみを残します
func FilterTagsByMapping(tags []models.AssemblaTag, mapped func(string) bool) []models.AssemblaTag {
	result := selectByTicket(tags, func(t models.AssemblaTag) string { return t.TicketID }, mapped)
	logFiltered("Tags", len(tags), len(result))
	return result
}

// FilterAttachmentsByMapping はマッピング済みチケットの添付ファイルのみを残します
func FilterAttachmentsByMapping(attachments []models.AssemblaAttachment, mapped func(string) bool) []models.AssemblaAttachment {
	result := selectByTicket(attachments, func(a models.AssemblaAttachment) string { return a.TicketID }, mapped)
	logFiltered("Attachments", len(attachments), len(result))
	return result
}

func logFiltered(name string, before, after int) {
	utils.LogInfo("%s: %d => %d ∆%d", name, before, after, before-after)
}
