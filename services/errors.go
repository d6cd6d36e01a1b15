package services

import (
	"errors"
	"fmt"
	"strings"
)

// 実行全体を中断するエラー
var (
	ErrDuplicateTickets = errors.New("チケットが重複しています")
	ErrMappingMismatch  = errors.New("マッピングがAssemblaチケットと一致しません")
	ErrMissingStatuses  = errors.New("ステータスマッピングが不足しています")
	ErrNoTransitions    = errors.New("利用可能なトランジションがありません")
	ErrTicketNotFound   = errors.New("チケットが見つかりません")
	ErrInvalidRecord    = errors.New("不正なレコードです")
	ErrTooManyFilenames = errors.New("ファイル名の連番が上限に達しました")
)

// InvalidRecordError はCSVの不正な行を表します
type InvalidRecordError struct {
	File    string
	Line    int
	Message string
}

// Error implements the error interface
func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// Is implements errors.Is support
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// DuplicateTicketsError は重複したチケットIDと番号を保持します
type DuplicateTicketsError struct {
	IDs     []string
	Numbers []string
}

// Error implements the error interface
func (e *DuplicateTicketsError) Error() string {
	var parts []string
	if len(e.IDs) > 0 {
		parts = append(parts, "Duplicate ticket ids: "+strings.Join(e.IDs, ","))
	}
	if len(e.Numbers) > 0 {
		parts = append(parts, "Duplicate ticket nrs: "+strings.Join(e.Numbers, ","))
	}
	return strings.Join(parts, "; ")
}

// Is implements errors.Is support
func (e *DuplicateTicketsError) Is(target error) bool {
	return target == ErrDuplicateTickets
}

// MissingStatusesError はマッピングされていないステータスを保持します
type MissingStatusesError struct {
	Statuses []string
}

// Error implements the error interface
func (e *MissingStatusesError) Error() string {
	return fmt.Sprintf("JIRA_API_STATUSESに以下のステータスがありません: %s", strings.Join(e.Statuses, ", "))
}

// Is implements errors.Is support
func (e *MissingStatusesError) Is(target error) bool {
	return target == ErrMissingStatuses
}
