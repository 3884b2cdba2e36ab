package notification

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NotificationType は通知の種別。
type NotificationType string

// 通知種別の一覧。
const (
	TypeGeneral NotificationType = "general"
	TypeJob     NotificationType = "job"
	TypeAlert   NotificationType = "alert"
	TypeSystem  NotificationType = "system"
)

// NormalizeType は種別文字列を正規化する。不正な値は general にフォールバックする。
func NormalizeType(s string) NotificationType {
	switch t := NotificationType(s); t {
	case TypeGeneral, TypeJob, TypeAlert, TypeSystem:
		return t
	default:
		return TypeGeneral
	}
}

// Priority は通知の優先度。
type Priority string

// 優先度の一覧。
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NormalizePriority は優先度文字列を正規化する。不正な値は normal にフォールバックする。
func NormalizePriority(s string) Priority {
	switch p := Priority(s); p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p
	default:
		return PriorityNormal
	}
}

// Rank は優先度の重さを返す。urgent > high > normal > low。
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// priorityRankSQL は優先度の重さで並べるためのSQL式。Rankと同じ順序にすること。
const priorityRankSQL = `CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'normal' THEN 2 WHEN 'low' THEN 1 ELSE 0 END`

// Status は配信ワーカーが管理する処理状態。
type Status string

// 処理状態の一覧。
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// ParseStatus は処理状態文字列を検証する。
func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.TrimSpace(s)); st {
	case StatusPending, StatusProcessing, StatusProcessed, StatusFailed:
		return st, true
	default:
		return "", false
	}
}

// PayloadKind は通知に添付するデータの形。
type PayloadKind int

const (
	// PayloadNone はデータなし（NULLとして保存）。
	PayloadNone PayloadKind = iota
	// PayloadStructured はJSONオブジェクトまたは配列。
	PayloadStructured
	// PayloadText は解釈しない文字列。そのまま保存する。
	PayloadText
)

// Payload は通知の data フィールド。構造化データか不透明な文字列のどちらかを保持する。
type Payload struct {
	kind  PayloadKind
	value string
}

// NoPayload はデータなしのPayloadを返す。
func NoPayload() Payload { return Payload{kind: PayloadNone} }

// TextPayload は文字列をそのまま保存するPayloadを返す。
func TextPayload(s string) Payload { return Payload{kind: PayloadText, value: s} }

// StructuredPayload は任意の値をJSONにシリアライズしたPayloadを返す。
// HTMLエスケープは行わず、Unicodeはそのまま保持する。
func StructuredPayload(v any) (Payload, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return Payload{}, fmt.Errorf("データのシリアライズに失敗: %w", err)
	}
	return Payload{kind: PayloadStructured, value: strings.TrimSuffix(buf.String(), "\n")}, nil
}

// ParsePayload はリクエストで受け取った文字列を解釈する。
// JSONオブジェクトまたは配列として解釈できれば構造化データとして空白を詰めて保持し、
// それ以外（不正なJSON、スカラー値）は元の文字列のまま保持する。失敗はしない。
func ParsePayload(raw string) Payload {
	if raw == "" {
		return NoPayload()
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed != "" && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid([]byte(trimmed)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(trimmed)); err == nil {
			return Payload{kind: PayloadStructured, value: buf.String()}
		}
	}
	return TextPayload(raw)
}

// Kind はPayloadの形を返す。
func (p Payload) Kind() PayloadKind { return p.kind }

// String は保存される文字列を返す。PayloadNoneの場合は空文字列。
func (p Payload) String() string { return p.value }

// nullString はカラムに書き込む値を返す。
func (p Payload) nullString() sql.NullString {
	if p.kind == PayloadNone {
		return sql.NullString{}
	}
	return sql.NullString{String: p.value, Valid: true}
}

// Notification は mobile_notifications の1行。
type Notification struct {
	ID               int64            `json:"id"`
	MobileUserID     int64            `json:"mobile_user_id"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	Data             *string          `json:"data"`
	NotificationType NotificationType `json:"notification_type"`
	Priority         Priority         `json:"priority"`
	Status           Status           `json:"status"`
	ProcessedAt      *time.Time       `json:"processed_at"`
	IsRead           bool             `json:"is_read"`
	ReadAt           *time.Time       `json:"read_at"`
	ReadDeviceID     *string          `json:"read_device_id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        *time.Time       `json:"updated_at"`
}

// CreateParams は通知作成の入力。
type CreateParams struct {
	MobileUserID int64
	Title        string
	Message      string
	Data         Payload
	// NotificationType と Priority は未検証の文字列を受け取り、作成時に正規化する。
	NotificationType string
	Priority         string
}

// ページングの既定値と上限。
const (
	DefaultLimit = 20
	MaxLimit     = 100
	maxPage      = 1 << 31
)

// ListQuery は通知一覧の取得条件。
type ListQuery struct {
	MobileUserID int64
	Page         int
	Limit        int
	UnreadOnly   bool
}

// normalize はページを1以上、件数を1〜MaxLimitに丸める。
func (q ListQuery) normalize() ListQuery {
	q.Page = max(1, min(q.Page, maxPage))
	q.Limit = max(1, min(MaxLimit, q.Limit))
	return q
}

// offset はSQLのOFFSET値を返す。
func (q ListQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

// Pagination は一覧のページ情報。
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int64 `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	// UnreadCount は一覧の絞り込み条件に関係なく、ユーザーの未読件数全体を表す。
	UnreadCount int64 `json:"unread_count"`
}

// totalPages は ceil(totalItems / limit) を返す。0件の場合は0ページ。
func totalPages(totalItems int64, limit int) int64 {
	if totalItems <= 0 || limit <= 0 {
		return 0
	}
	l := int64(limit)
	return (totalItems + l - 1) / l
}

// ListResult は通知一覧の取得結果。
type ListResult struct {
	Items      []Notification
	Pagination Pagination
}

// Stats はユーザーごとの通知集計。general種別の件数は含まない。
type Stats struct {
	TotalNotifications  int64 `json:"total_notifications" db:"total_notifications"`
	UnreadCount         int64 `json:"unread_count" db:"unread_count"`
	JobNotifications    int64 `json:"job_notifications" db:"job_notifications"`
	AlertNotifications  int64 `json:"alert_notifications" db:"alert_notifications"`
	SystemNotifications int64 `json:"system_notifications" db:"system_notifications"`
	UrgentNotifications int64 `json:"urgent_notifications" db:"urgent_notifications"`
}

// MarkReadResult は単一通知の既読化結果。
type MarkReadResult struct {
	// AlreadyRead は呼び出し前から既読だった場合に真。この場合は何も更新していない。
	AlreadyRead bool
}
