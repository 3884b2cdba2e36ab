package notification

import "strings"

// Operation はリクエストハンドラが受け付ける操作。
type Operation string

// 操作の一覧。
const (
	OpCreate      Operation = "create"
	OpList        Operation = "list"
	OpMarkRead    Operation = "mark_read"
	OpUnreadCount Operation = "unread_count"
	OpStats       Operation = "stats"
	OpMarkAllRead Operation = "mark_all_read"
)

// legacyOpcodes は既存モバイルアプリが送る数値の操作コード。
var legacyOpcodes = map[string]Operation{
	"20": OpCreate,
	"21": OpList,
	"22": OpMarkRead,
	"23": OpUnreadCount,
	"24": OpStats,
	"25": OpMarkAllRead,
}

// ParseOperation は操作名または数値の操作コードを解釈する。
func ParseOperation(s string) (Operation, bool) {
	s = strings.TrimSpace(s)
	if op, ok := legacyOpcodes[s]; ok {
		return op, true
	}
	switch op := Operation(strings.ToLower(s)); op {
	case OpCreate, OpList, OpMarkRead, OpUnreadCount, OpStats, OpMarkAllRead:
		return op, true
	default:
		return "", false
	}
}
