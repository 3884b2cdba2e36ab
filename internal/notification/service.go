package notification

import (
	"context"
	"strings"
)

// 配信ワーカー向け pending 一覧の件数。
const (
	DefaultPendingLimit = 50
	MaxPendingLimit     = 500
)

// Repository はServiceが利用する永続化層の操作。*Store が実装する。
type Repository interface {
	UserIsActive(ctx context.Context, userID int64) (bool, error)
	InsertNotification(ctx context.Context, userID int64, title, message string, data Payload, typ NotificationType, priority Priority) (int64, error)
	ListNotifications(ctx context.Context, q ListQuery) ([]Notification, int64, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, notificationID int64, deviceID string) (bool, error)
	MarkAllRead(ctx context.Context, userID int64, deviceID string) (int64, error)
	Stats(ctx context.Context, userID int64) (Stats, error)
	ListPending(ctx context.Context, limit int) ([]Notification, error)
	UpdateStatus(ctx context.Context, notificationID int64, status Status) error
}

// Service は通知の作成・取得・既読化を行う。
// 呼び出し間で状態を持たず、各操作は独立して実行できる。
type Service struct {
	repo Repository
}

// NewService は新しいServiceを生成する。
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ValidateUser はユーザーIDが指定されており、有効なユーザーであることを確認する。
func (s *Service) ValidateUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return newValidationError("mobile_user_id", msgUserIDRequired)
	}
	active, err := s.repo.UserIsActive(ctx, userID)
	if err != nil {
		return err
	}
	if !active {
		return ErrUserNotFound
	}
	return nil
}

// CreateNotification は通知を作成し、採番されたIDを返す。
// 種別と優先度は不正な値でも失敗させず、既定値に正規化する。
func (s *Service) CreateNotification(ctx context.Context, p CreateParams) (int64, error) {
	if p.MobileUserID <= 0 {
		return 0, newValidationError("mobile_user_id", msgUserIDRequired)
	}
	title := strings.TrimSpace(p.Title)
	message := strings.TrimSpace(p.Message)
	if title == "" || message == "" {
		return 0, newValidationError("title", msgTitleMessageRequired)
	}
	if err := s.ValidateUser(ctx, p.MobileUserID); err != nil {
		return 0, err
	}

	return s.repo.InsertNotification(ctx,
		p.MobileUserID,
		title,
		message,
		p.Data,
		NormalizeType(strings.TrimSpace(p.NotificationType)),
		NormalizePriority(strings.TrimSpace(p.Priority)),
	)
}

// ListNotifications はユーザーの通知をページ単位で返す。
// ページと件数は範囲外でも失敗させず、有効な範囲に丸める。
func (s *Service) ListNotifications(ctx context.Context, q ListQuery) (ListResult, error) {
	if err := s.ValidateUser(ctx, q.MobileUserID); err != nil {
		return ListResult{}, err
	}
	q = q.normalize()

	items, total, unread, err := s.repo.ListNotifications(ctx, q)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Notification{}
	}

	return ListResult{
		Items: items,
		Pagination: Pagination{
			CurrentPage: q.Page,
			TotalPages:  totalPages(total, q.Limit),
			TotalItems:  total,
			UnreadCount: unread,
		},
	}, nil
}

// GetUnreadCount はユーザーの未読件数を返す。
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int64, error) {
	if err := s.ValidateUser(ctx, userID); err != nil {
		return 0, err
	}
	return s.repo.CountUnread(ctx, userID)
}

// MarkAsRead は通知を既読にする。既読済みの通知に対しては何も変更せずに成功する。
// 通知IDのみで操作するため、ユーザーの検証は行わない。
func (s *Service) MarkAsRead(ctx context.Context, notificationID int64, deviceID string) (MarkReadResult, error) {
	if notificationID <= 0 {
		return MarkReadResult{}, newValidationError("notification_id", msgNotificationIDRequired)
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return MarkReadResult{}, newValidationError("device_id", msgDeviceIDRequired)
	}

	alreadyRead, err := s.repo.MarkRead(ctx, notificationID, deviceID)
	if err != nil {
		return MarkReadResult{}, err
	}
	return MarkReadResult{AlreadyRead: alreadyRead}, nil
}

// MarkAllAsRead はユーザーの未読通知をすべて既読にし、実際に更新した件数を返す。
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64, deviceID string) (int64, error) {
	if userID <= 0 {
		return 0, newValidationError("mobile_user_id", msgUserIDRequired)
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return 0, newValidationError("device_id", msgDeviceIDRequired)
	}
	if err := s.ValidateUser(ctx, userID); err != nil {
		return 0, err
	}
	return s.repo.MarkAllRead(ctx, userID, deviceID)
}

// GetStats はユーザーの通知の集計を返す。
func (s *Service) GetStats(ctx context.Context, userID int64) (Stats, error) {
	if err := s.ValidateUser(ctx, userID); err != nil {
		return Stats{}, err
	}
	return s.repo.Stats(ctx, userID)
}

// ListPending は配信待ちの通知を優先度の高い順、古い順に返す。
// limitが0以下の場合は既定値、上限を超える場合は上限に丸める。
func (s *Service) ListPending(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultPendingLimit
	}
	limit = min(limit, MaxPendingLimit)

	items, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Notification{}
	}
	return items, nil
}

// UpdateStatus は配信ワーカーが報告した処理状態を記録する。
func (s *Service) UpdateStatus(ctx context.Context, notificationID int64, status string) error {
	if notificationID <= 0 {
		return newValidationError("notification_id", msgNotificationIDRequired)
	}
	st, ok := ParseStatus(status)
	if !ok {
		return newValidationError("status", msgStatusInvalid)
	}
	return s.repo.UpdateStatus(ctx, notificationID, st)
}
