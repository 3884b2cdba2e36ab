package notification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// defaultQueryTimeout は1操作あたりのタイムアウトの既定値。
const defaultQueryTimeout = 10 * time.Second

// notificationColumns は一覧系クエリで取得するカラム。
const notificationColumns = `id, mobile_user_id, title, message, data, notification_type,
	priority, status, processed_at, is_read, read_at, read_device_id, created_at, updated_at`

// Store は mobile_users と mobile_notifications に対するデータアクセス層。
// 各メソッドは専用の接続を取得し、終了時に必ず返却する。
// プレースホルダは MySQL と SQLite で共通の "?" を使い、現在時刻はアプリケーション側で与える。
type Store struct {
	db           *sqlx.DB
	queryTimeout time.Duration
	now          func() time.Time
}

// StoreOption はStoreの設定を変更する。
type StoreOption func(*Store)

// WithQueryTimeout は1操作あたりのタイムアウトを設定する。
func WithQueryTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.queryTimeout = d
		}
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore は新しいStoreを生成する。
func NewStore(db *sqlx.DB, opts ...StoreOption) *Store {
	s := &Store{
		db:           db,
		queryTimeout: defaultQueryTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notificationRow はスキャン用の行構造。
type notificationRow struct {
	ID               int64          `db:"id"`
	MobileUserID     int64          `db:"mobile_user_id"`
	Title            string         `db:"title"`
	Message          string         `db:"message"`
	Data             sql.NullString `db:"data"`
	NotificationType string         `db:"notification_type"`
	Priority         string         `db:"priority"`
	Status           string         `db:"status"`
	ProcessedAt      sql.NullTime   `db:"processed_at"`
	IsRead           bool           `db:"is_read"`
	ReadAt           sql.NullTime   `db:"read_at"`
	ReadDeviceID     sql.NullString `db:"read_device_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        sql.NullTime   `db:"updated_at"`
}

func (r notificationRow) toNotification() Notification {
	return Notification{
		ID:               r.ID,
		MobileUserID:     r.MobileUserID,
		Title:            r.Title,
		Message:          r.Message,
		Data:             nullStringPtr(r.Data),
		NotificationType: NotificationType(r.NotificationType),
		Priority:         Priority(r.Priority),
		Status:           Status(r.Status),
		ProcessedAt:      nullTimePtr(r.ProcessedAt),
		IsRead:           r.IsRead,
		ReadAt:           nullTimePtr(r.ReadAt),
		ReadDeviceID:     nullStringPtr(r.ReadDeviceID),
		CreatedAt:        r.CreatedAt.UTC(),
		UpdatedAt:        nullTimePtr(r.UpdatedAt),
	}
}

func toNotifications(rows []notificationRow) []Notification {
	out := make([]Notification, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toNotification())
	}
	return out
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// withConn は接続を1本取得してfnを実行し、必ず返却する。
// 接続の取得に失敗した場合はストア利用不可として扱う。
func (s *Store) withConn(ctx context.Context, op string, fn func(ctx context.Context, conn *sqlx.Conn) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return unavailableError(op, err)
	}
	defer func() { _ = conn.Close() }()

	return fn(ctx, conn)
}

// timestamp はDBに書き込む現在時刻（UTC）を返す。
func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// UserIsActive は有効なユーザーが存在するかどうかを返す。
func (s *Store) UserIsActive(ctx context.Context, userID int64) (bool, error) {
	var active bool
	err := s.withConn(ctx, "validate user", func(ctx context.Context, conn *sqlx.Conn) error {
		var id int64
		err := conn.GetContext(ctx, &id,
			"SELECT id FROM mobile_users WHERE id = ? AND is_active = 1", userID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return storageError("validate user", err)
		}
		active = true
		return nil
	})
	return active, err
}

// InsertNotification は通知を pending 状態で挿入し、採番されたIDを返す。
// 種別・優先度は呼び出し側で正規化済みであること。
func (s *Store) InsertNotification(ctx context.Context, userID int64, title, message string, data Payload, typ NotificationType, priority Priority) (int64, error) {
	var id int64
	err := s.withConn(ctx, "insert notification", func(ctx context.Context, conn *sqlx.Conn) error {
		now := s.timestamp()
		res, err := conn.ExecContext(ctx, `
			INSERT INTO mobile_notifications
				(mobile_user_id, title, message, data, notification_type, priority, status, is_read, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			userID, title, message, data.nullString(), string(typ), string(priority), string(StatusPending), now, now,
		)
		if err != nil {
			return storageError("insert notification", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return storageError("insert notification", err)
		}
		return nil
	})
	return id, err
}

// ListNotifications は一覧・総件数・未読件数を同じ接続で取得する。
// 並び順は優先度の重さの降順、作成日時の降順、IDの降順。
func (s *Store) ListNotifications(ctx context.Context, q ListQuery) ([]Notification, int64, int64, error) {
	var (
		items  []Notification
		total  int64
		unread int64
	)
	err := s.withConn(ctx, "list notifications", func(ctx context.Context, conn *sqlx.Conn) error {
		where := "WHERE mobile_user_id = ?"
		if q.UnreadOnly {
			where += " AND is_read = 0"
		}

		if err := conn.GetContext(ctx, &total,
			"SELECT COUNT(*) FROM mobile_notifications "+where, q.MobileUserID); err != nil {
			return storageError("count notifications", err)
		}

		if err := conn.GetContext(ctx, &unread,
			"SELECT COUNT(*) FROM mobile_notifications WHERE mobile_user_id = ? AND is_read = 0",
			q.MobileUserID); err != nil {
			return storageError("count unread notifications", err)
		}

		var rows []notificationRow
		if err := conn.SelectContext(ctx, &rows,
			"SELECT "+notificationColumns+" FROM mobile_notifications "+where+
				" ORDER BY "+priorityRankSQL+" DESC, created_at DESC, id DESC LIMIT ? OFFSET ?",
			q.MobileUserID, q.Limit, q.offset()); err != nil {
			return storageError("list notifications", err)
		}
		items = toNotifications(rows)
		return nil
	})
	return items, total, unread, err
}

// CountUnread はユーザーの未読件数を返す。
func (s *Store) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.withConn(ctx, "count unread notifications", func(ctx context.Context, conn *sqlx.Conn) error {
		if err := conn.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM mobile_notifications WHERE mobile_user_id = ? AND is_read = 0",
			userID); err != nil {
			return storageError("count unread notifications", err)
		}
		return nil
	})
	return count, err
}

// MarkRead は通知を既読にする。既読済みの場合は更新せずに alreadyRead=true を返す。
// 更新文にも is_read = 0 を条件に含め、同時実行時に最初の read_at を上書きしない。
func (s *Store) MarkRead(ctx context.Context, notificationID int64, deviceID string) (bool, error) {
	var alreadyRead bool
	err := s.withConn(ctx, "mark notification read", func(ctx context.Context, conn *sqlx.Conn) error {
		var isRead bool
		err := conn.GetContext(ctx, &isRead,
			"SELECT is_read FROM mobile_notifications WHERE id = ?", notificationID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		if err != nil {
			return storageError("find notification", err)
		}
		if isRead {
			alreadyRead = true
			return nil
		}

		now := s.timestamp()
		if _, err := conn.ExecContext(ctx, `
			UPDATE mobile_notifications
			SET is_read = 1, read_at = ?, read_device_id = ?, updated_at = ?
			WHERE id = ? AND is_read = 0`,
			now, deviceID, now, notificationID,
		); err != nil {
			return storageError("mark notification read", err)
		}
		return nil
	})
	return alreadyRead, err
}

// MarkAllRead はユーザーの未読通知をすべて既読にし、更新件数を返す。
func (s *Store) MarkAllRead(ctx context.Context, userID int64, deviceID string) (int64, error) {
	var updated int64
	err := s.withConn(ctx, "mark all notifications read", func(ctx context.Context, conn *sqlx.Conn) error {
		now := s.timestamp()
		res, err := conn.ExecContext(ctx, `
			UPDATE mobile_notifications
			SET is_read = 1, read_at = ?, read_device_id = ?, updated_at = ?
			WHERE mobile_user_id = ? AND is_read = 0`,
			now, deviceID, now, userID,
		)
		if err != nil {
			return storageError("mark all notifications read", err)
		}
		updated, err = res.RowsAffected()
		if err != nil {
			return storageError("mark all notifications read", err)
		}
		return nil
	})
	return updated, err
}

// Stats はユーザーの通知を1クエリで集計する。
func (s *Store) Stats(ctx context.Context, userID int64) (Stats, error) {
	var stats Stats
	err := s.withConn(ctx, "notification stats", func(ctx context.Context, conn *sqlx.Conn) error {
		if err := conn.GetContext(ctx, &stats, `
			SELECT
				COUNT(*) AS total_notifications,
				COALESCE(SUM(CASE WHEN is_read = 0 THEN 1 ELSE 0 END), 0) AS unread_count,
				COALESCE(SUM(CASE WHEN notification_type = 'job' THEN 1 ELSE 0 END), 0) AS job_notifications,
				COALESCE(SUM(CASE WHEN notification_type = 'alert' THEN 1 ELSE 0 END), 0) AS alert_notifications,
				COALESCE(SUM(CASE WHEN notification_type = 'system' THEN 1 ELSE 0 END), 0) AS system_notifications,
				COALESCE(SUM(CASE WHEN priority = 'urgent' THEN 1 ELSE 0 END), 0) AS urgent_notifications
			FROM mobile_notifications
			WHERE mobile_user_id = ?`, userID); err != nil {
			return storageError("notification stats", err)
		}
		return nil
	})
	return stats, err
}

// ListPending は pending 状態の通知を、優先度の重さの降順・作成日時の昇順で返す。
func (s *Store) ListPending(ctx context.Context, limit int) ([]Notification, error) {
	var items []Notification
	err := s.withConn(ctx, "list pending notifications", func(ctx context.Context, conn *sqlx.Conn) error {
		var rows []notificationRow
		if err := conn.SelectContext(ctx, &rows,
			"SELECT "+notificationColumns+" FROM mobile_notifications WHERE status = ?"+
				" ORDER BY "+priorityRankSQL+" DESC, created_at ASC, id ASC LIMIT ?",
			string(StatusPending), limit); err != nil {
			return storageError("list pending notifications", err)
		}
		items = toNotifications(rows)
		return nil
	})
	return items, err
}

// UpdateStatus は処理状態を更新する。processed の場合は processed_at も記録する。
func (s *Store) UpdateStatus(ctx context.Context, notificationID int64, status Status) error {
	return s.withConn(ctx, "update notification status", func(ctx context.Context, conn *sqlx.Conn) error {
		var id int64
		err := conn.GetContext(ctx, &id, "SELECT id FROM mobile_notifications WHERE id = ?", notificationID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		if err != nil {
			return storageError("find notification", err)
		}

		now := s.timestamp()
		if status == StatusProcessed {
			_, err = conn.ExecContext(ctx,
				"UPDATE mobile_notifications SET status = ?, processed_at = ?, updated_at = ? WHERE id = ?",
				string(status), now, now, notificationID)
		} else {
			_, err = conn.ExecContext(ctx,
				"UPDATE mobile_notifications SET status = ?, updated_at = ? WHERE id = ?",
				string(status), now, notificationID)
		}
		if err != nil {
			return storageError("update notification status", err)
		}
		return nil
	})
}
