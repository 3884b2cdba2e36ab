package notification

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrUserNotFound はユーザーが存在しないか無効化されていることを表す。
	ErrUserNotFound = errors.New("mobile user not found or inactive")
	// ErrNotificationNotFound は指定IDの通知が存在しないことを表す。
	ErrNotificationNotFound = errors.New("notification not found")
)

// IsNotFound は参照先が存在しないエラーかどうかを返す。
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrNotificationNotFound)
}

// ValidationError は必須入力の欠落や不正な入力を表す。
// Messageはそのままクライアントに返す。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StorageError は接続やクエリの失敗を表す。原因はログにのみ出力し、クライアントには返さない。
type StorageError struct {
	// Op は失敗したストア操作の名前。
	Op  string
	Err error

	unavailable bool
}

func (e *StorageError) Error() string {
	if e.unavailable {
		return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Unavailable は接続の取得失敗やタイムアウトなど、ストアに到達できなかった場合に真を返す。
func (e *StorageError) Unavailable() bool { return e.unavailable }

// storageError はクエリの失敗をStorageErrorに変換する。
func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err, unavailable: isConnectionFault(err)}
}

// unavailableError は接続を取得できなかったことを表すStorageErrorを返す。
func unavailableError(op string, err error) error {
	return &StorageError{Op: op, Err: err, unavailable: true}
}

// isConnectionFault はネットワーク障害やタイムアウトかどうかを判定する。
func isConnectionFault(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
