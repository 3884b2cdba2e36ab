package notification

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/mobilenotify/pkg/middleware"
)

// Options はHTTPサーバーの設定。
type Options struct {
	// Port はリッスンポート。
	Port string
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string
	// TokenSecret は内部APIのサービストークン署名鍵。空の場合は検証しない。
	TokenSecret string
}

// Server は通知サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// service は通知の業務ロジック。
	service *Service
	// handlers は操作ごとのハンドラ。REST と操作コードのディスパッチで共有する。
	handlers map[Operation]gin.HandlerFunc
}

// NewServer は新しい通知サーバーを生成する。
func NewServer(service *Service, opts Options) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(opts.AllowedOrigins))

	s := &Server{
		router:  router,
		port:    opts.Port,
		service: service,
	}
	s.handlers = map[Operation]gin.HandlerFunc{
		OpCreate:      s.handleCreate(),
		OpList:        s.handleList(),
		OpMarkRead:    s.handleMarkAsRead(),
		OpUnreadCount: s.handleUnreadCount(),
		OpStats:       s.handleStats(),
		OpMarkAllRead: s.handleMarkAllAsRead(),
	}
	s.setupRoutes(opts.TokenSecret)

	return s
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Handler はルーターを http.Handler として返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(tokenSecret string) {
	api := s.router.Group("/api/v1")
	{
		notifications := api.Group("/notifications")
		{
			// 通知作成
			notifications.POST("", s.handlers[OpCreate])
			// 通知一覧取得
			notifications.GET("", s.handlers[OpList])
			// 未読件数取得
			notifications.GET("/unread-count", s.handlers[OpUnreadCount])
			// 集計取得
			notifications.GET("/stats", s.handlers[OpStats])
			// 通知を既読にする
			notifications.PUT("/:notification_id/read", s.handlers[OpMarkRead])
			// 全通知を既読にする
			notifications.PUT("/read-all", s.handlers[OpMarkAllRead])
		}

		// 操作コードによるディスパッチ（既存モバイルアプリ互換）
		api.POST("/dispatch", s.handleDispatch())

		// 配信ワーカー向けの内部API
		internal := api.Group("/internal")
		internal.Use(middleware.ServiceTokenAuth(tokenSecret))
		{
			internal.GET("/notifications/pending", s.handleListPending())
			internal.PUT("/notifications/:notification_id/status", s.handleUpdateStatus())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
	})
}

// notificationResponse は通知のJSONレスポンス構造。
type notificationResponse struct {
	ID               int64   `json:"id"`
	MobileUserID     int64   `json:"mobile_user_id"`
	Title            string  `json:"title"`
	Message          string  `json:"message"`
	Data             *string `json:"data"`
	NotificationType string  `json:"notification_type"`
	Priority         string  `json:"priority"`
	Status           string  `json:"status"`
	ProcessedAt      *string `json:"processed_at"`
	IsRead           bool    `json:"is_read"`
	ReadAt           *string `json:"read_at"`
	ReadDeviceID     *string `json:"read_device_id"`
	// CreatedAt は作成日時（RFC3339形式）。
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

// toNotificationResponse は通知をJSONレスポンスに変換する。
func toNotificationResponse(n Notification) notificationResponse {
	return notificationResponse{
		ID:               n.ID,
		MobileUserID:     n.MobileUserID,
		Title:            n.Title,
		Message:          n.Message,
		Data:             n.Data,
		NotificationType: string(n.NotificationType),
		Priority:         string(n.Priority),
		Status:           string(n.Status),
		ProcessedAt:      formatTime(n.ProcessedAt),
		IsRead:           n.IsRead,
		ReadAt:           formatTime(n.ReadAt),
		ReadDeviceID:     n.ReadDeviceID,
		CreatedAt:        n.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        formatTime(n.UpdatedAt),
	}
}

// toNotificationResponses は通知のスライスをJSONレスポンスのスライスに変換する。
func toNotificationResponses(notifications []Notification) []notificationResponse {
	responses := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, toNotificationResponse(n))
	}
	return responses
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// respondSuccess は成功レスポンスを返す。Unicodeはエスケープしない。
func respondSuccess(c *gin.Context, code int, body gin.H) {
	body["status"] = "success"
	c.PureJSON(code, body)
}

// respondMessage はエラーレスポンスを返す。
func respondMessage(c *gin.Context, code int, message string) {
	c.PureJSON(code, gin.H{"status": "error", "message": message})
}

// respondError はサービス層のエラーをHTTPレスポンスに変換する。
// ストアの障害は原因をログにのみ出力し、クライアントには failureMessage を返す。
func respondError(c *gin.Context, op Operation, err error, failureMessage string) {
	var (
		validationErr *ValidationError
		storageErr    *StorageError
	)
	switch {
	case errors.As(err, &validationErr):
		respondMessage(c, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, ErrUserNotFound):
		respondMessage(c, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, ErrNotificationNotFound):
		respondMessage(c, http.StatusNotFound, msgNotificationNotFound)
	case errors.As(err, &storageErr) && storageErr.Unavailable():
		log.Printf("[Notification] request_id=%s op=%s: %v", middleware.GetRequestID(c), op, err)
		respondMessage(c, http.StatusServiceUnavailable, msgStorageUnavailable)
	default:
		log.Printf("[Notification] request_id=%s op=%s: %v", middleware.GetRequestID(c), op, err)
		respondMessage(c, http.StatusInternalServerError, failureMessage)
	}
}

// handleCreate は通知を作成するハンドラ。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := idParam(c, "mobile_user_id")
		if userID <= 0 {
			respondMessage(c, http.StatusBadRequest, msgUserIDRequired)
			return
		}
		title := stringParam(c, "title")
		message := stringParam(c, "message")
		if title == "" || message == "" {
			respondMessage(c, http.StatusBadRequest, msgTitleMessageRequired)
			return
		}

		notificationType := stringParam(c, "notification_type")
		if notificationType == "" {
			notificationType = string(TypeGeneral)
		}
		priority := stringParam(c, "priority")
		if priority == "" {
			priority = string(PriorityNormal)
		}

		id, err := s.service.CreateNotification(c.Request.Context(), CreateParams{
			MobileUserID:     userID,
			Title:            title,
			Message:          message,
			Data:             ParsePayload(rawParam(c, "data")),
			NotificationType: notificationType,
			Priority:         priority,
		})
		if err != nil {
			respondError(c, OpCreate, err, msgCreateFailed)
			return
		}

		respondSuccess(c, http.StatusCreated, gin.H{
			"notification_id": id,
			"message":         msgCreated,
		})
	}
}

// handleList はユーザーの通知一覧をページ単位で返すハンドラ。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := idParam(c, "mobile_user_id")
		if userID <= 0 {
			respondMessage(c, http.StatusBadRequest, msgUserIDRequired)
			return
		}

		result, err := s.service.ListNotifications(c.Request.Context(), ListQuery{
			MobileUserID: userID,
			Page:         intParamOr(c, "page", 1),
			Limit:        intParamOr(c, "limit", DefaultLimit),
			UnreadOnly:   stringParam(c, "unread_only") == "1",
		})
		if err != nil {
			respondError(c, OpList, err, msgListFailed)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{
			"data":       toNotificationResponses(result.Items),
			"pagination": result.Pagination,
		})
	}
}

// handleMarkAsRead は指定された通知を既読にするハンドラ。
// 通知IDのみで操作するため、ユーザーの検証は行わない。
func (s *Server) handleMarkAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		notificationID := idParam(c, "notification_id")
		if notificationID <= 0 {
			respondMessage(c, http.StatusBadRequest, msgNotificationIDRequired)
			return
		}
		deviceID := stringParam(c, "device_id")
		if deviceID == "" {
			respondMessage(c, http.StatusBadRequest, msgDeviceIDRequired)
			return
		}

		result, err := s.service.MarkAsRead(c.Request.Context(), notificationID, deviceID)
		if err != nil {
			respondError(c, OpMarkRead, err, msgMarkReadFailed)
			return
		}

		message := msgMarkedRead
		if result.AlreadyRead {
			message = msgAlreadyRead
		}
		respondSuccess(c, http.StatusOK, gin.H{"message": message})
	}
}

// handleUnreadCount はユーザーの未読件数を返すハンドラ。
func (s *Server) handleUnreadCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := idParam(c, "mobile_user_id")
		if userID <= 0 {
			respondMessage(c, http.StatusBadRequest, msgUserIDRequired)
			return
		}

		count, err := s.service.GetUnreadCount(c.Request.Context(), userID)
		if err != nil {
			respondError(c, OpUnreadCount, err, msgUnreadCountFailed)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"unread_count": count})
	}
}

// handleStats はユーザーの通知の集計を返すハンドラ。
func (s *Server) handleStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := idParam(c, "mobile_user_id")
		if userID <= 0 {
			respondMessage(c, http.StatusBadRequest, msgUserIDRequired)
			return
		}

		stats, err := s.service.GetStats(c.Request.Context(), userID)
		if err != nil {
			respondError(c, OpStats, err, msgStatsFailed)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"stats": stats})
	}
}

// handleMarkAllAsRead はユーザーの未読通知をすべて既読にするハンドラ。
func (s *Server) handleMarkAllAsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := idParam(c, "mobile_user_id")
		if userID <= 0 {
			respondMessage(c, http.StatusBadRequest, msgUserIDRequired)
			return
		}
		deviceID := stringParam(c, "device_id")
		if deviceID == "" {
			respondMessage(c, http.StatusBadRequest, msgDeviceIDRequired)
			return
		}

		updated, err := s.service.MarkAllAsRead(c.Request.Context(), userID, deviceID)
		if err != nil {
			respondError(c, OpMarkAllRead, err, msgMarkAllReadFailed)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{
			"updated_count": updated,
			"message":       fmt.Sprintf(msgMarkedAllReadFmt, updated),
		})
	}
}

// handleListPending は配信待ちの通知を返すハンドラ（内部API）。
func (s *Server) handleListPending() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.service.ListPending(c.Request.Context(), intParam(c, "limit"))
		if err != nil {
			respondError(c, "list_pending", err, msgPendingFailed)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"data": toNotificationResponses(items)})
	}
}

// handleUpdateStatus は配信ワーカーが報告した処理状態を記録するハンドラ（内部API）。
func (s *Server) handleUpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := s.service.UpdateStatus(c.Request.Context(), idParam(c, "notification_id"), stringParam(c, "status"))
		if err != nil {
			respondError(c, "update_status", err, msgUpdateStatusFailed)
			return
		}

		respondSuccess(c, http.StatusOK, gin.H{"message": msgStatusUpdated})
	}
}
