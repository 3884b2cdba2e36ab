package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// recoveredMessage はパニック発生時にクライアントへ返すメッセージ。
const recoveredMessage = "เกิดข้อผิดพลาดภายในระบบ"

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にリクエストIDと共にログへ出力し、500エラーを返す。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] request_id=%s %s %s: %v", GetRequestID(c), c.Request.Method, c.Request.URL.Path, r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"status":  "error",
					"message": recoveredMessage,
				})
			}
		}()
		c.Next()
	}
}
