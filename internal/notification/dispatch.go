package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleDispatch は f パラメータの操作コードに対応するハンドラへ処理を委譲する。
// f には数値の操作コード（20〜25）または操作名を指定する。
func (s *Server) handleDispatch() gin.HandlerFunc {
	return func(c *gin.Context) {
		op, ok := ParseOperation(rawParam(c, "f"))
		if !ok {
			respondMessage(c, http.StatusBadRequest, msgUnknownOperation)
			return
		}
		s.handlers[op](c)
	}
}
