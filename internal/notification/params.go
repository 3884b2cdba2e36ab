package notification

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// lookupParam はパスパラメータ、フォーム、クエリ文字列の順にパラメータを探す。
func lookupParam(c *gin.Context, name string) (string, bool) {
	if v := c.Param(name); v != "" {
		return v, true
	}
	if v, ok := c.GetPostForm(name); ok {
		return v, true
	}
	return c.GetQuery(name)
}

// rawParam は前後の空白も含めてそのまま返す。
func rawParam(c *gin.Context, name string) string {
	v, _ := lookupParam(c, name)
	return v
}

// stringParam は前後の空白を除いた値を返す。未指定の場合は空文字列。
func stringParam(c *gin.Context, name string) string {
	return strings.TrimSpace(rawParam(c, name))
}

// intParam は整数として解釈した値を返す。未指定や解釈できない場合は0。
func intParam(c *gin.Context, name string) int {
	n, err := strconv.Atoi(stringParam(c, name))
	if err != nil {
		return 0
	}
	return n
}

// intParamOr は指定がない場合にdefを返す。指定があれば intParam と同じ規則で解釈する。
func intParamOr(c *gin.Context, name string, def int) int {
	if _, ok := lookupParam(c, name); !ok {
		return def
	}
	return intParam(c, name)
}

// idParam はIDとして解釈した値を返す。未指定や解釈できない場合は0。
func idParam(c *gin.Context, name string) int64 {
	n, err := strconv.ParseInt(stringParam(c, name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
