package public

import (
	"strconv"
	"strings"

	handlershared "github.com/primefix-storefront/internal/http/handlers/shared"
	"github.com/primefix-storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondErrorWithMsg(c, code, msg, err)
}

func getSessionID(c *gin.Context) (string, bool) {
	return handlershared.SessionID(c)
}

// parseProductIDParam 解析路径中的商品 ID
func parseProductIDParam(c *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(c.Param("product_id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "error.product_invalid", nil)
		return 0, false
	}
	return uint(id), true
}
