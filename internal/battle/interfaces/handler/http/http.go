package http

import (
	"context"
	nethttp "net/http"

	"TrenchGame/internal/battle/interfaces/handler"
	"TrenchGame/internal/shared/transport"

	"github.com/gin-gonic/gin"
)

type HttpHandler struct {
	battle *handler.Battle
}

func NewHttpHandler(b *handler.Battle) *HttpHandler {
	return &HttpHandler{battle: b}
}

func (h *HttpHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/battles", h.ListBattles)
}

func (h *HttpHandler) ListBattles(c *gin.Context) {
	ctx := c.Request.Context()

	battles, err := h.battle.Runtime.Battles(ctx)
	if err != nil {
		h.error(ctx, c, err)
		return
	}
	c.JSON(nethttp.StatusOK, battles)
}

func (h *HttpHandler) error(ctx context.Context, c *gin.Context, err error) {
	code, reason, msg := handler.HandleError(ctx, h.battle.Log, c.Request.Method+" "+c.FullPath(), err)
	c.JSON(httpStatus(code), gin.H{"code": code, "reason": reason, "message": msg})
}

func httpStatus(code transport.BizCode) int {
	if code == transport.OK {
		return nethttp.StatusOK
	}
	return int(code)
}
