package interfaces

import (
	"TrenchGame/internal/battle/interfaces/handler"
	"TrenchGame/internal/battle/interfaces/handler/http"
	ws2 "TrenchGame/internal/battle/interfaces/handler/ws"
	transporthttp "TrenchGame/internal/shared/transport/http"
	"TrenchGame/internal/shared/transport/ws"
	"TrenchGame/modules/kit/logx"

	"github.com/gin-gonic/gin"
)

// Module bundles the battle handlers for both transports.
type Module struct {
	wsHandler   *ws2.WsHandler
	httpHandler *http.HttpHandler
}

func New(rt handler.Runtime, l logx.Logger) *Module {
	b := handler.NewBattle(rt, l)
	return &Module{
		wsHandler:   ws2.NewWsHandler(b),
		httpHandler: http.NewHttpHandler(b),
	}
}

func (m *Module) WsRegister(r *ws.Router) {
	m.wsHandler.RegisterRoutes(r)
}

func (m *Module) HttpRegister(g *gin.RouterGroup) {
	m.httpHandler.RegisterRoutes(g)
}

var _ ws.Registrar = (*Module)(nil)
var _ transporthttp.Registrar = (*Module)(nil)
