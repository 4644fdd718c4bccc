package handler

import (
	"context"

	"TrenchGame/internal/battle/game"
	"TrenchGame/internal/shared/transport"
	"TrenchGame/modules/kit/errx"
	"TrenchGame/modules/kit/logx"
)

const systemBusy = "server busy, please retry"

func mapBizCodeToClientCode(code errx.Code) transport.BizCode {
	switch code {
	case "":
		return transport.OK
	case game.CodeUnknownEntityID:
		return transport.NotFound
	case game.CodeWrongTeamActor, game.CodeNotYourTurn:
		return transport.Forbidden
	case game.CodeMalformedMessage, errx.CodeReqParamError:
		return transport.InvalidParam
	case game.CodeSessionFull, game.CodeGameNotInProgress,
		game.CodeNotInBattle, game.CodeAlreadyInBattle:
		return transport.Conflict
	default:
		return transport.InvalidParam
	}
}

func mapSysCodeToClientCode(code errx.Code) transport.BizCode {
	switch code {
	case errx.CodeTimeout, errx.CodeUnavailable:
		return transport.Unavailable
	default:
		return transport.SystemError
	}
}

// HandleError maps err to the client code, reason and message sent back to
// the caller, and logs it as a rejection or a fault.
func HandleError(ctx context.Context, l logx.Logger, action string, err error) (transport.BizCode, string, string) {
	e, ok := errx.As(err)
	if !ok {
		e = errx.ErrInternal.WithCause(err)
	}
	reason := string(e.Code())
	transport.SetErrorReason(ctx, reason)

	if e.IsBiz() {
		logx.ReportBizWithLoggerContext(ctx, l, logx.NewBizLog(action, reason, e.Msg()))
		return mapBizCodeToClientCode(e.Code()), reason, e.Msg()
	}

	logx.ReportSysErrorWithLoggerContext(ctx, l, logx.NewSysLog(action, e))
	return mapSysCodeToClientCode(e.Code()), reason, systemBusy
}
