package game

import "TrenchGame/modules/kit/errx"

const (
	CodeUnknownEntityID   errx.Code = "UNKNOWN_ENTITY_ID"
	CodeWrongTeamActor    errx.Code = "WRONG_TEAM_ACTOR"
	CodeSessionFull       errx.Code = "SESSION_FULL"
	CodeMalformedMessage  errx.Code = "MALFORMED_MESSAGE"
	CodeNotYourTurn       errx.Code = "NOT_YOUR_TURN"
	CodeGameNotInProgress errx.Code = "GAME_NOT_IN_PROGRESS"
	CodeNotInBattle       errx.Code = "NOT_IN_BATTLE"
	CodeAlreadyInBattle   errx.Code = "ALREADY_IN_BATTLE"
)

var (
	ErrUnknownEntityID   = errx.NewBiz(CodeUnknownEntityID, "no such entity")
	ErrWrongTeamActor    = errx.NewBiz(CodeWrongTeamActor, "soldier belongs to the other team")
	ErrSessionFull       = errx.NewBiz(CodeSessionFull, "battle is full")
	ErrMalformedMessage  = errx.NewBiz(CodeMalformedMessage, "malformed message")
	ErrNotYourTurn       = errx.NewBiz(CodeNotYourTurn, "not your turn")
	ErrGameNotInProgress = errx.NewBiz(CodeGameNotInProgress, "battle is not in progress")
	ErrNotInBattle       = errx.NewBiz(CodeNotInBattle, "player is not in this battle")
	ErrAlreadyInBattle   = errx.NewBiz(CodeAlreadyInBattle, "player already joined a battle")
)
