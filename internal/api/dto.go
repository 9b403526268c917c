package api

import (
	"errors"
	"old-maid-server/internal/apperr"
	"old-maid-server/internal/entities"
)

// Public DTOs are safe for every member of a game. The With* variants carry
// secrets or hidden cards and are only sent to their owner.

type WaitingPlayerDto struct {
	ID entities.PlayerID `json:"id"`
}

type WaitingPlayerWithTokenDto struct {
	WaitingPlayerDto
	AuthenticationToken entities.LongSecret `json:"authenticationToken"`
}

type WaitingRoomDto struct {
	ID      entities.GameID    `json:"id"`
	OwnerID entities.PlayerID  `json:"ownerId"`
	Players []WaitingPlayerDto `json:"players"`
}

type WaitingRoomWithSecretDto struct {
	WaitingRoomDto
	Secret entities.ShortSecret `json:"secret"`
}

type TableDto struct {
	ID    entities.GameID `json:"id"`
	Cards []entities.Card `json:"cards"`
}

type GameDto struct {
	ID                 entities.GameID     `json:"id"`
	PlayerIDs          []entities.PlayerID `json:"playerIds"`
	Table              TableDto            `json:"table"`
	PlayerIDProceeding entities.PlayerID   `json:"playerIdProceeding"`
	PlayerIDProceeded  entities.PlayerID   `json:"playerIdProceeded"`
	Winners            []entities.PlayerID `json:"winners"`
}

type PlayerDto struct {
	ID             entities.PlayerID `json:"id"`
	CardCount      int               `json:"cardCount"`
	PlayerIDOnNext entities.PlayerID `json:"playerIdOnNext"`
	PlayerIDOnPrev entities.PlayerID `json:"playerIdOnPrev"`
}

type PlayerWithCardsDto struct {
	PlayerDto
	CardsInHand []entities.Card `json:"cardsInHand"`
}

type CardStateDto struct {
	X                           float64 `json:"x"`
	Y                           float64 `json:"y"`
	DistanceFromInitialPosition float64 `json:"distanceFromInitialPosition"`
	IsHolded                    bool    `json:"isHolded"`
}

type CardStateWithCardDto struct {
	CardStateDto
	Card entities.Card `json:"card"`
}

type HandTelepresenceDto struct {
	ID        entities.PlayerID `json:"id"`
	Cards     []CardStateDto    `json:"cards"`
	LookingAt int               `json:"lookingAt"`
}

// HandTelepresenceWithTokenDto goes to the puller. Card faces stay hidden.
type HandTelepresenceWithTokenDto struct {
	HandTelepresenceDto
	AuthenticationToken entities.LongSecret `json:"authenticationToken"`
}

// HandTelepresenceOwnerDto goes back to the owner of the hand.
type HandTelepresenceOwnerDto struct {
	ID                  entities.PlayerID      `json:"id"`
	Cards               []CardStateWithCardDto `json:"cards"`
	LookingAt           int                    `json:"lookingAt"`
	AuthenticationToken entities.LongSecret    `json:"authenticationToken"`
}

type ErrorDto struct {
	Name    apperr.Kind `json:"name"`
	Message string      `json:"message"`
}

func toWaitingRoomDto(room *entities.WaitingRoom) WaitingRoomDto {
	players := make([]WaitingPlayerDto, 0, len(room.Players()))
	for _, p := range room.Players() {
		players = append(players, WaitingPlayerDto{ID: p.ID()})
	}
	return WaitingRoomDto{ID: room.ID(), OwnerID: room.OwnerID(), Players: players}
}

func toWaitingRoomWithSecretDto(room *entities.WaitingRoom) WaitingRoomWithSecretDto {
	return WaitingRoomWithSecretDto{WaitingRoomDto: toWaitingRoomDto(room), Secret: room.DangerouslySecret()}
}

func toWaitingPlayerWithTokenDto(p entities.WaitingPlayer) WaitingPlayerWithTokenDto {
	return WaitingPlayerWithTokenDto{
		WaitingPlayerDto:    WaitingPlayerDto{ID: p.ID()},
		AuthenticationToken: p.DangerouslyAuthenticationToken(),
	}
}

func toGameDto(game *entities.Game) GameDto {
	ids := make([]entities.PlayerID, 0, len(game.Players()))
	for _, p := range game.Players() {
		ids = append(ids, p.ID())
	}
	cards := game.Table().Cards()
	if cards == nil {
		cards = []entities.Card{}
	}
	return GameDto{
		ID:                 game.ID(),
		PlayerIDs:          ids,
		Table:              TableDto{ID: game.Table().ID(), Cards: cards},
		PlayerIDProceeding: game.PlayerIDProceeding(),
		PlayerIDProceeded:  game.PlayerIDProceeded(),
		Winners:            game.Winners(),
	}
}

func toPlayerDto(p *entities.Player) PlayerDto {
	return PlayerDto{
		ID:             p.ID(),
		CardCount:      p.CardCount(),
		PlayerIDOnNext: p.PlayerIDOnNext(),
		PlayerIDOnPrev: p.PlayerIDOnPrev(),
	}
}

func toPlayerWithCardsDto(p *entities.Player) PlayerWithCardsDto {
	cards := p.CardsInHand()
	if cards == nil {
		cards = []entities.Card{}
	}
	return PlayerWithCardsDto{PlayerDto: toPlayerDto(p), CardsInHand: cards}
}

func toCardStateDto(s entities.CardState) CardStateDto {
	return CardStateDto{
		X:                           s.X(),
		Y:                           s.Y(),
		DistanceFromInitialPosition: s.DistanceFromInitialPosition(),
		IsHolded:                    s.IsHolded(),
	}
}

func toHandTelepresenceDto(h *entities.HandTelepresence) HandTelepresenceDto {
	cards := make([]CardStateDto, 0, len(h.Cards()))
	for _, s := range h.Cards() {
		cards = append(cards, toCardStateDto(s))
	}
	return HandTelepresenceDto{ID: h.ID(), Cards: cards, LookingAt: h.LookingAt()}
}

func toHandTelepresenceWithTokenDto(h *entities.HandTelepresence) HandTelepresenceWithTokenDto {
	return HandTelepresenceWithTokenDto{
		HandTelepresenceDto: toHandTelepresenceDto(h),
		AuthenticationToken: h.DangerouslyAuthenticationToken(),
	}
}

func toHandTelepresenceOwnerDto(h *entities.HandTelepresence) HandTelepresenceOwnerDto {
	cards := make([]CardStateWithCardDto, 0, len(h.Cards()))
	for _, s := range h.Cards() {
		cards = append(cards, CardStateWithCardDto{CardStateDto: toCardStateDto(s), Card: s.Card()})
	}
	return HandTelepresenceOwnerDto{
		ID:                  h.ID(),
		Cards:               cards,
		LookingAt:           h.LookingAt(),
		AuthenticationToken: h.DangerouslyAuthenticationToken(),
	}
}

// toErrorDto reports domain failures by kind. Anything else is internal and
// its message is not leaked.
func toErrorDto(err error) ErrorDto {
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind == apperr.KindInternal {
		return ErrorDto{Name: apperr.KindInternal, Message: "internal error"}
	}
	return ErrorDto{Name: e.Kind, Message: e.Message}
}
