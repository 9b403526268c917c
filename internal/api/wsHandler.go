package api

import (
	"context"
	"encoding/json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"net/http"
	"old-maid-server/internal/apperr"
	"old-maid-server/internal/auth"
	"old-maid-server/internal/core"
	"old-maid-server/internal/entities"
	"slices"
	"strings"
	"time"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 << 10
)

type inFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type eventFunc func(ctx context.Context, c *client, payload json.RawMessage) (any, error)

type wsHandler struct {
	service  *core.Service
	issuer   *auth.Issuer
	hub      *Hub
	upgrader websocket.Upgrader
	events   map[string]eventFunc
	log      zerolog.Logger
}

func newWsHandler(service *core.Service, issuer *auth.Issuer, hub *Hub, allowedOrigins []string, logger zerolog.Logger) *wsHandler {
	h := &wsHandler{
		service: service,
		issuer:  issuer,
		hub:     hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowedOrigins, r.Header.Get("Origin"))
			},
		},
		log: logger.With().Str("component", "ws").Logger(),
	}
	h.events = map[string]eventFunc{
		"c:waitingRoom:create":           h.createWaitingRoom,
		"c:waitingRoom:delete":           h.deleteWaitingRoom,
		"c:waitingRoom:players:join":     h.joinWaitingRoom,
		"c:waitingRoom:players:kick":     h.kickPlayer,
		"c:waitingRoom:players:leave":    h.leaveWaitingRoom,
		"c:game:create":                  h.createGame,
		"c:game:changeTurn":              h.changeTurn,
		"c:game:win":                     h.win,
		"c:player:proceedAction":         h.proceedAction,
		"c:player:discard":               h.discardPairs,
		"c:handTelepresence:create":      h.createHandTelepresence,
		"c:handTelepresence:cards:hold":  h.holdCard,
		"c:handTelepresence:cards:look":  h.lookCard,
		"c:handTelepresence:cards:scrub": h.scrubCard,
		"c:handTelepresence:cards:pick":  h.pickCard,
	}
	return h
}

func originAllowed(allowed []string, origin string) bool {
	return origin == "" || slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var claims *auth.Claims
	if session := r.URL.Query().Get("session"); session != "" {
		checked, err := h.issuer.CheckToken(session)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		claims = &checked
	}

	// Subscribe before the handshake completes so no broadcast sent after the
	// dial returns can be missed.
	c := newClient(uuid.NewString())
	log := h.log.With().Str("client", c.id).Logger()
	h.hub.register(c)
	if claims != nil {
		h.hub.join(c, gameGroup(claims.GameID), playerGroup(claims.PlayerID()))
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.unregister(c)
		log.Debug().Err(err).Msg("upgrade")
		return
	}
	conn.SetReadLimit(maxMessageSize)
	log.Info().Bool("session", claims != nil).Msg("connection opened")

	var wg conc.WaitGroup
	wg.Go(func() { h.writePump(conn, c, log) })
	defer func() {
		h.hub.unregister(c)
		c.close()
		wg.Wait()
		_ = conn.Close()
		log.Info().Msg("connection closed")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("read")
			}
			return
		}
		h.dispatch(r.Context(), c, data, log)
	}
}

func (h *wsHandler) writePump(conn *websocket.Conn, c *client, log zerolog.Logger) {
	for {
		select {
		case <-c.done:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case frame := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Msg("write")
				// Unblocks the read loop, which then tears the client down.
				_ = conn.Close()
				return
			}
		}
	}
}

func (h *wsHandler) dispatch(ctx context.Context, c *client, data []byte, log zerolog.Logger) {
	var frame inFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.reply(c, "s:error", toErrorDto(apperr.Wrap(apperr.KindIllegalParam, err, "malformed frame")))
		return
	}
	handle, ok := h.events[frame.Event]
	if !ok {
		h.reply(c, "s:error", toErrorDto(apperr.Newf(apperr.KindIllegalParam, "unknown event %q", frame.Event)))
		return
	}

	name := "s:" + strings.TrimPrefix(frame.Event, "c:")
	result, err := handle(ctx, c, frame.Payload)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal || apperr.KindOf(err) == apperr.KindRepository {
			log.Error().Err(err).Str("event", frame.Event).Msg("event failed")
		} else {
			log.Debug().Err(err).Str("event", frame.Event).Msg("event rejected")
		}
		h.reply(c, name+":error", toErrorDto(err))
		return
	}
	h.reply(c, name+":ok", result)
}

func (h *wsHandler) reply(c *client, event string, payload any) {
	frame, err := json.Marshal(outFrame{Event: event, Payload: payload})
	if err != nil {
		h.log.Error().Err(err).Str("event", event).Msg("encode reply")
		return
	}
	h.hub.deliver(c, frame)
}

func decode[T any](payload json.RawMessage) (T, error) {
	var param T
	if len(payload) == 0 {
		return param, nil
	}
	if err := json.Unmarshal(payload, &param); err != nil {
		return param, apperr.Wrap(apperr.KindIllegalParam, err, "malformed payload")
	}
	return param, nil
}

type waitingRoomParam struct {
	WaitingRoomID       entities.GameID     `json:"waitingRoomId"`
	AuthenticationToken entities.LongSecret `json:"authenticationToken"`
}

type joinParam struct {
	Secret entities.ShortSecret `json:"secret"`
}

type kickParam struct {
	WaitingRoomID            entities.GameID     `json:"waitingRoomId"`
	TargetID                 entities.PlayerID   `json:"targetId"`
	OwnerAuthenticationToken entities.LongSecret `json:"ownerAuthenticationToken"`
}

type gamePlayerParam struct {
	GameID              entities.GameID     `json:"gameId"`
	PlayerID            entities.PlayerID   `json:"playerId"`
	AuthenticationToken entities.LongSecret `json:"authenticationToken"`
}

type proceedParam struct {
	gamePlayerParam
	Index int `json:"index"`
}

type placementParam struct {
	Card entities.Card `json:"card"`
	X    float64       `json:"x"`
	Y    float64       `json:"y"`
}

type createTelepresenceParam struct {
	PlayerID            entities.PlayerID   `json:"playerId"`
	AuthenticationToken entities.LongSecret `json:"authenticationToken"`
	Cards               []placementParam    `json:"cards"`
}

type telepresenceParam struct {
	HandTelepresenceID  entities.PlayerID   `json:"handTelepresenceId"`
	AuthenticationToken entities.LongSecret `json:"authenticationToken"`
	Index               int                 `json:"index"`
	Indexes             []int               `json:"indexes"`
	Amount              float64             `json:"amount"`
}

func (h *wsHandler) session(playerID entities.PlayerID, gameID entities.GameID) (string, error) {
	return h.issuer.GenerateToken(playerID, gameID)
}

func (h *wsHandler) createWaitingRoom(ctx context.Context, c *client, _ json.RawMessage) (any, error) {
	room, owner, err := h.service.CreateWaitingRoom(ctx)
	if err != nil {
		return nil, err
	}
	session, err := h.session(owner.ID(), room.ID())
	if err != nil {
		return nil, err
	}
	h.hub.join(c, gameGroup(room.ID()), playerGroup(owner.ID()))
	return map[string]any{
		"waitingRoom":   toWaitingRoomWithSecretDto(room),
		"waitingPlayer": toWaitingPlayerWithTokenDto(owner),
		"session":       session,
	}, nil
}

func (h *wsHandler) deleteWaitingRoom(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[waitingRoomParam](payload)
	if err != nil {
		return nil, err
	}
	room, err := h.service.DeleteWaitingRoom(ctx, param.WaitingRoomID, param.AuthenticationToken)
	if err != nil {
		return nil, err
	}
	dto := toWaitingRoomDto(room)
	h.hub.Broadcast(gameGroup(room.ID()), "s:waitingRoom:deleted", map[string]any{"waitingRoom": dto}, c)
	h.hub.dissolve(gameGroup(room.ID()))
	return map[string]any{"waitingRoom": dto}, nil
}

func (h *wsHandler) joinWaitingRoom(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[joinParam](payload)
	if err != nil {
		return nil, err
	}
	room, newcomer, err := h.service.JoinWaitingRoom(ctx, param.Secret)
	if err != nil {
		return nil, err
	}
	session, err := h.session(newcomer.ID(), room.ID())
	if err != nil {
		return nil, err
	}
	h.hub.join(c, gameGroup(room.ID()), playerGroup(newcomer.ID()))
	h.hub.Broadcast(gameGroup(room.ID()), "s:waitingRoom:changed", map[string]any{"waitingRoom": toWaitingRoomDto(room)}, c)
	return map[string]any{
		"waitingRoom": toWaitingRoomWithSecretDto(room),
		"newPlayer":   toWaitingPlayerWithTokenDto(newcomer),
		"session":     session,
	}, nil
}

func (h *wsHandler) kickPlayer(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[kickParam](payload)
	if err != nil {
		return nil, err
	}
	room, err := h.service.KickPlayer(ctx, param.WaitingRoomID, param.TargetID, param.OwnerAuthenticationToken)
	if err != nil {
		return nil, err
	}
	dto := map[string]any{"waitingRoom": toWaitingRoomDto(room)}
	target := playerGroup(param.TargetID)
	h.hub.Broadcast(target, "s:waitingRoom:deleted", dto, c)
	h.hub.evict(target, gameGroup(room.ID()), target)
	h.hub.Broadcast(gameGroup(room.ID()), "s:waitingRoom:changed", dto, c)
	return dto, nil
}

func (h *wsHandler) leaveWaitingRoom(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[waitingRoomParam](payload)
	if err != nil {
		return nil, err
	}
	room, leaver, err := h.service.LeaveWaitingRoom(ctx, param.WaitingRoomID, param.AuthenticationToken)
	if err != nil {
		return nil, err
	}
	dto := map[string]any{"waitingRoom": toWaitingRoomDto(room)}
	h.hub.leave(c, gameGroup(room.ID()), playerGroup(leaver))
	h.hub.Broadcast(gameGroup(room.ID()), "s:waitingRoom:changed", dto, c)
	return dto, nil
}

func (h *wsHandler) createGame(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[waitingRoomParam](payload)
	if err != nil {
		return nil, err
	}
	game, err := h.service.CreateGame(ctx, param.WaitingRoomID, param.AuthenticationToken)
	if err != nil {
		return nil, err
	}
	dto := map[string]any{"game": toGameDto(game)}
	h.hub.Broadcast(gameGroup(game.ID()), "s:game:changed", dto, c)
	for _, p := range game.Players() {
		h.hub.Broadcast(playerGroup(p.ID()), "s:player:changed", map[string]any{"player": toPlayerWithCardsDto(p)}, nil)
	}
	return dto, nil
}

func (h *wsHandler) changeTurn(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[gamePlayerParam](payload)
	if err != nil {
		return nil, err
	}
	game, err := h.service.ChangeTurn(ctx, param.GameID, param.PlayerID, param.AuthenticationToken)
	if err != nil {
		return nil, err
	}
	dto := map[string]any{"game": toGameDto(game)}
	h.hub.Broadcast(gameGroup(game.ID()), "s:game:changed", dto, c)
	return dto, nil
}

func (h *wsHandler) win(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[gamePlayerParam](payload)
	if err != nil {
		return nil, err
	}
	game, err := h.service.Win(ctx, param.GameID, param.PlayerID, param.AuthenticationToken)
	if err != nil {
		return nil, err
	}
	dto := map[string]any{"game": toGameDto(game)}
	h.hub.Broadcast(gameGroup(game.ID()), "s:game:changed", dto, c)
	if game.IsFinished() {
		h.hub.dissolve(gameGroup(game.ID()))
	}
	return dto, nil
}

func (h *wsHandler) proceedAction(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[proceedParam](payload)
	if err != nil {
		return nil, err
	}
	me, next, err := h.service.ProceedAction(ctx, param.GameID, param.PlayerID, param.Index, param.AuthenticationToken)
	if err != nil {
		return nil, err
	}
	group := gameGroup(param.GameID)
	h.hub.Broadcast(group, "s:player:changed", map[string]any{"player": toPlayerDto(me)}, c)
	h.hub.Broadcast(group, "s:player:changed", map[string]any{"player": toPlayerDto(next)}, c)
	h.hub.Broadcast(playerGroup(next.ID()), "s:player:changed", map[string]any{"player": toPlayerWithCardsDto(next)}, c)
	return map[string]any{
		"me":   toPlayerWithCardsDto(me),
		"next": toPlayerDto(next),
	}, nil
}

func (h *wsHandler) discardPairs(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[gamePlayerParam](payload)
	if err != nil {
		return nil, err
	}
	game, player, discarded, err := h.service.DiscardPairs(ctx, param.GameID, param.PlayerID, param.AuthenticationToken)
	if err != nil {
		return nil, err
	}
	if discarded == nil {
		discarded = []entities.Card{}
	}
	group := gameGroup(game.ID())
	h.hub.Broadcast(group, "s:game:changed", map[string]any{"game": toGameDto(game)}, c)
	h.hub.Broadcast(group, "s:player:changed", map[string]any{"player": toPlayerDto(player)}, c)
	return map[string]any{
		"game":      toGameDto(game),
		"player":    toPlayerWithCardsDto(player),
		"discarded": discarded,
	}, nil
}

func (h *wsHandler) createHandTelepresence(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	param, err := decode[createTelepresenceParam](payload)
	if err != nil {
		return nil, err
	}
	placements := make([]core.CardPlacement, len(param.Cards))
	for i, p := range param.Cards {
		placements[i] = core.CardPlacement{Card: p.Card, X: p.X, Y: p.Y}
	}
	telepresence, prev, err := h.service.CreateHandTelepresence(ctx, param.PlayerID, param.AuthenticationToken, placements)
	if err != nil {
		return nil, err
	}
	h.hub.BroadcastMany(h.hub.groupsOf(c), "s:handTelepresence:changed", map[string]any{"handTelepresence": toHandTelepresenceDto(telepresence)}, c)
	h.hub.Broadcast(playerGroup(prev), "s:handTelepresence:ready", map[string]any{"handTelepresence": toHandTelepresenceWithTokenDto(telepresence)}, c)
	return map[string]any{"handTelepresence": toHandTelepresenceOwnerDto(telepresence)}, nil
}

func (h *wsHandler) telepresenceEvent(ctx context.Context, c *client, payload json.RawMessage, apply func(context.Context, telepresenceParam) (*entities.HandTelepresence, error)) (any, error) {
	param, err := decode[telepresenceParam](payload)
	if err != nil {
		return nil, err
	}
	telepresence, err := apply(ctx, param)
	if err != nil {
		return nil, err
	}
	dto := map[string]any{"handTelepresence": toHandTelepresenceDto(telepresence)}
	h.hub.BroadcastMany(h.hub.groupsOf(c), "s:handTelepresence:changed", dto, c)
	return dto, nil
}

func (h *wsHandler) holdCard(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	return h.telepresenceEvent(ctx, c, payload, func(ctx context.Context, p telepresenceParam) (*entities.HandTelepresence, error) {
		return h.service.HoldCard(ctx, p.HandTelepresenceID, p.Indexes, p.AuthenticationToken)
	})
}

func (h *wsHandler) lookCard(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	return h.telepresenceEvent(ctx, c, payload, func(ctx context.Context, p telepresenceParam) (*entities.HandTelepresence, error) {
		return h.service.LookCard(ctx, p.HandTelepresenceID, p.Index, p.AuthenticationToken)
	})
}

func (h *wsHandler) scrubCard(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	return h.telepresenceEvent(ctx, c, payload, func(ctx context.Context, p telepresenceParam) (*entities.HandTelepresence, error) {
		return h.service.ScrubCard(ctx, p.HandTelepresenceID, p.Index, p.AuthenticationToken)
	})
}

func (h *wsHandler) pickCard(ctx context.Context, c *client, payload json.RawMessage) (any, error) {
	return h.telepresenceEvent(ctx, c, payload, func(ctx context.Context, p telepresenceParam) (*entities.HandTelepresence, error) {
		return h.service.PickCard(ctx, p.HandTelepresenceID, p.Index, p.Amount, p.AuthenticationToken)
	})
}
