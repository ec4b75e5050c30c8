package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/blackjackforbots/internal/deck"
	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/protocol"
	"github.com/lox/blackjackforbots/internal/runid"
	"github.com/lox/blackjackforbots/internal/statistics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// session is one agent connection. Only the read pump touches env, so the
// environment is never shared between goroutines.
type session struct {
	id     string
	conn   *websocket.Conn
	env    *game.Env
	server *Server
	logger zerolog.Logger
	send   chan any

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	rounds atomic.Int64
	round  statistics.RoundResult
}

func newSession(conn *websocket.Conn, env *game.Env, srv *Server) *session {
	ctx, cancel := context.WithCancel(context.Background())
	id := runid.New()
	return &session{
		id:     id,
		conn:   conn,
		env:    env,
		server: srv,
		logger: srv.logger.With().Str("session", id).Logger(),
		send:   make(chan any, 16),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *session) start() {
	c.queue(&protocol.Welcome{
		Type:    protocol.TypeWelcome,
		Session: c.id,
		Rules:   c.env.Config(),
	})
	go c.writePump()
	go c.readPump()
}

func (c *session) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.conn.Close()
		c.server.unregister(c)
	})
}

// queue hands a message to the write pump. A full buffer means the agent is
// not reading its replies; the session is dropped.
func (c *session) queue(msg any) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn().Msg("Send buffer full, closing session")
		c.close()
	}
}

func (c *session) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("WebSocket read failed")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handle(data)
	}
}

func (c *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug().Err(err).Msg("Write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *session) handle(data []byte) {
	msg, err := protocol.Unmarshal(data)
	if err != nil {
		c.sendError(protocol.CodeBadMessage, err.Error())
		return
	}

	switch m := msg.(type) {
	case *protocol.Reset:
		c.handleReset()
	case *protocol.Step:
		c.handleStep(m.Action)
	default:
		c.sendError(protocol.CodeBadMessage, "unexpected message from client")
	}
}

func (c *session) handleReset() {
	state, err := c.env.Reset()
	if err != nil {
		c.sendGameError(err)
		return
	}
	c.round = statistics.RoundResult{
		DealerUp:  state.DealerUp,
		Blackjack: c.env.PlayerHand().IsBlackjack(),
	}
	c.logger.Debug().Stringer("state", state).Msg("Round dealt")
	c.queue(c.update(state, game.Draw, false))
}

func (c *session) handleStep(raw string) {
	action, err := game.ParseAction(raw)
	if err != nil {
		c.sendGameError(err)
		return
	}
	res, err := c.env.Step(action)
	if err != nil {
		c.sendGameError(err)
		return
	}

	if action == game.Hit {
		c.round.Hits++
	}
	if res.Done {
		n := c.rounds.Add(1)
		c.round.Reward = res.Reward
		c.round.PlayerTotal = res.State.PlayerTotal
		c.round.DealerTotal = res.State.DealerTotal
		c.server.recordRound(c.round)
		c.logger.Debug().Stringer("reward", res.Reward).Int64("round", n).Msg("Round finished")
	}
	c.queue(c.update(res.State, res.Reward, res.Done))
}

func (c *session) update(s game.State, reward game.Reward, done bool) *protocol.StateUpdate {
	ws := protocol.FromGame(s)
	ws.PlayerCards = cardStrings(c.env.PlayerHand().Cards())
	ws.DealerCards = cardStrings(c.env.DealerHand().Cards())
	return &protocol.StateUpdate{
		Type:   protocol.TypeState,
		State:  ws,
		Reward: int(reward),
		Done:   done,
		Info: map[string]any{
			"running_count":   c.env.RunningCount(),
			"cards_remaining": c.env.CardsRemaining(),
			"shuffles":        c.env.Shuffles(),
		},
	}
}

func (c *session) sendGameError(err error) {
	code := protocol.CodeInternal
	switch {
	case errors.Is(err, game.ErrInvalidAction):
		code = protocol.CodeInvalidAction
	case errors.Is(err, game.ErrAlreadyDone):
		code = protocol.CodeAlreadyDone
	case errors.Is(err, game.ErrNotStarted):
		code = protocol.CodeNotStarted
	default:
		c.logger.Error().Err(err).Msg("Environment failure")
	}
	c.sendError(code, err.Error())
}

func (c *session) sendError(code, message string) {
	c.queue(&protocol.Error{Type: protocol.TypeError, Code: code, Message: message})
}

func cardStrings(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, card := range cards {
		out[i] = card.String()
	}
	return out
}
