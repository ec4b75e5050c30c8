// Package client drives rounds on a remote agent gateway. A Client is not
// safe for concurrent use; open one connection per agent.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/blackjackforbots/internal/game"
	"github.com/lox/blackjackforbots/internal/protocol"
	"github.com/lox/blackjackforbots/internal/statistics"
)

// ErrUnexpectedMessage is returned when the server replies with a message
// type the client did not ask for.
var ErrUnexpectedMessage = errors.New("unexpected message")

// Round is the client-side view after a Reset or Step.
type Round struct {
	State       game.State
	Reward      game.Reward
	Done        bool
	PlayerCards []string
	DealerCards []string
	Info        map[string]any
}

// Client is a connection to the gateway.
type Client struct {
	conn    *websocket.Conn
	session string
	rules   game.Config
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Dial connects to serverURL and waits for the welcome message. http and
// https URLs are rewritten to ws and wss; a missing path defaults to /ws.
func Dial(ctx context.Context, serverURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		u.Scheme = "ws"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}

	c := &Client{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}

	c.logger.Debug().Str("url", u.String()).Msg("Connecting to gateway")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	msg, err := c.read(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	welcome, ok := msg.(*protocol.Welcome)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %T before welcome", ErrUnexpectedMessage, msg)
	}
	c.session = welcome.Session
	c.rules = welcome.Rules
	return c, nil
}

// Session returns the server-assigned session id.
func (c *Client) Session() string { return c.session }

// Rules returns the table rules announced by the server.
func (c *Client) Rules() game.Config { return c.rules }

// Reset deals a new round.
func (c *Client) Reset(ctx context.Context) (Round, error) {
	return c.roundTrip(ctx, &protocol.Reset{Type: protocol.TypeReset})
}

// Step sends an action. Server-side rejections come back as *protocol.Error,
// which matches the game sentinels with errors.Is.
func (c *Client) Step(ctx context.Context, action game.Action) (Round, error) {
	return c.roundTrip(ctx, &protocol.Step{Type: protocol.TypeStep, Action: action.String()})
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

// Play runs rounds with policy and tallies the outcomes.
func (c *Client) Play(ctx context.Context, policy game.Policy, rounds int) (*statistics.Tally, error) {
	tally := &statistics.Tally{}
	for i := range rounds {
		r, err := c.Reset(ctx)
		if err != nil {
			return tally, fmt.Errorf("round %d reset: %w", i+1, err)
		}
		result := statistics.RoundResult{DealerUp: r.State.DealerUp, Blackjack: r.State.PlayerTotal == 21 && len(r.PlayerCards) == 2}
		for !r.Done {
			action := policy.Decide(r.State)
			if action == game.Hit {
				result.Hits++
			}
			if r, err = c.Step(ctx, action); err != nil {
				return tally, fmt.Errorf("round %d step: %w", i+1, err)
			}
		}
		result.Reward = r.Reward
		result.PlayerTotal = r.State.PlayerTotal
		result.DealerTotal = r.State.DealerTotal
		tally.Add(result)
	}
	return tally, nil
}

func (c *Client) roundTrip(ctx context.Context, req any) (Round, error) {
	if err := ctx.Err(); err != nil {
		return Round{}, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return Round{}, fmt.Errorf("send: %w", err)
	}

	msg, err := c.read(ctx)
	if err != nil {
		return Round{}, err
	}
	switch m := msg.(type) {
	case *protocol.StateUpdate:
		return Round{
			State:       m.State.Game(),
			Reward:      game.Reward(m.Reward),
			Done:        m.Done,
			PlayerCards: m.State.PlayerCards,
			DealerCards: m.State.DealerCards,
			Info:        m.Info,
		}, nil
	case *protocol.Error:
		return Round{}, m
	default:
		return Round{}, fmt.Errorf("%w: %T", ErrUnexpectedMessage, msg)
	}
}

func (c *Client) read(ctx context.Context) (any, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return protocol.Unmarshal(data)
}
