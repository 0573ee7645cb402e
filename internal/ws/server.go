package ws

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"dicee-server/internal/game"
	"dicee-server/internal/room"
	"dicee-server/internal/store"
)

// Server upgrades websocket connections and routes frames between transports
// and room actors. It holds no game state; the actor owns everything.
type Server struct {
	hub      *room.Hub
	upgrader websocket.Upgrader
}

func NewServer(hub *room.Hub) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS serves GET /ws/{room_code}.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "room_code")
	actor, err := s.hub.Get(r.Context(), code)
	if err != nil {
		status := http.StatusInternalServerError
		if err == room.ErrRoomNotFound {
			status = http.StatusNotFound
		}
		http.Error(w, room.ErrorCode(err), status)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := newClient(uuid.NewString(), conn)
	go client.writeLoop()
	s.readLoop(client, actor)
}

func (s *Server) readLoop(c *Client, actor *room.Actor) {
	defer func() {
		actor.Disconnect(c.ID())
		c.Close()
	}()

	joined := false
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			c.Send(errorEvent("bad_request", "malformed frame"))
			continue
		}
		if !joined {
			if base.Type != "join" {
				c.Send(errorEvent("bad_request", "join first"))
				continue
			}
			var join JoinMessage
			if err := json.Unmarshal(msg, &join); err != nil {
				c.Send(errorEvent("bad_request", "malformed join"))
				continue
			}
			s.handleJoin(c, actor, join)
			joined = true
			continue
		}
		s.handleCommand(c, actor, base.Type, msg)
	}
}

func (s *Server) handleJoin(c *Client, actor *room.Actor, join JoinMessage) {
	role := room.RolePlayer
	if join.Role == string(room.RoleSpectator) {
		role = room.RoleSpectator
	}
	identity := join.PlayerID
	if identity == "" {
		// First-time clients get a minted identity; they persist it locally
		// and present it on every reconnect.
		identity = store.NewID()
	}
	log.Debug().Str("room", actor.Code()).Str("player_id", identity).Str("role", string(role)).Msg("ws_join")
	actor.Connect(c, identity, join.DisplayName, join.AvatarRef, role)
}

func (s *Server) handleCommand(c *Client, actor *room.Actor, kind string, msg []byte) {
	cmd := room.Command{Kind: kind}
	switch kind {
	case room.CmdRoll:
		var roll RollMessage
		if err := json.Unmarshal(msg, &roll); err != nil {
			c.Send(errorEvent("bad_request", "malformed roll"))
			return
		}
		if roll.Keep != nil {
			if len(roll.Keep) != game.DiceCount {
				c.Send(errorEvent("bad_request", "keep mask must cover all dice"))
				return
			}
			var mask [game.DiceCount]bool
			copy(mask[:], roll.Keep)
			cmd.Keep = &mask
		}
	case room.CmdKeep:
		var keep KeepMessage
		if err := json.Unmarshal(msg, &keep); err != nil {
			c.Send(errorEvent("bad_request", "malformed keep"))
			return
		}
		cmd.Indices = keep.Indices
	case room.CmdScore:
		var score ScoreMessage
		if err := json.Unmarshal(msg, &score); err != nil {
			c.Send(errorEvent("bad_request", "malformed score"))
			return
		}
		cmd.Category = score.Category
	}
	actor.Command(c.ID(), cmd)
}

func errorEvent(code, message string) room.ErrorEvent {
	return room.ErrorEvent{Type: "error", ProtocolVersion: room.ProtocolVersion, Code: code, Message: message}
}
