package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"dicee-server/internal/config"
	"dicee-server/internal/room"
	"dicee-server/internal/store"

	"github.com/go-chi/chi/v5"
)

// LobbyStore is the read surface the lobby endpoints need. *store.Store
// satisfies it.
type LobbyStore interface {
	Ping(ctx context.Context) error
	ListRooms(ctx context.Context, statuses ...string) ([]store.RoomRow, error)
	GetRoom(ctx context.Context, code string) (store.RoomRow, error)
	GetSeats(ctx context.Context, code string) ([]byte, error)
	GetGame(ctx context.Context, code string) ([]byte, error)
}

// LobbyHandlers serves the read-side room directory and room creation.
// Gameplay itself happens over the websocket endpoint.
type LobbyHandlers struct {
	st  LobbyStore
	hub *room.Hub
	cfg config.RoomConfig
}

func NewLobbyHandlers(st LobbyStore, hub *room.Hub, cfg config.RoomConfig) *LobbyHandlers {
	return &LobbyHandlers{st: st, hub: hub, cfg: cfg}
}

func (h *LobbyHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.st.Ping(ctx); err != nil {
			WriteHTTPError(w, http.StatusServiceUnavailable, "storage_unavailable")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type createRoomRequest struct {
	MaxPlayers int `json:"max_players"`
}

type roomSummary struct {
	RoomCode   string    `json:"room_code"`
	Status     string    `json:"status"`
	MaxPlayers int       `json:"max_players"`
	Seated     int       `json:"seated"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *LobbyHandlers) CreateRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				WriteHTTPError(w, http.StatusBadRequest, "bad_request")
				return
			}
		}
		state, err := h.hub.CreateRoom(r.Context(), req.MaxPlayers)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "storage_failed")
			return
		}
		WriteJSON(w, http.StatusCreated, roomSummary{
			RoomCode:   state.Code,
			Status:     string(state.Status),
			MaxPlayers: state.MaxPlayers,
			CreatedAt:  state.CreatedAt,
		})
	}
}

func (h *LobbyHandlers) Rooms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := []string{string(room.StatusWaiting), string(room.StatusPlaying)}
		if v := r.URL.Query().Get("status"); v != "" {
			statuses = []string{v}
		}
		rows, err := h.st.ListRooms(r.Context(), statuses...)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "storage_failed")
			return
		}
		limit := ParseLimit(r, 50, 200)
		out := make([]roomSummary, 0, len(rows))
		for _, row := range rows {
			if len(out) >= limit {
				break
			}
			var state room.RoomState
			if err := json.Unmarshal(row.Payload, &state); err != nil {
				continue
			}
			out = append(out, roomSummary{
				RoomCode:   state.Code,
				Status:     string(state.Status),
				MaxPlayers: state.MaxPlayers,
				Seated:     len(state.PlayerOrder),
				CreatedAt:  state.CreatedAt,
			})
		}
		WriteJSON(w, http.StatusOK, map[string]any{"rooms": out})
	}
}

type roomDetail struct {
	roomSummary
	Seats      []seatSummary `json:"seats"`
	GameActive bool          `json:"game_active"`
}

type seatSummary struct {
	PlayerID    string `json:"player_id"`
	TurnOrder   int    `json:"turn_order"`
	Connected   bool   `json:"connected"`
	DisplayName string `json:"display_name"`
}

func (h *LobbyHandlers) Room() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room_code")
		row, err := h.st.GetRoom(r.Context(), code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteHTTPError(w, http.StatusNotFound, "room_not_found")
				return
			}
			WriteHTTPError(w, http.StatusInternalServerError, "storage_failed")
			return
		}
		var state room.RoomState
		if err := json.Unmarshal(row.Payload, &state); err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "storage_failed")
			return
		}
		detail := roomDetail{roomSummary: roomSummary{
			RoomCode:   state.Code,
			Status:     string(state.Status),
			MaxPlayers: state.MaxPlayers,
			Seated:     len(state.PlayerOrder),
			CreatedAt:  state.CreatedAt,
		}}
		if seatsPayload, err := h.st.GetSeats(r.Context(), code); err == nil {
			if err := state.UnmarshalSeats(seatsPayload); err == nil {
				for _, id := range state.SeatedOrder() {
					seat := state.Seats[id]
					detail.Seats = append(detail.Seats, seatSummary{
						PlayerID:    seat.Identity,
						TurnOrder:   seat.TurnOrder,
						Connected:   seat.Connected,
						DisplayName: seat.DisplayName,
					})
				}
			}
		}
		if _, err := h.st.GetGame(r.Context(), code); err == nil {
			detail.GameActive = true
		}
		WriteJSON(w, http.StatusOK, detail)
	}
}
