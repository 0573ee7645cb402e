package httptransport

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"dicee-server/internal/config"
	"dicee-server/internal/room"
	"dicee-server/internal/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func NewRouter(st LobbyStore, hub *room.Hub, wsSrv *ws.Server, cfg config.RoomConfig) *chi.Mux {
	lobby := NewLobbyHandlers(st, hub, cfg)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", lobby.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/rooms", lobby.CreateRoom())
		r.Get("/rooms", lobby.Rooms())
		r.Get("/rooms/{room_code}", lobby.Room())
	})

	// The websocket upgrade path skips the request logger; frames are logged
	// by the room actors themselves.
	r.Get("/ws/{room_code}", wsSrv.HandleWS)

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
