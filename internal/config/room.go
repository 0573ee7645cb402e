package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// RoomConfig is the per-room policy surface. Reconnect windows differ by room
// phase: waiting rooms are forgiving, live games less so.
type RoomConfig struct {
	MaxPlayersDefault int           `env:"ROOM_MAX_PLAYERS_DEFAULT" envDefault:"4"`
	MaxRoomLifetime   time.Duration `env:"ROOM_MAX_LIFETIME" envDefault:"24h"`
	ReconnectWaiting  time.Duration `env:"RECONNECT_WINDOW_WAITING" envDefault:"5m"`
	ReconnectPlaying  time.Duration `env:"RECONNECT_WINDOW_PLAYING" envDefault:"2m"`
	TurnAFKTimeout    time.Duration `env:"TURN_AFK_TIMEOUT" envDefault:"90s"`
	IdleEviction      time.Duration `env:"ROOM_IDLE_EVICTION" envDefault:"10m"`
	StoreWriteRetries int           `env:"STORE_WRITE_RETRIES" envDefault:"3"`

	UpperBonusThreshold int `env:"UPPER_BONUS_THRESHOLD" envDefault:"63"`
	UpperBonusScore     int `env:"UPPER_BONUS_SCORE" envDefault:"35"`
	ExtraDiceeBonus     int `env:"EXTRA_DICEE_BONUS" envDefault:"100"`
}

func LoadRoom() (RoomConfig, error) {
	var cfg RoomConfig
	if err := env.Parse(&cfg); err != nil {
		return RoomConfig{}, err
	}
	return cfg, nil
}
