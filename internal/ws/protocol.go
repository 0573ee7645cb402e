package ws

// Client -> server messages. Every frame is JSON with a "type" discriminator;
// anything after the join is routed to the room actor as a command.

type JoinMessage struct {
	Type        string `json:"type"`
	PlayerID    string `json:"player_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	Role        string `json:"role,omitempty"`
}

type RollMessage struct {
	Type string `json:"type"`
	Keep []bool `json:"keep,omitempty"`
}

type KeepMessage struct {
	Type    string `json:"type"`
	Indices []int  `json:"indices"`
}

type ScoreMessage struct {
	Type     string `json:"type"`
	Category string `json:"category"`
}
