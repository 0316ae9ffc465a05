package dto

// ServerStatus is what the server-status query prints.
type ServerStatus struct {
	Description   string      `json:"description"`
	Version       string      `json:"version"`
	ModInfo       interface{} `json:"modInfo,omitempty"`
	MaxPlayers    int         `json:"maxPlayers"`
	OnlinePlayers int         `json:"onlinePlayers"`
}
