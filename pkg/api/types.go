package api

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ssargent/gdr/pkg/codec"
	"github.com/ssargent/gdr/pkg/replay"
	"github.com/ssargent/gdr/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port            int
	Bind            string
	APIKey          string
	DefaultFormat   codec.Format // Encoding served when a request names none
	MaxPayloadBytes int          // Upper bound on request bodies, zero for no limit
	Logger          logrus.FieldLogger
}

// BotInfo identifies the bot that recorded a replay
type BotInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// LevelInfo identifies the level a replay was recorded on
type LevelInfo struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// ReplaySummary describes a replay without its inputs
type ReplaySummary struct {
	ID            string    `json:"id,omitempty"`
	Format        string    `json:"format,omitempty"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	GameVersion   float64   `json:"game_version"`
	Version       float64   `json:"version"`
	Duration      float64   `json:"duration"`
	FrameRate     float64   `json:"framerate"`
	Seed          int64     `json:"seed"`
	Coins         int       `json:"coins"`
	LowDetailMode bool      `json:"ldm"`
	Bot           BotInfo   `json:"bot"`
	Level         LevelInfo `json:"level"`
	Inputs        int       `json:"inputs"`
	LastFrame     *uint32   `json:"last_frame,omitempty"`
}

// ReplayEntry is one item of a replay listing
type ReplayEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Size      int       `json:"size"`
}

// newSummary builds a summary from a decoded replay. inputs is passed
// separately since header-only decodes carry no inputs.
func newSummary(r *replay.Replay, format codec.Format, inputs int) ReplaySummary {
	return ReplaySummary{
		Format:        format.String(),
		Author:        r.Author,
		Description:   r.Description,
		GameVersion:   r.GameVersion,
		Version:       r.Version,
		Duration:      r.Duration,
		FrameRate:     r.FrameRate,
		Seed:          r.Seed,
		Coins:         r.Coins,
		LowDetailMode: r.LowDetailMode,
		Bot:           BotInfo{Name: r.Bot.Name, Version: r.Bot.Version},
		Level:         LevelInfo{ID: r.Level.ID, Name: r.Level.Name},
		Inputs:        inputs,
	}
}

func newEntry(e storage.Entry) ReplayEntry {
	return ReplayEntry{ID: e.ID.String(), CreatedAt: e.CreatedAt, Size: e.Size}
}
