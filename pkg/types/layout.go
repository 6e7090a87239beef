package types

import "github.com/google/uuid"

// CampaignLayout captures how the DM arranges player inventories on screen.
type CampaignLayout struct {
	Order   []uuid.UUID        `json:"order"`
	Visible map[uuid.UUID]bool `json:"visible"`
}

// GridSize is a width×height pair used for default backpack sizing.
type GridSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
