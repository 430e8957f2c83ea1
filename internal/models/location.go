package models

type Location struct {
	Type     string `json:"type"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Details  string `json:"details,omitempty"`
	MapEmbed string `json:"mapEmbed,omitempty"`
	MapImage string `json:"mapImage,omitempty"`
	MapsURL  string `json:"mapsUrl,omitempty"`
}
