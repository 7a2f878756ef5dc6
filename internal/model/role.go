package model

type Role struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}
