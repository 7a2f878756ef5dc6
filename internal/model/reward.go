package model

type Reward struct {
	ID            string `json:"id"`
	RoleID        string `json:"roleId"`
	Title         string `json:"title"`
	Cost          int    `json:"cost"`
	Note          string `json:"note"`
	RedeemedCount int    `json:"redeemedCount"`
}
