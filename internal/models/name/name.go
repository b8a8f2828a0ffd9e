package models

type Name struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
