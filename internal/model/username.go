package model

type Username struct {
	Username string `json:"username"`
	Assigned int    `json:"assigned"`
	Ctime    int64  `json:"ctime"`
}
