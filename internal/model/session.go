package model

type DeviceSession struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	Ctime     int64  `json:"ctime"`
	ExpiresAt int64  `json:"expires_at"`
}
