package model

// RegistrationOtp is the single current OTP row for an (email, phone)
// identity. Re-issuing overwrites the row instead of appending.
type RegistrationOtp struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	EmailCodeHash string `json:"email_code_hash"`
	PhoneCodeHash string `json:"phone_code_hash"`
	Verified      int    `json:"verified"`
	Ctime         int64  `json:"ctime"`
	ExpiresAt     int64  `json:"expires_at"`
}

// LoginOtp is the single current login OTP row for a username.
type LoginOtp struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Phone     string `json:"phone"`
	CodeHash  string `json:"code_hash"`
	Verified  int    `json:"verified"`
	Ctime     int64  `json:"ctime"`
	ExpiresAt int64  `json:"expires_at"`
}
