package codes

import "golang.org/x/crypto/bcrypt"

// One-time codes are stored hashed so a database leak does not expose
// codes that are still within their validity window.

func Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether code matches the stored hash.
func Verify(hash, code string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
}
