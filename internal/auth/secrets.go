package auth

import "golang.org/x/crypto/bcrypt"

// HashSecret hashes a refresh token with the configured cost before it is
// stored. Only the hash lives in the session store.
func HashSecret(secret string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CompareSecret verifies a presented refresh token against its stored hash.
func CompareSecret(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
