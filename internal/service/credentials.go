package service

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier abstracts how a supplied password is checked against
// the credential column of the membership table, so the legacy plaintext
// scheme and a hashed scheme can coexist without touching the account
// state machine.
type CredentialVerifier interface {
	// NewCredential produces the value to store for a fresh account.
	NewCredential(password string) (string, error)
	// Verify reports whether the supplied password matches the stored
	// credential.
	Verify(stored, supplied string) bool
}

// PlaintextVerifier preserves the historical table format: the credential
// column holds the password itself and comparison is string equality.
// Kept for compatibility with existing rows; new deployments should
// prefer BcryptVerifier.
type PlaintextVerifier struct{}

func (PlaintextVerifier) NewCredential(password string) (string, error) {
	return password, nil
}

func (PlaintextVerifier) Verify(stored, supplied string) bool {
	return stored == supplied
}

// BcryptVerifier stores bcrypt hashes for new accounts. Verify falls back
// to plaintext equality when the stored value is not a bcrypt hash, so
// rows created before the switch keep working.
type BcryptVerifier struct{}

func (BcryptVerifier) NewCredential(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (BcryptVerifier) Verify(stored, supplied string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)); err == nil {
		return true
	}
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		// Not a bcrypt hash: legacy plaintext row.
		return stored == supplied
	}
	return false
}
