package domain

// User is a row of the membership table. Credential holds whatever the
// table stores for the password column: the legacy plaintext value or a
// bcrypt hash, depending on how the account was created.
type User struct {
	Username   string
	Credential string
	Expiry     string // YYYY-MM-DD
}

// Identity is the authenticated principal handed back to the caller after
// a successful login. The core never stores it; the presentation layer
// owns session persistence.
type Identity struct {
	Username string
	Admin    bool
}

// Labels for the non-date outcomes of a subscription check.
const (
	LabelPermanent = "permanent"
	LabelNoAccount = "no such account"
	LabelBadDate   = "bad date format"
	LabelNoDataset = "dataset unavailable"
)

// Membership is the result of a subscription check. Label carries the
// expiry date string for regular members, or one of the Label constants.
type Membership struct {
	Active bool
	Label  string
}
