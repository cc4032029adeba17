package model

// Actor identifies who performs a mutation. It is passed explicitly into every
// ledger, cascade, and transfer call — services never reach into ambient
// session state for identity.
type Actor struct {
	UserID   uint
	Username string
}
