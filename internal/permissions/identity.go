package permissions

// Identity is the resolved caller handed to domain services. Exactly one of
// UserID or GuestToken is set for cart and order operations; both may be nil
// for unauthenticated calls that only read public data.
type Identity struct {
	UserID     *int64
	GuestToken *string
	Email      *string
	Set        Set
}

// UserIdentity builds an identity for an authenticated user.
func UserIdentity(userID int64, set Set) Identity {
	return Identity{UserID: &userID, Set: set}
}

// GuestIdentity builds a guest identity with an empty permission set.
func GuestIdentity(token string) Identity {
	return Identity{GuestToken: &token, Set: NewSet()}
}

// IsUser reports whether the identity belongs to an authenticated user.
func (i Identity) IsUser() bool {
	return i.UserID != nil && *i.UserID > 0
}

// IsGuest reports whether the identity is a guest token holder.
func (i Identity) IsGuest() bool {
	return !i.IsUser() && i.GuestToken != nil && *i.GuestToken != ""
}

// Resolved reports whether the identity can own a cart or an order.
func (i Identity) Resolved() bool {
	return i.IsUser() || i.IsGuest()
}
