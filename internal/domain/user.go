package domain

import (
	"context"
	"time"
)

// User represents a registered user.
// swagger:model User
type User struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"`
	Avatar       *string `json:"avatar,omitempty"`
	IsAdmin      bool    `json:"is_admin"`
	// Per-user notification preferences. All default to off.
	NotifyNewProposal bool      `json:"notify_new_proposal"`
	NotifyDiscussion  bool      `json:"notify_discussion"`
	NotifyBroadcast   bool      `json:"notify_broadcast"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(username, email, passwordHash string, isAdmin bool, createdAt, updatedAt time.Time) *User {
	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		// New accounts start opted into every mail category.
		NotifyNewProposal: true,
		NotifyDiscussion:  true,
		NotifyBroadcast:   true,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}
}

// PasswordHasher handles hashing and verification of user passwords.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	Hash(password string) (hash string, err error)
	Compare(hash, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, username string, isAdmin bool, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserProfileUpdate carries the optional fields of a profile update.
// Nil fields are left unchanged.
type UserProfileUpdate struct {
	Email             *string
	Avatar            *string
	Password          *string
	NotifyNewProposal *bool
	NotifyDiscussion  *bool
	NotifyBroadcast   *bool
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// List returns all users ordered by username. Used by the notification
	// dispatcher for new-proposal and broadcast recipient resolution.
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	// Delete removes the user and all data hanging off them (participations,
	// messages, proposals they proposed, recipes they authored together with
	// those recipes' proposals) in a single transaction.
	Delete(ctx context.Context, id string) error
}

// UserService defines the business logic for accounts, profiles, and admin user management.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*User, string, error)
	Login(ctx context.Context, username, password string) (string, *User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, update *UserProfileUpdate) (*User, error)

	// Admin operations. actorID must belong to an admin user.
	AdminListUsers(ctx context.Context, actorID string) ([]*User, error)
	AdminCreateUser(ctx context.Context, actorID, username, email, password string, isAdmin bool) (*User, error)
	AdminToggleAdmin(ctx context.Context, actorID, userID string) (*User, error)
	AdminChangePassword(ctx context.Context, actorID, userID, password string) error
	AdminDeleteUser(ctx context.Context, actorID, userID string) error
	AdminBroadcast(ctx context.Context, actorID, subject, body string) error
}
