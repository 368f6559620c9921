package models

import "time"

// UserType distinguishes buyers from artists.
type UserType string

const (
	UserTypeBuyer  UserType = "buyer"
	UserTypeArtist UserType = "artist"
)

// User is the identity record. Registration and credentials live in the
// identity service; this module only reads who a token belongs to.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	FullName  string    `json:"full_name" gorm:"type:varchar(200)"`
	UserType  UserType  `json:"user_type" gorm:"type:varchar(20);not null;default:buyer"`
	IsStaff   bool      `json:"is_staff" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the authenticated principal passed explicitly into every
// service operation.
type Identity struct {
	UserID   string
	Username string
	UserType UserType
	IsStaff  bool
}

// IdentityOf builds the principal for a stored user.
func IdentityOf(u *User) Identity {
	return Identity{
		UserID:   u.ID,
		Username: u.Username,
		UserType: u.UserType,
		IsStaff:  u.IsStaff,
	}
}

func (i Identity) IsArtist() bool { return i.UserType == UserTypeArtist }
