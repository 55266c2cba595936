package domain

import "time"

type UserType string

const (
	UserAdsClient  UserType = "ads_client"
	UserAdsManager UserType = "ads_manager"
)

// Valid accepts the known types and the empty value (type not chosen yet).
func (t UserType) Valid() bool {
	switch t {
	case "", UserAdsClient, UserAdsManager:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	TypeUser     UserType
	CreatedAt    time.Time
}
