package domain

import (
	"time"
)

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleSiteAdmin UserRole = "site_admin"
	UserRoleBasic     UserRole = "basic"
	UserRoleDemo      UserRole = "demo"
)

type UserStatus string

const (
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// User is the owner of charging transactions. Issuer mirrors the
// transaction flag: true for locally managed identities, false for
// identities federated in from a roaming partner.
type User struct {
	TenantID  string     `json:"tenant_id" gorm:"primaryKey"`
	ID        string     `json:"id" gorm:"primaryKey"`
	FirstName string     `json:"first_name"`
	Name      string     `json:"name"`
	Email     string     `json:"email" gorm:"index"`
	Role      UserRole   `json:"role"`
	Status    UserStatus `json:"status"`
	Issuer    bool       `json:"issuer"`
	// AdminSiteIDs limits what a site admin can see and manage.
	AdminSiteIDs []string  `json:"admin_site_ids,omitempty" gorm:"serializer:json"`
	TagIDs       []string  `json:"tag_ids,omitempty" gorm:"serializer:json"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName renders the display name used in exports and logs.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.Name
	}
	return u.FirstName + " " + u.Name
}
