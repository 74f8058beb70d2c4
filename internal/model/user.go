package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role is the authorization role of an account.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleCompanyManager Role = "COMPANY_MANAGER"
	RoleEmployee       Role = "EMPLOYEE"
	RoleUser           Role = "USER"
)

// StaffRoles are the roles allowed through the staff guard.
var StaffRoles = []Role{RoleAdmin, RoleCompanyManager, RoleEmployee}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCompanyManager, RoleEmployee, RoleUser:
		return true
	}
	return false
}

func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleCompanyManager || r == RoleEmployee
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Category is a job category a user is interested in or works in.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	gorm.Model
	Email             string  `gorm:"column:email;uniqueIndex;not null"`
	Password          string  `gorm:"column:password;not null"`
	PhoneNumber       string  `gorm:"column:phone_number"`
	VerificationCode  *string `gorm:"column:verification_code;index:idx_users_verification_code,where:verification_code IS NOT NULL"`
	PasswordResetCode *string `gorm:"column:password_reset_code;index:idx_users_password_reset_code,where:password_reset_code IS NOT NULL"`
	Verified          bool    `gorm:"column:verified;not null;default:false"`
	Active            bool    `gorm:"column:active;not null;default:true"`
	Role              Role    `gorm:"column:role;type:varchar(32);not null;default:USER;index"`

	FirstName            string                        `gorm:"column:first_name"`
	LastName             string                        `gorm:"column:last_name"`
	FileNumber           string                        `gorm:"column:file_number"`
	Country              string                        `gorm:"column:country;size:128"`
	City                 string                        `gorm:"column:city;size:128"`
	Zip                  string                        `gorm:"column:zip;size:5"`
	Address              string                        `gorm:"column:address"`
	Birthdate            *time.Time                    `gorm:"column:birthdate"`
	CompanyName          string                        `gorm:"column:company_name"`
	CompanyLicenseNumber string                        `gorm:"column:company_license_number"`
	StartDate            *time.Time                    `gorm:"column:start_date"`
	EndDate              *time.Time                    `gorm:"column:end_date"`
	Categories           datatypes.JSONSlice[Category] `gorm:"column:categories"`

	CompanyID        *uint  `gorm:"column:company_id;index"`
	Company          *User  `gorm:"foreignKey:CompanyID"`
	EmployeeID       *uint  `gorm:"column:employee_id;index"`
	Employee         *User  `gorm:"foreignKey:EmployeeID"`
	ProfilePictureID *uint  `gorm:"column:profile_picture_id"`
	ProfilePicture   *Media `gorm:"foreignKey:ProfilePictureID"`
	ResumeID         *uint  `gorm:"column:resume_id"`
	Resume           *Media `gorm:"foreignKey:ResumeID"`
}

// FullName joins first and last name the way it is displayed to clients.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasCategory reports whether the user is tagged with the category id.
func (u *User) HasCategory(id string) bool {
	for _, c := range u.Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}
