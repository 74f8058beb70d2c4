package dto

import (
	"time"

	"github.com/ahlanjobb/api/internal/model"
	"gorm.io/datatypes"
)

// UserResponse is the public projection of a user. Password hash and the
// verification and reset codes never leave the service.
type UserResponse struct {
	ID                   uint             `json:"id"`
	Email                string           `json:"email"`
	PhoneNumber          string           `json:"phoneNumber,omitempty"`
	Verified             bool             `json:"verified"`
	Active               bool             `json:"active"`
	Role                 model.Role       `json:"role"`
	FirstName            string           `json:"firstName"`
	LastName             string           `json:"lastName"`
	FullName             string           `json:"fullName"`
	FileNumber           string           `json:"fileNumber,omitempty"`
	Country              string           `json:"country,omitempty"`
	City                 string           `json:"city,omitempty"`
	Zip                  string           `json:"zip,omitempty"`
	Address              string           `json:"address,omitempty"`
	Birthdate            *time.Time       `json:"birthdate,omitempty"`
	CompanyName          string           `json:"companyName,omitempty"`
	CompanyLicenseNumber string           `json:"companyLicenseNumber,omitempty"`
	StartDate            *time.Time       `json:"startDate,omitempty"`
	EndDate              *time.Time       `json:"endDate,omitempty"`
	Categories           []model.Category `json:"categories"`
	CompanyID            *uint            `json:"companyId,omitempty"`
	EmployeeID           *uint            `json:"employeeId,omitempty"`
	ProfilePicture       *MediaResponse   `json:"profilePicture,omitempty"`
	Resume               *MediaResponse   `json:"resume,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

func ToUserResponse(u *model.User) UserResponse {
	categories := []model.Category(u.Categories)
	if categories == nil {
		categories = []model.Category{}
	}
	resp := UserResponse{
		ID:                   u.ID,
		Email:                u.Email,
		PhoneNumber:          u.PhoneNumber,
		Verified:             u.Verified,
		Active:               u.Active,
		Role:                 u.Role,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		FullName:             u.FullName(),
		FileNumber:           u.FileNumber,
		Country:              u.Country,
		City:                 u.City,
		Zip:                  u.Zip,
		Address:              u.Address,
		Birthdate:            u.Birthdate,
		CompanyName:          u.CompanyName,
		CompanyLicenseNumber: u.CompanyLicenseNumber,
		StartDate:            u.StartDate,
		EndDate:              u.EndDate,
		Categories:           categories,
		CompanyID:            u.CompanyID,
		EmployeeID:           u.EmployeeID,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
	if u.ProfilePicture != nil {
		m := ToMediaResponse(u.ProfilePicture)
		resp.ProfilePicture = &m
	}
	if u.Resume != nil {
		m := ToMediaResponse(u.Resume)
		resp.Resume = &m
	}
	return resp
}

func ToUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, ToUserResponse(&users[i]))
	}
	return out
}

// UpdateUserRequest carries profile fields. Email, password and role are
// deliberately absent so a profile update can never touch them.
type UpdateUserRequest struct {
	PhoneNumber          *string           `json:"phoneNumber" binding:"omitempty,max=32"`
	FirstName            *string           `json:"firstName" binding:"omitempty,max=128"`
	LastName             *string           `json:"lastName" binding:"omitempty,max=128"`
	FileNumber           *string           `json:"fileNumber" binding:"omitempty,max=64"`
	Country              *string           `json:"country" binding:"omitempty,max=128"`
	City                 *string           `json:"city" binding:"omitempty,max=128"`
	Zip                  *string           `json:"zip" binding:"omitempty,max=5"`
	Address              *string           `json:"address" binding:"omitempty,max=256"`
	Birthdate            *time.Time        `json:"birthdate"`
	CompanyName          *string           `json:"companyName" binding:"omitempty,max=128"`
	CompanyLicenseNumber *string           `json:"companyLicenseNumber" binding:"omitempty,max=64"`
	StartDate            *time.Time        `json:"startDate"`
	EndDate              *time.Time        `json:"endDate"`
	Categories           *[]model.Category `json:"categories"`
	ProfilePictureID     *uint             `json:"profilePicture"`
	ResumeID             *uint             `json:"resume"`
}

// Columns returns the column/value pairs to update.
func (r UpdateUserRequest) Columns() map[string]any {
	cols := map[string]any{}
	setString := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	setString("phone_number", r.PhoneNumber)
	setString("first_name", r.FirstName)
	setString("last_name", r.LastName)
	setString("file_number", r.FileNumber)
	setString("country", r.Country)
	setString("city", r.City)
	setString("zip", r.Zip)
	setString("address", r.Address)
	setString("company_name", r.CompanyName)
	setString("company_license_number", r.CompanyLicenseNumber)
	if r.Birthdate != nil {
		cols["birthdate"] = *r.Birthdate
	}
	if r.StartDate != nil {
		cols["start_date"] = *r.StartDate
	}
	if r.EndDate != nil {
		cols["end_date"] = *r.EndDate
	}
	if r.Categories != nil {
		cols["categories"] = datatypes.JSONSlice[model.Category](*r.Categories)
	}
	if r.ProfilePictureID != nil {
		cols["profile_picture_id"] = *r.ProfilePictureID
	}
	if r.ResumeID != nil {
		cols["resume_id"] = *r.ResumeID
	}
	return cols
}

// CreateUserRequest is used by staff to create accounts on behalf of others.
type CreateUserRequest struct {
	Email       string           `json:"email" binding:"required,email"`
	Role        model.Role       `json:"role" binding:"omitempty,role"`
	FirstName   string           `json:"firstName" binding:"omitempty,max=128"`
	LastName    string           `json:"lastName" binding:"omitempty,max=128"`
	PhoneNumber string           `json:"phoneNumber" binding:"omitempty,max=32"`
	CompanyName string           `json:"companyName" binding:"omitempty,max=128"`
	City        string           `json:"city" binding:"omitempty,max=128"`
	Country     string           `json:"country" binding:"omitempty,max=128"`
	Categories  []model.Category `json:"categories"`
}

// UserFilter holds the list/search parameters for GET /user/list/users.
type UserFilter struct {
	Role           model.Role `form:"role" binding:"omitempty,role"`
	Page           int        `form:"page"`
	Limit          int        `form:"limit"`
	Search         string     `form:"search"`
	City           string     `form:"city"`
	Category       string     `form:"category"`
	StartDate      string     `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate        string     `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
	OrderBy        string     `form:"orderBy"`
	OrderDirection string     `form:"orderDirection" binding:"omitempty,oneof=asc desc"`
}

type UserListResponse struct {
	Users         []UserResponse `json:"users"`
	Page          int            `json:"page"`
	FilteredTotal int64          `json:"filteredTotal"`
	Total         int64          `json:"total"`
}
