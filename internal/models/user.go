package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether r is one of the participant kinds.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

type User struct {
	ID        string    `gorm:"primaryKey;type:text" json:"_id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FirstName string `gorm:"type:text" json:"firstName"`
	LastName  string `gorm:"type:text" json:"lastName"`
	Email     string `gorm:"uniqueIndex;type:text" json:"email"`
	Avatar    string `gorm:"type:text" json:"avatar,omitempty"`
	Role      Role   `gorm:"type:text;index;not null" json:"role"`

	StudentProfile *StudentProfile `gorm:"foreignKey:UserID" json:"studentProfile,omitempty"`
	TeacherProfile *TeacherProfile `gorm:"foreignKey:UserID" json:"teacherProfile,omitempty"`
}

// DisplayName joins the name parts the way notifications render them.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Summary is the public subset of a user embedded in messages and events.
type Summary struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	Role      Role   `json:"role,omitempty"`
}

func (u User) Summary() Summary {
	return Summary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Avatar: u.Avatar, Role: u.Role}
}

type StudentProfile struct {
	UserID    string    `gorm:"primaryKey;type:text" json:"-"`
	Location  string    `gorm:"type:text" json:"location"`
	PinCode   string    `gorm:"type:text" json:"pinCode,omitempty"`
	Grade     string    `gorm:"type:text" json:"grade,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type TeacherProfile struct {
	UserID          string         `gorm:"primaryKey;type:text" json:"-"`
	Location        string         `gorm:"type:text" json:"location"`
	PinCode         string         `gorm:"type:text;index" json:"pinCode,omitempty"`
	ExperienceYears int            `gorm:"default:0" json:"experienceYears"`
	IsListed        bool           `gorm:"default:false;index" json:"isListed"`
	HourlyRate      int            `gorm:"default:0" json:"hourlyRate"`
	Bio             string         `gorm:"type:text" json:"bio,omitempty"`
	Subjects        datatypes.JSON `json:"subjects,omitempty"`
	UpdatedAt       time.Time      `json:"updatedAt"`

	Availability []TeacherAvailability `gorm:"foreignKey:TeacherID;references:UserID" json:"availability,omitempty"`
}

// SubjectList decodes the Subjects column; malformed data yields nil.
func (p TeacherProfile) SubjectList() []string {
	if len(p.Subjects) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(p.Subjects, &out); err != nil {
		return nil
	}
	return out
}

// TeacherAvailability is one weekday window. Slots, when set, overrides the
// hourly slots derived from StartTime/EndTime.
type TeacherAvailability struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	TeacherID string         `gorm:"index;type:text;not null" json:"-"`
	Day       string         `gorm:"type:text;not null" json:"day"`
	StartTime string         `gorm:"type:text" json:"startTime,omitempty"`
	EndTime   string         `gorm:"type:text" json:"endTime,omitempty"`
	Slots     datatypes.JSON `json:"slots,omitempty"`
}

// SlotList decodes the explicit slot list. ok is false when no list was stored.
func (a TeacherAvailability) SlotList() (slots []string, ok bool) {
	if len(a.Slots) == 0 || string(a.Slots) == "null" {
		return nil, false
	}
	if err := json.Unmarshal(a.Slots, &slots); err != nil {
		return nil, false
	}
	return slots, true
}
