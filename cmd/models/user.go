package models

import (
	"gorm.io/gorm"
)

const (
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

type User struct {
	gorm.Model
	Username     string `gorm:"column:username;size:255;uniqueIndex;not null" json:"username"`
	Email        string `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
	Role         string `gorm:"column:role;size:50;not null" json:"role"`

	DoctorProfile  *Doctor  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"doctor_profile,omitempty"`
	PatientProfile *Patient `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"patient_profile,omitempty"`
}

type Patient struct {
	gorm.Model
	UserID  uint   `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	Age     int    `gorm:"column:age;not null" json:"age"`
	Gender  string `gorm:"column:gender;size:50;not null" json:"gender"`
	Address string `gorm:"column:address;size:255;not null" json:"address"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

type Doctor struct {
	gorm.Model
	UserID         uint   `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	Specialization string `gorm:"column:specialization;size:255;not null" json:"specialization"`
	Qualification  string `gorm:"column:qualification;size:255;not null" json:"qualification"`
	Experience     int    `gorm:"column:experience;not null" json:"experience"`
	Address        string `gorm:"column:address;size:255;not null" json:"address"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Patient) TableName() string {
	return "patients"
}

func (Doctor) TableName() string {
	return "doctors"
}
