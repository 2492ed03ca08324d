package models

import (
	"time"

	"gorm.io/gorm"
)

// Appointment lifecycle state is carried by two independent flags.
// Nothing clears one flag when the other is set, so a row could in
// principle hold both; the workflow never does it, but no constraint
// enforces the exclusion.
type Appointment struct {
	gorm.Model
	DoctorID            uint      `gorm:"column:doctor_id;not null;index" json:"doctor_id"`
	PatientID           uint      `gorm:"column:patient_id;not null;index" json:"patient_id"`
	AppointmentDatetime time.Time `gorm:"column:appointment_datetime;not null" json:"appointment_datetime"`
	Reason              string    `gorm:"column:reason;size:255;not null" json:"reason"`
	IsCompleted         bool      `gorm:"column:is_completed;default:false" json:"is_completed"`
	IsCancelled         bool      `gorm:"column:is_cancelled;default:false" json:"is_cancelled"`
	Feedback            *string   `gorm:"column:feedback;size:1000" json:"feedback,omitempty"`
}

type Prescription struct {
	gorm.Model
	AppointmentID uint   `gorm:"column:appointment_id;not null" json:"appointment_id"`
	DoctorID      uint   `gorm:"column:doctor_id;not null" json:"doctor_id"`
	PatientID     uint   `gorm:"column:patient_id;not null" json:"patient_id"`
	Complaints    string `gorm:"column:complaints;size:1000;not null" json:"complaints"`
	Medicines     string `gorm:"column:medicines;size:1000;not null" json:"medicines"`
	Notes         string `gorm:"column:notes;size:1000" json:"notes,omitempty"`

	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (Prescription) TableName() string {
	return "prescriptions"
}
