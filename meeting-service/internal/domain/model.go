package domain

import (
	"time"
)

// MeetingModel is the GORM model for the meetings table.
type MeetingModel struct {
	ID             string  `gorm:"type:varchar(36);primaryKey"`
	MeetingID      string  `gorm:"type:varchar(64);uniqueIndex;not null"`
	HostID         string  `gorm:"type:varchar(36);index;not null"`
	Title          *string `gorm:"type:varchar(200)"`
	ScheduledStart *time.Time
	Status         string    `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for MeetingModel.
func (MeetingModel) TableName() string {
	return "meetings"
}

// ToDomain converts MeetingModel to domain Meeting.
func (m *MeetingModel) ToDomain() *Meeting {
	return &Meeting{
		ID:             m.ID,
		MeetingID:      m.MeetingID,
		HostID:         m.HostID,
		Title:          m.Title,
		ScheduledStart: m.ScheduledStart,
		Status:         MeetingStatus(m.Status),
		CreatedAt:      m.CreatedAt,
	}
}

// MeetingToModel converts domain Meeting to MeetingModel.
func MeetingToModel(m *Meeting) *MeetingModel {
	return &MeetingModel{
		ID:             m.ID,
		MeetingID:      m.MeetingID,
		HostID:         m.HostID,
		Title:          m.Title,
		ScheduledStart: m.ScheduledStart,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
	}
}
