package entities

import "time"

// Language is an ISO 639-1 language code supported by the translation layer.
type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguageChinese    Language = "zh"
	LanguageVietnamese Language = "vi"
	LanguageKorean     Language = "ko"
	LanguageArabic     Language = "ar"
	LanguageFrench     Language = "fr"
)

// ConversationStatus tracks the lifecycle of a conversation.
type ConversationStatus string

const (
	StatusActive    ConversationStatus = "active"
	StatusCompleted ConversationStatus = "completed"
	StatusArchived  ConversationStatus = "archived"
)

// Conversation is a doctor/patient exchange with its configured language pair.
type Conversation struct {
	ID              string             `json:"id" bson:"_id"`
	DoctorLanguage  Language           `json:"doctor_language" bson:"doctor_language"`
	PatientLanguage Language           `json:"patient_language" bson:"patient_language"`
	Status          ConversationStatus `json:"status" bson:"status"`
	Summary         *MedicalSummary    `json:"summary,omitempty" bson:"summary,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// MedicalSummary is the structured summary generated from a conversation.
type MedicalSummary struct {
	ChiefComplaint string   `json:"chief_complaint" bson:"chief_complaint"`
	Symptoms       []string `json:"symptoms" bson:"symptoms"`
	Duration       string   `json:"duration" bson:"duration"`
	Medications    []string `json:"medications" bson:"medications"`
	Allergies      []string `json:"allergies" bson:"allergies"`
	FollowUp       string   `json:"follow_up" bson:"follow_up"`
}
