// Package assistant exposes the patient-facing language tools: free-form
// translation and the medical information chatbot. Both ride on the hosted
// models in platform/mlmodel and degrade to pass-through answers rather
// than failing the request when a model is down.
package assistant

import (
	"time"

	"github.com/google/uuid"
)

// Chat transcript sender types.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatMessage maps to the patient_chat_messages table. Both sides of a
// chatbot exchange are stored, each in the language it was delivered in.
type ChatMessage struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientUserID   uuid.UUID  `db:"patient_user_id" json:"patient_user_id"`
	PatientRecordID *uuid.UUID `db:"patient_record_id" json:"patient_record_id"`
	MessageText     string     `db:"message_text" json:"message_text"`
	SenderType      string     `db:"sender_type" json:"sender_type"`
	Language        string     `db:"language" json:"language"`
	Timestamp       time.Time  `db:"timestamp" json:"timestamp"`
}

// PatientContext is the slice of a patient record woven into the chatbot
// prompt. Disease and location stay nil when the record never filled them.
type PatientContext struct {
	Name     string
	Disease  *string
	Location *string
}

// TranslateInput is the translation request body.
type TranslateInput struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	SourceLang string `json:"source_lang"`
}

// TranslateResult mirrors the translation response shape.
type TranslateResult struct {
	TranslatedText     string `json:"translated_text"`
	SourceLangDetected string `json:"source_lang_detected"`
}

// ChatInput is the chatbot request body.
type ChatInput struct {
	Message         string     `json:"message"`
	Language        string     `json:"language"`
	PatientRecordID *uuid.UUID `json:"patient_record_id"`
}

// ChatReply is the chatbot response, already in the patient's language.
type ChatReply struct {
	Reply    string `json:"reply"`
	Language string `json:"language"`
}
