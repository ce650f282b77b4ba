package session

import (
	"strings"
	"time"

	"study-assistant/internal/models"
)

// Session is everything one user has produced so far. Every derived field
// belongs to the current Document and is cleared when a new one is set.
type Session struct {
	ID               string                   `json:"id"`
	Document         *models.Document         `json:"document,omitempty"`
	Summary          string                   `json:"summary,omitempty"`
	Question         string                   `json:"question,omitempty"`
	Answer           *models.Answer           `json:"answer,omitempty"`
	Test             *models.Test             `json:"test,omitempty"`
	Grade            *models.GradeReport      `json:"grade,omitempty"`
	QuestionBank     *models.QuestionBank     `json:"question_bank,omitempty"`
	Flashcards       []models.FlashCard       `json:"flashcards,omitempty"`
	ImageExplanation *models.ImageExplanation `json:"image_explanation,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

func New(id string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// SetDocument replaces the document and drops all state derived from the
// previous one.
func (s *Session) SetDocument(doc *models.Document) {
	*s = Session{ID: s.ID, CreatedAt: s.CreatedAt, Document: doc}
	s.Touch()
}

// HasDocument reports whether a document with non-blank text is loaded.
func (s *Session) HasDocument() bool {
	return s.Document != nil && strings.TrimSpace(s.Document.Text) != ""
}

func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
