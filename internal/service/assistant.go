package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/config"
	"study-assistant/internal/generator"
	"study-assistant/internal/helper"
	"study-assistant/internal/keywords"
	"study-assistant/internal/llmservice"
	"study-assistant/internal/models"
	"study-assistant/internal/parser"
	"study-assistant/internal/quiz"
	"study-assistant/internal/rag"
	"study-assistant/internal/session"

	"github.com/rs/zerolog/log"
)

// PassageIndex is the similarity search over a session's chunks.
type PassageIndex interface {
	IndexChunks(ctx context.Context, sessionID string, chunks []models.Chunk) error
	Search(ctx context.Context, sessionID, query string, k int) ([]models.Passage, error)
	DeleteCollection(sessionID string) error
	SessionIDs() []string
}

// Assistant runs every study interaction against a stored session. Calls
// on the same session are serialized; a call that fails leaves the stored
// session as it was.
type Assistant struct {
	cfg        *config.Config
	store      session.Store
	passages   PassageIndex
	rag        *rag.RAG
	quiz       *quiz.Builder
	summarizer *generator.Summarizer
	questions  *generator.QuestionBankGenerator
	flashcards *generator.FlashcardGenerator
	images     *generator.ImageExplainer
	locks      *keyedMutex
}

// NewAssistant wires the generators to the model clients in reg. passages
// may be nil, in which case passage search is unavailable.
func NewAssistant(cfg *config.Config, store session.Store, reg *llmservice.Registry, passages PassageIndex, rng *rand.Rand) *Assistant {
	extractor := keywords.NewExtractor(reg.Embedder, cfg.Quiz.MaxCandidates)
	return &Assistant{
		cfg:        cfg,
		store:      store,
		passages:   passages,
		rag:        rag.NewRAG(reg.Embedder, reg.QA, cfg.RAG),
		quiz:       quiz.NewBuilder(extractor, rng),
		summarizer: generator.NewSummarizer(reg.Summarizer, cfg.Summary),
		questions:  generator.NewQuestionBankGenerator(reg.QuestionGen, cfg.Quiz),
		flashcards: generator.NewFlashcardGenerator(extractor, reg.Explainer, cfg.Flashcard),
		images:     generator.NewImageExplainer(reg.Captioner, reg.Explainer, cfg.Image),
		locks:      newKeyedMutex(),
	}
}

func (a *Assistant) CreateSession(ctx context.Context) (*session.Session, error) {
	id, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	s := session.New(id)
	if err := a.store.Save(ctx, s); err != nil {
		return nil, err
	}
	log.Info().Str("session", id).Msg("Session created")
	return s, nil
}

func (a *Assistant) GetSession(ctx context.Context, id string) (*session.Session, error) {
	if !helper.ValidUUID(id) {
		return nil, apperrors.InvalidInput("get session", fmt.Errorf("invalid session id %q", id))
	}
	return a.store.Get(ctx, id)
}

func (a *Assistant) DeleteSession(ctx context.Context, id string) error {
	if !helper.ValidUUID(id) {
		return apperrors.InvalidInput("delete session", fmt.Errorf("invalid session id %q", id))
	}
	unlock := a.locks.Lock(id)
	defer unlock()

	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	if a.passages != nil {
		if err := a.passages.DeleteCollection(id); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("Failed to drop passage collection")
		}
	}
	log.Info().Str("session", id).Msg("Session deleted")
	return nil
}

// UploadDocument extracts the text of the file and makes it the session's
// document, clearing everything derived from the previous one.
func (a *Assistant) UploadDocument(ctx context.Context, id, filename string, data []byte) (*session.Session, error) {
	text, err := parser.LoadText(filename, data)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			err = apperrors.InvalidInput("load document", err)
		}
		return nil, err
	}

	s, err := a.run(ctx, id, false, true, func(s *session.Session) error {
		s.SetDocument(&models.Document{Name: filename, Text: text})
		return nil
	}, a.indexPassages)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", id).Str("file", filename).Int("chars", len(text)).Msg("Document uploaded")
	return s, nil
}

// indexPassages replaces the session's passage collection with the chunks of
// its current document. It runs under the session lock.
func (a *Assistant) indexPassages(ctx context.Context, s *session.Session) {
	if a.passages == nil {
		return
	}
	var err error
	if s.HasDocument() {
		err = a.passages.IndexChunks(ctx, s.ID, a.rag.Chunk(s.Document.Text))
	} else {
		err = a.passages.DeleteCollection(s.ID)
	}
	if err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("Passage indexing failed")
	}
}

func (a *Assistant) Summarize(ctx context.Context, id string) (string, error) {
	s, err := a.update(ctx, id, true, func(s *session.Session) error {
		summary, err := a.summarizer.Summarize(ctx, s.Document.Text)
		if err != nil {
			return err
		}
		s.Summary = summary
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.Summary, nil
}

func (a *Assistant) Ask(ctx context.Context, id, question string) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, apperrors.InvalidInput("ask", errors.New("question is empty"))
	}
	s, err := a.update(ctx, id, true, func(s *session.Session) error {
		answer, err := a.rag.Answer(ctx, s.Document.Text, question)
		if err != nil {
			return err
		}
		s.Question, s.Answer = question, answer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Answer, nil
}

// GenerateTest builds a new test and discards any previous grading.
func (a *Assistant) GenerateTest(ctx context.Context, id string) (*models.Test, error) {
	s, err := a.update(ctx, id, true, func(s *session.Session) error {
		test, err := a.quiz.GenerateTest(ctx, s.Document.Text, a.cfg.Quiz.MCQCount, a.cfg.Quiz.BlankCount)
		if err != nil {
			return err
		}
		s.Test, s.Grade = test, nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Test, nil
}

// SubmitTest grades answers keyed by 1-based item number.
func (a *Assistant) SubmitTest(ctx context.Context, id string, mcqAnswers, blankAnswers map[int]string) (*models.GradeReport, error) {
	s, err := a.update(ctx, id, true, func(s *session.Session) error {
		if s.Test == nil || s.Test.Total() == 0 {
			return apperrors.InvalidInput("submit test", errors.New("no test has been generated"))
		}
		s.Grade = quiz.Grade(s.Test, mcqAnswers, blankAnswers)
		s.Test.Submitted = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", id).Int("score", s.Grade.Score).Int("total", s.Grade.Total).Msg("Test graded")
	return s.Grade, nil
}

func (a *Assistant) GenerateQuestionBank(ctx context.Context, id string) (*models.QuestionBank, error) {
	s, err := a.update(ctx, id, true, func(s *session.Session) error {
		bank, err := a.questions.Generate(ctx, s.Document.Text)
		if err != nil {
			return err
		}
		s.QuestionBank = bank
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.QuestionBank, nil
}

func (a *Assistant) GenerateFlashcards(ctx context.Context, id string) ([]models.FlashCard, error) {
	s, err := a.update(ctx, id, true, func(s *session.Session) error {
		cards, err := a.flashcards.Generate(ctx, s.Document.Text)
		if err != nil {
			return err
		}
		s.Flashcards = cards
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Flashcards, nil
}

// AnalyzeImage captions an uploaded diagram and explains it with the
// session's document as context. Without a document the explanation rests on
// the caption alone.
func (a *Assistant) AnalyzeImage(ctx context.Context, id, filename string, data []byte) (*models.ImageExplanation, error) {
	img, err := parser.LoadImage(filename, data)
	if err != nil {
		return nil, err
	}
	s, err := a.update(ctx, id, false, func(s *session.Session) error {
		var doc string
		if s.Document != nil {
			doc = s.Document.Text
		}
		explanation, err := a.images.Explain(ctx, img, doc)
		if err != nil {
			return err
		}
		s.ImageExplanation = explanation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.ImageExplanation, nil
}

// SearchPassages returns the k chunks of the document closest to query.
func (a *Assistant) SearchPassages(ctx context.Context, id, query string, k int) ([]models.Passage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.InvalidInput("search passages", errors.New("query is empty"))
	}
	if a.passages == nil {
		return nil, apperrors.ModelUnavailable("search passages", errors.New("passage index disabled"))
	}
	if k <= 0 {
		k = a.cfg.RAG.PassageResults
	}

	var passages []models.Passage
	_, err := a.view(ctx, id, true, func(s *session.Session) error {
		var err error
		passages, err = a.passages.Search(ctx, id, query, k)
		if err != nil {
			return apperrors.InferenceFailure("search passages", err)
		}
		return nil
	})
	return passages, err
}

// Sweep removes expired sessions from stores that keep them, then drops the
// passage collections of sessions that no longer exist.
func (a *Assistant) Sweep(ctx context.Context) error {
	if sw, ok := a.store.(session.Sweeper); ok {
		n, err := sw.Sweep(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Info().Int("sessions", n).Msg("Expired sessions removed")
		}
	}
	if a.passages == nil {
		return nil
	}

	for _, id := range a.passages.SessionIDs() {
		if err := a.dropOrphanPassages(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (a *Assistant) dropOrphanPassages(ctx context.Context, id string) error {
	unlock := a.locks.Lock(id)
	defer unlock()

	ok, err := a.store.Exists(ctx, id)
	if err != nil || ok {
		return err
	}
	if err := a.passages.DeleteCollection(id); err != nil {
		return err
	}
	log.Debug().Str("session", id).Msg("Passages of expired session dropped")
	return nil
}

// RunJanitor calls Sweep every interval until ctx is done.
func (a *Assistant) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Sweep(ctx); err != nil {
				log.Warn().Err(err).Msg("Session sweep failed")
			}
		}
	}
}

// update loads the session under its lock, applies fn and saves the result.
// Nothing is saved when fn fails.
func (a *Assistant) update(ctx context.Context, id string, requireDocument bool, fn func(*session.Session) error) (*session.Session, error) {
	return a.run(ctx, id, requireDocument, true, fn, nil)
}

// view is update without the save.
func (a *Assistant) view(ctx context.Context, id string, requireDocument bool, fn func(*session.Session) error) (*session.Session, error) {
	return a.run(ctx, id, requireDocument, false, fn, nil)
}

// run holds the session lock for fn, the save and afterSave, so nothing else
// touching the same session interleaves with them.
func (a *Assistant) run(ctx context.Context, id string, requireDocument, save bool, fn func(*session.Session) error, afterSave func(context.Context, *session.Session)) (*session.Session, error) {
	if !helper.ValidUUID(id) {
		return nil, apperrors.InvalidInput("session", fmt.Errorf("invalid session id %q", id))
	}
	unlock := a.locks.Lock(id)
	defer unlock()

	s, err := a.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requireDocument && !s.HasDocument() {
		return nil, apperrors.EmptyDocument("")
	}
	if err := fn(s); err != nil {
		log.Debug().Err(err).Str("session", id).Msg("Interaction failed, session left unchanged")
		return nil, err
	}
	if !save {
		return s, nil
	}

	s.Touch()
	if err := a.store.Save(ctx, s); err != nil {
		return nil, err
	}
	if afterSave != nil {
		afterSave(ctx, s)
	}
	return s, nil
}
