package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"study-assistant/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	assistant *service.Assistant
	validate  *validator.Validate
	maxUpload int64
}

func NewHandler(assistant *service.Assistant, maxUploadBytes int64) *Handler {
	return &Handler{
		assistant: assistant,
		validate:  validator.New(),
		maxUpload: maxUploadBytes,
	}
}

type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// SubmitTestRequest holds answers keyed by 1-based item number.
type SubmitTestRequest struct {
	MCQAnswers   map[string]string `json:"mcq_answers"`
	BlankAnswers map[string]string `json:"blank_answers"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) CreateSession(c *gin.Context) {
	s, err := h.assistant.CreateSession(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetSession(c *gin.Context) {
	s, err := h.assistant.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.assistant.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadDocument expects a multipart form with the document in "file".
func (h *Handler) UploadDocument(c *gin.Context) {
	name, data, ok := h.readUpload(c, "file")
	if !ok {
		return
	}
	s, err := h.assistant.UploadDocument(c.Request.Context(), c.Param("id"), name, data)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) Summarize(c *gin.Context) {
	summary, err := h.assistant.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SummaryResponse{Summary: summary})
}

func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		badRequest(c, "Validation failed", validationDetails(err))
		return
	}

	answer, err := h.assistant.Ask(c.Request.Context(), c.Param("id"), req.Question)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *Handler) GenerateTest(c *gin.Context) {
	test, err := h.assistant.GenerateTest(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, test)
}

func (h *Handler) SubmitTest(c *gin.Context) {
	var req SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err.Error())
		return
	}

	mcq, err := indexAnswers(req.MCQAnswers)
	if err != nil {
		badRequest(c, "Invalid mcq_answers", err.Error())
		return
	}
	blanks, err := indexAnswers(req.BlankAnswers)
	if err != nil {
		badRequest(c, "Invalid blank_answers", err.Error())
		return
	}

	report, err := h.assistant.SubmitTest(c.Request.Context(), c.Param("id"), mcq, blanks)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) GenerateQuestionBank(c *gin.Context) {
	bank, err := h.assistant.GenerateQuestionBank(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bank)
}

func (h *Handler) GenerateFlashcards(c *gin.Context) {
	cards, err := h.assistant.GenerateFlashcards(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashcards": cards})
}

// AnalyzeImage expects a multipart form with a png or jpeg in "image".
func (h *Handler) AnalyzeImage(c *gin.Context) {
	name, data, ok := h.readUpload(c, "image")
	if !ok {
		return
	}
	out, err := h.assistant.AnalyzeImage(c.Request.Context(), c.Param("id"), name, data)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) SearchPassages(c *gin.Context) {
	k := 0
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			badRequest(c, "k must be a number between 1 and 50", nil)
			return
		}
		k = n
	}

	passages, err := h.assistant.SearchPassages(c.Request.Context(), c.Param("id"), c.Query("q"), k)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"passages": passages})
}

func (h *Handler) readUpload(c *gin.Context, field string) (string, []byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		badRequest(c, fmt.Sprintf("Missing %q in multipart form", field), err.Error())
		return "", nil, false
	}
	if fh.Size > h.maxUpload {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: fmt.Sprintf("File exceeds %d bytes", h.maxUpload),
			Code:    "too_large",
		})
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Could not read upload", err.Error())
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		badRequest(c, "Could not read upload", err.Error())
		return "", nil, false
	}
	return fh.Filename, data, true
}

func indexAnswers(in map[string]string) (map[int]string, error) {
	out := make(map[int]string, len(in))
	for k, v := range in {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 {
			return nil, errors.New("keys must be 1-based item numbers")
		}
		out[n] = v
	}
	return out, nil
}
