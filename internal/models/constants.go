package models

const (
	// Blank replaces the answer keyword inside a quiz sentence.
	Blank = "____"
	// NoAnswer is returned when the selected context holds no answer span.
	NoAnswer = "no answer"
	// SentenceSeparator splits a document into chunking units.
	SentenceSeparator = ". "
)

// question bank tier labels
const (
	TierOneMark   = "1 Mark"
	TierTwoMark   = "2 Mark"
	TierThreeMark = "3 Mark"
	TierFiveMark  = "5 Mark"
)

var (
	SummaryPromptTemplate = `Summarize the following text in a few sentences. Answer only with the summary.

%s`

	QAPromptTemplate = `Answer the question by copying the shortest exact span from the context.
If the context does not contain the answer, reply with "%s".
Answer only with the span.

Context:
%s

Question: %s`

	QuestionPromptTemplate = `generate question: %s`

	FlashcardPromptTemplate = `What is %s? Give a short and clear definition.`

	CaptionPrompt = `Describe this image in one sentence.`

	ImageExplainPromptTemplate = `Based on the document below, explain the image:

Document:
%s

Image Caption:
%s`
)
