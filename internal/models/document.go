package models

// Document is the text extracted from one uploaded file.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Chunk represents a sentence-aligned piece of a document
type Chunk struct {
	Content   string `json:"content"`
	ChunkID   int    `json:"chunk_id"`
	WordCount int    `json:"word_count"`
}

type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Context  string `json:"context"`
}

// Passage is a chunk returned by similarity search.
type Passage struct {
	ChunkID    int     `json:"chunk_id"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

type ImageExplanation struct {
	Caption     string `json:"caption"`
	Explanation string `json:"explanation"`
}
