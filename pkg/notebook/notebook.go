// Package notebook holds the studio's research data model and its
// JSON-file store.
package notebook

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// SourceType classifies where a source's text came from.
type SourceType string

const (
	SourcePDF        SourceType = "pdf"
	SourceAudio      SourceType = "audio"
	SourceImage      SourceType = "image"
	SourceWebsite    SourceType = "website"
	SourceYouTube    SourceType = "youtube"
	SourceCopiedText SourceType = "copiedText"
)

// Source is one piece of research material, reduced to extracted text.
type Source struct {
	ID        string            `json:"id"`
	Type      SourceType        `json:"type"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	CreatedAt int64             `json:"createdAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Note is a free-form user note.
type Note struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}

// ArtifactType names a generated study artifact.
type ArtifactType string

const (
	ArtifactFlashcards     ArtifactType = "flashcards"
	ArtifactQuiz           ArtifactType = "quiz"
	ArtifactInfographic    ArtifactType = "infographic"
	ArtifactSlideDeck      ArtifactType = "slideDeck"
	ArtifactAudioOverview  ArtifactType = "audioOverview"
	ArtifactExecutiveBrief ArtifactType = "executiveBrief"
	ArtifactResearchPaper  ArtifactType = "researchPaper"
	ArtifactDebateDossier  ArtifactType = "debateDossier"
	ArtifactMindMap        ArtifactType = "mindMap"
	ArtifactRoadmap        ArtifactType = "strategicRoadmap"
)

// ArtifactStatus tracks an artifact through generation.
type ArtifactStatus string

const (
	StatusGenerating ArtifactStatus = "generating"
	StatusCompleted  ArtifactStatus = "completed"
	StatusFailed     ArtifactStatus = "failed"
)

// Artifact is one generated output attached to a notebook. Content is the
// structured JSON or text produced by the generator.
type Artifact struct {
	ID        string         `json:"id"`
	Type      ArtifactType   `json:"type"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	CreatedAt int64          `json:"createdAt"`
	Status    ArtifactStatus `json:"status"`
}

// Notebook is one research project: its sources and generated artifacts.
type Notebook struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Sources     []Source   `json:"sources"`
	Artifacts   []Artifact `json:"artifacts"`
	CreatedAt   int64      `json:"createdAt"`
	UpdatedAt   int64      `json:"updatedAt"`
}

// CombinedSourceText joins all source contents, the grounding material fed
// to live sessions and generators.
func (n *Notebook) CombinedSourceText() string {
	var out string
	for i, s := range n.Sources {
		if i > 0 {
			out += "\n\n"
		}
		out += s.Content
	}
	return out
}

// NewID returns a random 128-bit hex identifier.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// fall back to a time-derived ID rather than panic.
		return hex.EncodeToString([]byte(time.Now().Format("20060102150405.000000000")))[:32]
	}
	return hex.EncodeToString(b[:])
}
