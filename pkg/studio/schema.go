package studio

import (
	"fmt"

	"google.golang.org/genai"

	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/notebook"
)

// artifactRequest returns the prompt and response schema for one artifact
// type.
func artifactRequest(typ notebook.ArtifactType) (string, *genai.Schema, error) {
	switch typ {
	case notebook.ArtifactFlashcards:
		return "Generate 15-20 high-quality flashcards.", flashcardSchema(), nil
	case notebook.ArtifactQuiz:
		return "Generate a quiz with 3 multiple choice questions.", quizSchema(), nil
	case notebook.ArtifactSlideDeck:
		return "Create a comprehensive slide deck outline (6-10 slides).", slideDeckSchema(), nil
	case notebook.ArtifactExecutiveBrief:
		return "Synthesize into a high-level Strategic Executive Briefing.", executiveBriefSchema(), nil
	case notebook.ArtifactResearchPaper:
		return "Write a comprehensive, academic-standard research paper based on the provided sources.\n" +
			"Use formal language, deep analysis, and proper citations.\n" +
			"Structure: Title, Abstract, 4-6 Detailed Sections (Introduction, Methodology/Analysis, Discussion, Conclusion), and a Reference list.", researchPaperSchema(), nil
	case notebook.ArtifactDebateDossier:
		return "Create a strategic Debate Dossier.\n" +
			"1. Identify the most contentious issue in the sources.\n" +
			"2. Provide 3 strong PRO arguments and 3 strong CON arguments.\n" +
			"3. For each argument, provide specific evidence from sources and a pre-emptive counter-attack strategy.", debateDossierSchema(), nil
	case notebook.ArtifactMindMap:
		return "Analyze the context and generate a hierarchical Mind Map structure.\n" +
			"The Root Node is the main topic.\n" +
			"Create 3-4 major branches (key themes).\n" +
			"Each branch MUST have 2-3 sub-branches (specific details).\n" +
			"Keep labels VERY SHORT (1-3 words max).", mindMapSchema(), nil
	default:
		return "", nil, fmt.Errorf("unsupported artifact type %q", typ)
	}
}

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func arrayOf(items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items}
}

func objectOf(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func flashcardSchema() *genai.Schema {
	return objectOf(map[string]*genai.Schema{
		"cards": arrayOf(objectOf(map[string]*genai.Schema{
			"term":       stringSchema(),
			"definition": stringSchema(),
		}, "term", "definition")),
	})
}

func quizSchema() *genai.Schema {
	return objectOf(map[string]*genai.Schema{
		"title": stringSchema(),
		"questions": arrayOf(objectOf(map[string]*genai.Schema{
			"question":           stringSchema(),
			"options":            arrayOf(stringSchema()),
			"correctAnswerIndex": {Type: genai.TypeInteger},
			"explanation":        stringSchema(),
		}, "question", "options", "correctAnswerIndex")),
	})
}

func slideDeckSchema() *genai.Schema {
	return objectOf(map[string]*genai.Schema{
		"deckTitle": stringSchema(),
		"slides": arrayOf(objectOf(map[string]*genai.Schema{
			"slideTitle":   stringSchema(),
			"bulletPoints": arrayOf(stringSchema()),
			"speakerNotes": stringSchema(),
		})),
	})
}

func executiveBriefSchema() *genai.Schema {
	return objectOf(map[string]*genai.Schema{
		"briefTitle":       stringSchema(),
		"executiveSummary": stringSchema(),
		"keyFindings": arrayOf(objectOf(map[string]*genai.Schema{
			"heading": stringSchema(),
			"point":   stringSchema(),
		})),
		"strategicImplications": stringSchema(),
		"actionableItems":       arrayOf(stringSchema()),
	})
}

func researchPaperSchema() *genai.Schema {
	return objectOf(map[string]*genai.Schema{
		"title":    stringSchema(),
		"abstract": stringSchema(),
		"sections": arrayOf(objectOf(map[string]*genai.Schema{
			"heading": stringSchema(),
			"content": stringSchema(),
		})),
		"references": arrayOf(stringSchema()),
	})
}

func debateDossierSchema() *genai.Schema {
	argument := objectOf(map[string]*genai.Schema{
		"claim":         stringSchema(),
		"evidence":      stringSchema(),
		"counterAttack": stringSchema(),
	})
	return objectOf(map[string]*genai.Schema{
		"topic":              stringSchema(),
		"centralControversy": stringSchema(),
		"proArguments":       arrayOf(argument),
		"conArguments":       arrayOf(argument),
	})
}

func mindMapSchema() *genai.Schema {
	return objectOf(map[string]*genai.Schema{
		"rootTopic": stringSchema(),
		"branches": arrayOf(objectOf(map[string]*genai.Schema{
			"label":   stringSchema(),
			"details": stringSchema(),
			"subBranches": arrayOf(objectOf(map[string]*genai.Schema{
				"label":   stringSchema(),
				"details": stringSchema(),
			})),
		})),
	})
}
