package studio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/audio"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/engine"
	"github.com/kunkle3328-dev/NebulaMindBakup/pkg/notebook"
)

// TTS output arrives as 24 kHz mono PCM.
const ttsSampleRate = 24000

// OverviewLength controls the target runtime of an audio overview.
type OverviewLength string

const (
	LengthShort  OverviewLength = "Short"
	LengthMedium OverviewLength = "Medium"
	LengthLong   OverviewLength = "Long"
)

// OverviewStyle is the conversational register of the generated script.
type OverviewStyle string

const (
	StyleDeepDive   OverviewStyle = "Deep Dive"
	StyleDebate     OverviewStyle = "Heated Debate"
	StyleCasual     OverviewStyle = "Casual Chat"
	StyleNewsBrief  OverviewStyle = "News Brief"
	StyleStudyGuide OverviewStyle = "Study Guide"
)

// OverviewOptions configure GenerateAudioOverview. Zero values fall back
// to a medium-length deep dive with the default host voices.
type OverviewOptions struct {
	Length    OverviewLength
	Style     OverviewStyle
	JoeVoice  string
	JaneVoice string
	// OnProgress receives coarse status updates during the multi-step
	// generation.
	OnProgress func(status string)
}

// Overview is a finished audio overview: the script, the rendered track,
// and optional cover art.
type Overview struct {
	Track  engine.Track
	Script string
}

var stageMarkers = regexp.MustCompile(`\[.*?\]`)

const scriptSystemInstruction = `
You are an expert podcast producer and scriptwriter for "Nebula Mind".

GOAL: Write a script that sounds 100%% human, spontaneous, and witty.
AVOID: "In conclusion", "As we can see", "Let's dive in", robotic transitions, or summarizing things like a textbook.

CHARACTERS:
1. JOE (The Skeptic/Host): Dry wit, grounds the conversation, asks the "dumb" questions the audience is thinking. Often interrupts to clarify.
2. JANE (The Expert/Analyst): High energy, connects the dots, passionate, maybe speaks a bit fast when excited.

FORMAT RULES:
- Use "Joe:" and "Jane:" labels.
- Use [LAUGH], [SIGH], [PAUSE] for pacing.
- INTERRUPTIONS: Use double dash "--" at the end of a line if someone gets cut off.
- FILLERS: Occasional "um", "like", or "you know" is okay to sound natural, but don't overdo it.
- STYLE: %s (Adjust tone accordingly).

STRUCTURE:
- Start COLD (No "Welcome to the podcast"). Start with a surprising fact or a joke.
- Go deep into the "Why" and "How", not just the "What".
- End with a lingering question or a funny observation, not a formal summary.
`

// SpeakText renders text as single-voice speech and writes it to a WAV
// file, returning the file path.
func (g *Generator) SpeakText(ctx context.Context, text string) (string, error) {
	if len(text) > 4000 {
		text = text[:4000]
	}

	resp, err := g.models.GenerateContent(ctx, ModelTTS, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: "Aoede"},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate speech: %w", err)
	}

	pcm := firstInlineData(resp)
	if len(pcm) == 0 {
		return "", fmt.Errorf("generate speech: no audio in response")
	}

	name := fmt.Sprintf("speech-%d", time.Now().UnixMilli())
	path, err := audio.WriteWAVFile(g.outDir, name, pcm, ttsSampleRate)
	if err != nil {
		return "", fmt.Errorf("write speech file: %w", err)
	}
	return path, nil
}

// GenerateAudioOverview produces a two-host conversation over the sources:
// a script from the reasoning model, cover art, then multi-speaker speech
// rendered to a WAV track.
func (g *Generator) GenerateAudioOverview(ctx context.Context, sources []notebook.Source, opts OverviewOptions) (*Overview, error) {
	if opts.Length == "" {
		opts.Length = LengthMedium
	}
	if opts.Style == "" {
		opts.Style = StyleDeepDive
	}
	if opts.JoeVoice == "" {
		opts.JoeVoice = "Puck"
	}
	if opts.JaneVoice == "" {
		opts.JaneVoice = "Aoede"
	}
	progress := opts.OnProgress
	if progress == nil {
		progress = func(string) {}
	}

	duration := "roughly 8-10 minutes"
	switch opts.Length {
	case LengthShort:
		duration = "about 3-5 minutes"
	case LengthLong:
		duration = "about 12-15 minutes"
	}

	progress(fmt.Sprintf("Synthesizing %s Script...", opts.Style))
	userPrompt := fmt.Sprintf("Create a %s podcast script. Length: %s. SOURCE MATERIAL: %s",
		opts.Style, duration, FormatContext(sources))
	scriptResp, err := g.models.GenerateContent(ctx, ModelScript, genai.Text(userPrompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(fmt.Sprintf(scriptSystemInstruction, opts.Style), genai.RoleUser),
		MaxOutputTokens:   8192,
		Temperature:       genai.Ptr[float32](0.8),
	})
	if err != nil {
		return nil, fmt.Errorf("generate overview script: %w", err)
	}

	script := scriptResp.Text()
	title := fmt.Sprintf("%s Podcast", opts.Style)
	script, extracted := extractTitle(script)
	if extracted != "" {
		title = extracted
	}
	script = strings.TrimSpace(strings.ReplaceAll(script, "SCRIPT_START", ""))

	progress("Designing Cover Art...")
	coverURL := g.generateCover(ctx, title, opts.Style)

	progress("Recording Audio Voices...")
	safeScript := stageMarkers.ReplaceAllString(script, "")
	if len(safeScript) > 40000 {
		safeScript = safeScript[:40000]
	}
	ttsResp, err := g.models.GenerateContent(ctx, ModelTTS, genai.Text(safeScript), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			MultiSpeakerVoiceConfig: &genai.MultiSpeakerVoiceConfig{
				SpeakerVoiceConfigs: []*genai.SpeakerVoiceConfig{
					speakerVoice("Joe", opts.JoeVoice),
					speakerVoice("Jane", opts.JaneVoice),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generate overview audio: %w", err)
	}
	pcm := firstInlineData(ttsResp)
	if len(pcm) == 0 {
		return nil, fmt.Errorf("generate overview audio: no audio in response")
	}

	progress("Processing Audio Stream...")
	path, err := audio.WriteWAVFile(g.outDir, title, pcm, ttsSampleRate)
	if err != nil {
		return nil, fmt.Errorf("write overview file: %w", err)
	}

	cfg := audio.Config{SampleRate: ttsSampleRate, Channels: 1, BitsPerSample: 16}
	return &Overview{
		Script: script,
		Track: engine.Track{
			URL:      path,
			Title:    title,
			Topic:    "Research Overview",
			CoverURL: coverURL,
			Duration: float64(cfg.DurationMs(len(pcm))) / 1000,
		},
	}, nil
}

func speakerVoice(speaker, voiceName string) *genai.SpeakerVoiceConfig {
	return &genai.SpeakerVoiceConfig{
		Speaker: speaker,
		VoiceConfig: &genai.VoiceConfig{
			PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voiceName},
		},
	}
}

// extractTitle pulls a "TITLE:" line out of the script, returning the
// script without it and the title found.
func extractTitle(script string) (string, string) {
	if !strings.Contains(script, "TITLE:") {
		return script, ""
	}
	lines := strings.Split(script, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "TITLE:") {
			title := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "TITLE:"))
			rest := append(append([]string{}, lines[:i]...), lines[i+1:]...)
			return strings.TrimSpace(strings.Join(rest, "\n")), title
		}
	}
	return script, ""
}

// generateCover renders cover art for the overview. Cover failures degrade
// to no artwork rather than failing the overview.
func (g *Generator) generateCover(ctx context.Context, title string, style OverviewStyle) string {
	prompt := fmt.Sprintf("Podcast cover art for %q. Style: High-end 3D abstract digital art, 8k resolution, %s vibes.", title, style)
	resp, err := g.models.GenerateContent(ctx, ModelImage, genai.Text(prompt), nil)
	if err != nil {
		g.log.Warn("cover art generation failed", "error", err)
		return ""
	}
	img := firstInlineData(resp)
	if len(img) == 0 {
		return ""
	}

	path := filepath.Join(g.outDir, "cover-"+fmt.Sprint(time.Now().UnixMilli())+".png")
	if err := os.WriteFile(path, img, 0o644); err != nil {
		g.log.Warn("write cover art", "error", err)
		return ""
	}
	return path
}
