package live

import "fmt"

// BuildSystemInstruction assembles the system instruction for the session
// from its conversation mode, debate role, source context, and user name.
func BuildSystemInstruction(cfg SessionConfig) string {
	if cfg.Mode == ModeArena {
		return debateInstruction(cfg.SourceContext, cfg.Role)
	}
	return hostInstruction(cfg.SourceContext, cfg.UserName)
}

func hostInstruction(sourceContext, userName string) string {
	guest := "the user (who is acting as a guest or co-host)"
	if userName != "" {
		guest = fmt.Sprintf("%s (who is acting as a guest or co-host)", userName)
	}
	return fmt.Sprintf(`You are a podcast host (Host A). You are knowledgeable, enthusiastic, and articulate.
You are discussing the following material with %s.

MATERIAL:
%s

IMPORTANT INSTRUCTIONS:
1. Use the provided MATERIAL as a foundation for your knowledge.
2. If the user asks a question NOT in the material, answer politely based on general knowledge.
3. Keep responses concise and conversational.`, guest, sourceContext)
}

func debateInstruction(sourceContext string, role DebateRole) string {
	var stance string
	switch role {
	case RolePro:
		stance = "Supporting the Topic"
	case RoleCon:
		stance = "Opposing the Topic"
	default:
		stance = "Neutral"
	}
	return fmt.Sprintf(
		"You are the Nebula Mind AI Podcast Team. Debate the user. User Role: %s. User Stance: %s. CONTEXT: %s",
		role, stance, sourceContext)
}
