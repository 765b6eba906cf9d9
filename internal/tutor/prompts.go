package tutor

import "strings"

func buildSystemPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString("You are a patient SAT tutor helping a student understand a practice question.\n\n")
	if q := strings.TrimSpace(req.QuestionContext); q != "" {
		sb.WriteString("QUESTION CONTEXT:\n" + q + "\n\n")
	}
	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("- Explain reasoning step by step in plain language.\n")
	sb.WriteString("- Keep answers short enough to read on one screen.\n")
	switch {
	case req.Flags.SummariseRequested:
		sb.WriteString("- The student wants a recap of this conversation.\n")
	case req.Flags.TipRequested:
		sb.WriteString("- The student wants a hint. Do NOT reveal the correct answer or the correct option letter.\n")
	default:
		sb.WriteString("- Answer the student's latest message.\n")
	}
	return sb.String()
}

// modeInstruction is appended as the final user turn so the model acts on
// the requested mode even when the history ends with a tutor message.
// Summarise wins when both flags are set.
func modeInstruction(f Flags) string {
	switch {
	case f.SummariseRequested:
		return "Summarise what we covered in at most five bullet points, ending with the key takeaway."
	case f.TipRequested:
		return "Give me one hint for the next step without telling me the answer."
	}
	return ""
}
