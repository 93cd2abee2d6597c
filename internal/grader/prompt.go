package grader

import (
	"fmt"
	"strings"
)

func systemPrompt(topic string) string {
	return fmt.Sprintf("You are a patient tutor teaching a student about %s. "+
		"Stay within the provided text and write for a first-year university student.", topic)
}

func summarizePrompt(text string) string {
	var b strings.Builder
	b.WriteString("Summarize the following textbook section for a student who will be quizzed on it.\n\n")
	b.WriteString("Text:\n")
	b.WriteString(text)
	return b.String()
}

func questionsPrompt(summary string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write exactly %d short-answer questions about the following summary. ", count)
	b.WriteString("Each question must be answerable in two or three sentences from the summary alone.\n\n")
	b.WriteString("Summary:\n")
	b.WriteString(summary)
	return b.String()
}

func evaluatePrompt(text, question, answer string) string {
	var b strings.Builder
	b.WriteString("Use the following text to evaluate a student's answer to a question. ")
	b.WriteString("Score it from 0 to 10 and explain the score, quoting the text.\n\n")
	b.WriteString("Text:\n")
	b.WriteString(text)
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nStudent's answer:\n")
	if strings.TrimSpace(answer) == "" {
		b.WriteString("(no answer given)")
	} else {
		b.WriteString(answer)
	}
	return b.String()
}
