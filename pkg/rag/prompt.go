package rag

import "strings"

const answerSystemPrompt = "You are a very knowledgeable assistant in any field. " +
	"Only answer using the provided context. " +
	"If the context does not contain the answer, say that the uploaded documents do not cover it. " +
	"Fine-tune your answer to explain to somebody who is not an expert in this field. " +
	"Add any additional explanation for clarity. " +
	"At the end add some study suggestions and outline each step clearly."

const searchSystemPrompt = "You answer questions about the user's uploaded documents. " +
	"Before answering you must call the " + SearchToolName + " tool with a short search query " +
	"describing what to look up. Do not answer from memory."

// answerUserPrompt builds the final user message from the context block.
func answerUserPrompt(contextBlock, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
