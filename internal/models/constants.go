package models

const (
	DefaultIndexName  = "talk_endee"
	DefaultSpaceType  = "cosine"
	DefaultSearchEF   = 128
	UnknownSource     = "unknown"
	StatusSuccess     = "success"
	StatusError       = "error"
	ContextSeparator  = "\n\n"
	ContextHeader     = "[Source: %s | Score: %.2f]\n%s"
	MaxErrorBodyBytes = 200
)

var (
	SystemPrompt = `You are a helpful assistant that answers questions based on provided context.
Rules:
- Answer based ONLY on the provided context
- If the context doesn't contain enough information, say so clearly
- Be concise and accurate
- Cite sources when relevant
`

	UserPromptTemplate = "Context:\n%s\n\nQuestion: %s\n\nPlease answer the question based on the context above."
)
