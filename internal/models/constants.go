package models

const (
	ContextSeparator = "\n\n"
	PDFExtension     = ".pdf"

	CannotAnswer    = "I can't answer this question with the information in my knowledge base."
	NeedsUpload     = "Upload PDFs in the sidebar to enable questions."
	UploadComplete  = "Upload and indexing complete!"
	MemoryCleared   = "Memory cleared!"
	NothingSelected = "No PDF selected."
)

var (
	// PromptTemplate is a Go text/template filled with the retrieved context and the question.
	PromptTemplate = `You are an assistant that answers the Question based on the given Context.
Context = {{.context}}
Question = {{.question}}

If the answer is not in the PDF, reply:
"` + CannotAnswer + `"
`
)
