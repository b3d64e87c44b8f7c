package services

// systemPrompt instructs the model to answer only from the retrieved
// passages so every answer stays traceable to its sources.
const systemPrompt = `You are an assistant that answers questions based on the provided documents.
Follow these rules:
1. Use only the information in the reference documents below.
2. If the documents do not contain the answer, say "The provided documents do not contain that information."
3. Quote specific passages where possible.
4. Keep the answer concise.`

// noDocumentsAnswer is returned when the store holds no chunks at all.
// The model is never called in that case.
const noDocumentsAnswer = "No documents have been uploaded yet. Please upload a document first."
