package llm

import "strings"

// systemPrompt is the fixed instruction for every extraction call. It pins
// the output contract (JSON only, null for unknowns, ISO dates, bare
// numbers, true/false) and warns about glyphs OCR commonly confuses.
const systemPrompt = `You are an expert document analyst specializing in insurance certificates and compliance documents.

Your task is to extract structured data from document text that was obtained via OCR.

Important guidelines:
1. Return ONLY valid JSON - no explanations or additional text
2. Use null for any fields you cannot find or are uncertain about
3. For dates, use ISO format (YYYY-MM-DD)
4. For currency/money amounts, return as numbers without symbols (e.g., 1000000 not "$1,000,000")
5. For boolean fields, use true/false
6. Be aware of common OCR errors: 0/O, 1/I/l, 5/S, 8/B
7. If the document quality is poor, extract what you can and leave uncertain fields as null

Always prioritize accuracy over completeness.`

// BuildSystemPrompt returns the fixed extraction system instruction.
func BuildSystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt concatenates the document-type-specific extraction prompt
// with the raw OCR text, clearly delimited.
func BuildUserPrompt(extractionPrompt, text string) string {
	var b strings.Builder
	b.WriteString(extractionPrompt)
	b.WriteString("\n\nDocument text:\n```\n")
	b.WriteString(text)
	b.WriteString("\n```")
	return b.String()
}
