package openai

import (
	"encoding/json"
	"fmt"

	"github.com/reportaway/reportaway/internal/core/domain"
)

const extractionSystemPrompt = `You are a meticulous legal document analyst.
Output a single JSON object only. No markdown, no commentary.`

const extractionInstruction = `Extract every factual field you can read from the attached traffic citation documents.
Return a flat JSON object mapping field names to string values.
Use camelCase keys such as citationDate, citationNumber, violationCode, violationDescription, location, officerName, vehicleInfo, fineAmount, courtDate.
Include only fields actually present in the documents.`

const strategySystemPrompt = `You are an expert traffic defense attorney advising a client who wants to contest a citation.
Format the entire answer in Markdown.`

func buildStrategyPrompt(facts map[string]string) string {
	serialized, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		serialized = []byte("{}")
	}

	return fmt.Sprintf(`These facts were extracted from the client's citation documents:

%s

Write a defense strategy for this citation. It must cover:
1. Discovery requests worth filing and what each one can surface.
2. Defenses specific to the cited violation.
3. A realistic assessment of the probability of success.`, serialized)
}

func buildChatSystemPrompt(c *domain.Case) string {
	serialized, err := json.MarshalIndent(c.StructuredData, "", "  ")
	if err != nil {
		serialized = []byte("{}")
	}
	analysis := c.Analysis
	if analysis == "" {
		analysis = "Analysis not yet complete."
	}

	return fmt.Sprintf(`You are ReportAway's expert traffic law assistant.
You have access to the specific details of the user's traffic case.
Answer clearly, referencing the facts and strategy below.
Do not make up laws; stick to the provided context and general traffic law principles.

CASE CONTEXT:
Case Title: %s
Status: %s

Extracted Ticket Facts:
%s

Legal Analysis & Strategy:
%s`, c.Title, c.Status, serialized, analysis)
}
