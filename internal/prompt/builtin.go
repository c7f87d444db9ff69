package prompt

import "github.com/wealthlens/ragpipe/internal/domain"

// Builtin returns the required template set from spec.md §6: one default
// per intent, plus the named families the grader/generator reference
// explicitly (esg formula responses, Monte Carlo tone, a linear fallback
// template).
func Builtin() []Template {
	return []Template{
		{
			Name: "archetype_default", DefaultForIntent: domain.IntentArchetype,
			Body: "Answer the question about the investor archetype using only the context below. " +
				"Cite sources inline as [n]. At most 80 words, no preamble, no closing summary.\n\n" +
				"Context:\n{context}\n\nQuestion: {query}",
		},
		{
			Name: "portfolio_default", DefaultForIntent: domain.IntentPortfolio,
			Body: "Answer the portfolio question using only the context below. " +
				"Cite sources inline as [n]. At most 80 words, no preamble, no closing summary.\n\n" +
				"Context:\n{context}\n\nQuestion: {query}",
		},
		{
			Name: "risk_metrics_interpreter_cited", DefaultForIntent: domain.IntentRisk,
			Body: "Interpret the risk metric referenced in the question using only the context below. " +
				"Cite sources inline as [n]. At most 80 words, no preamble, no closing summary.\n\n" +
				"Context:\n{context}\n\nQuestion: {query}",
		},
		{
			Name: "monte_carlo_interpreter_cited", DefaultForIntent: domain.IntentMonteCarlo,
			Body: "Interpret the Monte Carlo simulation result using only the context below. " +
				"Lead with the median (50th percentile) outcome, then the success probability, " +
				"then the full range. Never open with the pessimistic percentile. " +
				"Cite sources inline as [n]. At most 80 words, no preamble, no closing summary.\n\n" +
				"Context:\n{context}\n\nQuestion: {query}",
		},
		{
			Name: "esg_analysis_cited", DefaultForIntent: domain.IntentESG,
			Body: "Answer the ESG question using only the context below. If this is a formula, " +
				"methodology, calculation, or derivation question, structure the answer as: " +
				"COMPONENTS (definitions), FORMULA (fenced code block), EXAMPLE (worked calculation), " +
				"INTERPRETATION (brief). Otherwise answer directly. Cite sources inline as [n]. " +
				"At most 80 words for non-formula answers, no preamble, no closing summary.\n\n" +
				"Context:\n{context}\n\nQuestion: {query}",
		},
		{
			Name: "general_default", DefaultForIntent: domain.IntentGeneral,
			Body: "Answer the question using only the context below. Cite sources inline as [n]. " +
				"At most 80 words, no preamble, no closing summary.\n\n" +
				"Context:\n{context}\n\nQuestion: {query}",
		},
		{
			Name: "fallback_default",
			Body: "Answer briefly using only the context below, citing sources inline as [n]. " +
				"At most 80 words.\n\nContext:\n{context}\n\nQuestion: {query}",
		},
	}
}
