package search

import (
	"fmt"
	"strings"

	"github.com/m1227sasaki/company-enrichment/internal/model"
	"github.com/m1227sasaki/company-enrichment/internal/namekit"
)

// Instruction builders for each external lookup. Every instruction ends
// with the same answer contract so IsNotFound works uniformly.

const answerContract = `Reply with only the URL, or NOTFOUND if you cannot determine it.`

// OfficialSiteInstruction asks narrowly for the official website.
func OfficialSiteInstruction(q model.CompanyQuery) string {
	return fmt.Sprintf("Find the official website of the company %q. %s", q.Name, answerContract)
}

// CompanyInstruction is a broader second pass for companies the narrow
// lookup missed.
func CompanyInstruction(q model.CompanyQuery) string {
	return fmt.Sprintf(
		"What is the website of the business called %q? Consider subsidiaries, former names, and parent companies. %s",
		q.Name, answerContract,
	)
}

// LinkedInProfileInstruction asks for the website field on the company's
// LinkedIn page. The profile URL itself is never an acceptable answer.
func LinkedInProfileInstruction(q model.CompanyQuery) string {
	return fmt.Sprintf(
		"Find the LinkedIn company page for %q and extract the website field listed on the profile. "+
			"Do not answer with the linkedin.com URL itself. %s",
		q.Name, answerContract,
	)
}

// DirectoryInstruction checks business directories for a listed website.
func DirectoryInstruction(q model.CompanyQuery) string {
	return fmt.Sprintf(
		"Look up the company %q in business directories such as Crunchbase, Bloomberg, or Dun & Bradstreet "+
			"and extract the website they list for it. Do not answer with the directory page URL. %s",
		q.Name, answerContract,
	)
}

// LastResortInstruction is the widest net, allowing imperfect matches and
// feeding in whatever hints the input row carried.
func LastResortInstruction(q model.CompanyQuery) string {
	var hints []string
	if country := namekit.CountryHint(q.Name); country != "" {
		hints = append(hints, fmt.Sprintf("the legal suffix suggests it is based in %s", country))
	}
	if q.EmployeeCountHint != "" {
		hints = append(hints, fmt.Sprintf("it has roughly %s employees", q.EmployeeCountHint))
	}

	var hintText string
	if len(hints) > 0 {
		hintText = " Hints: " + strings.Join(hints, "; ") + "."
	}

	return fmt.Sprintf(
		"Find any website for the company %q, including close or partial name matches.%s %s",
		q.Name, hintText, answerContract,
	)
}

// JudgmentInstruction presents already-found candidates for arbitration.
// The answer must repeat one of the listed URLs verbatim.
func JudgmentInstruction(q model.CompanyQuery, urls []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Which of these URLs is the official website of the company %q?\n", q.Name)
	for _, u := range urls {
		fmt.Fprintf(&sb, "- %s\n", u)
	}
	sb.WriteString("Reply with exactly one URL from the list, or NOTFOUND if none fit.")
	return sb.String()
}
