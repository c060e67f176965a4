package utils

import (
	"strings"

	"review-publish-api/models"
)

// Program workflow actions accepted by the status endpoint.
const (
	ProgramActionSubmit         = "submit"
	ProgramActionRequestChanges = "request_changes"
	ProgramActionPublish        = "publish"
	ProgramActionUnpublish      = "unpublish"
)

var (
	programActionSynonyms = map[string][]string{
		ProgramActionSubmit: {
			"submit",
			"resubmit",
			"submit_for_review",
		},
		ProgramActionRequestChanges: {
			"request_changes",
			"changes_requested",
			"reject",
		},
		ProgramActionPublish: {
			"publish",
			"approve",
		},
		ProgramActionUnpublish: {
			"unpublish",
			"withdraw",
		},
	}
	programActionAliases = buildProgramActionAliases()
)

func buildProgramActionAliases() map[string]string {
	aliasMap := make(map[string]string)
	for canonical, synonyms := range programActionSynonyms {
		aliasMap[normalizeStatusCode(canonical)] = canonical
		for _, alias := range synonyms {
			if normalized := normalizeStatusCode(alias); normalized != "" {
				aliasMap[normalized] = canonical
			}
		}
	}
	return aliasMap
}

func normalizeStatusCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	return strings.ReplaceAll(code, "-", "_")
}

// NormalizeReviewStatus accepts draft or submitted, ignoring case and surrounding spaces. An
// empty value is draft; anything else is rejected.
func NormalizeReviewStatus(raw string) (models.ReviewStatus, bool) {
	switch status := models.ReviewStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case "":
		return models.ReviewStatusDraft, true
	case models.ReviewStatusDraft, models.ReviewStatusSubmitted:
		return status, true
	}
	return "", false
}

// NormalizeProgramAction maps a client supplied action to its canonical name.
func NormalizeProgramAction(raw string) (string, bool) {
	action, ok := programActionAliases[normalizeStatusCode(raw)]
	return action, ok
}
