package guardrail

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mohammad-safakhou/ragchat/models"
)

const (
	toxicityThreshold = 0.6
	nsfwMLThreshold   = 0.7
	toxicityMaxChars  = 512
	nsfwMaxChars      = 256
)

// ToxicityClassifier scores text toxicity in [0, 1]. Satisfied by
// provider.Provider via its moderation endpoint.
type ToxicityClassifier interface {
	ModerateText(ctx context.Context, text string) (float64, error)
}

var nsfwKeywords = []string{
	"porn", "nude", "sexual", "explicit", "adult content",
	"nsfw", "not safe for work", "erotic", "xxx", "pornography",
	"naked", "sex", "adult", "mature content",
	"inappropriate", "lewd", "vulgar", "obscene",
}

// documentCategories maps topic labels to the keywords that signal them
// in either documents or questions.
var documentCategories = map[string][]string{
	"medical": {
		"medical", "health", "patient", "diagnosis", "treatment",
		"prescription", "symptoms", "doctor", "hospital", "clinical",
		"medicine", "healthcare", "report", "test results",
	},
	"legal": {
		"legal", "law", "contract", "agreement", "lawsuit", "court",
		"attorney", "legal document", "clause", "jurisdiction",
	},
	"financial": {
		"financial", "bank", "loan", "investment", "tax", "revenue",
		"profit", "loss", "balance sheet", "income statement",
	},
	"technical": {
		"technical", "code", "programming", "software", "hardware",
		"system", "network", "database", "algorithm",
	},
}

// Service runs the safety and relevance checks gating every chat turn.
// Classifier failures never block a request: a broken moderation
// backend must not take the chat down with it.
type Service struct {
	classifier ToxicityClassifier
	logger     *log.Logger
}

func New(classifier ToxicityClassifier) *Service {
	return &Service{
		classifier: classifier,
		logger:     log.New(log.Writer(), "[GUARDRAIL] ", log.LstdFlags),
	}
}

// Validate runs toxicity, NSFW and relevance checks over a message and
// returns the combined verdict. All checks run even when an early one
// fails, so the rejection reason names every violated rule.
func (s *Service) Validate(ctx context.Context, message string, images []string, docContext []string) models.ValidationReport {
	toxScore, toxSafe := s.checkToxicity(ctx, message)
	keywords, mlScore := s.checkNSFW(ctx, message)
	isNSFW := len(keywords) > 0 || mlScore > nsfwMLThreshold

	docTopics := extractTopics(strings.Join(docContext, " "))
	questionTopics := extractTopics(message)
	isRelevant := topicsRelevant(questionTopics, docTopics, len(docContext) == 0)

	safe := toxSafe && !isNSFW && isRelevant

	var reason string
	if !safe {
		var reasons []string
		if !toxSafe {
			reasons = append(reasons, fmt.Sprintf("Toxic content detected (score: %.3f)", toxScore))
		}
		if isNSFW {
			reasons = append(reasons, fmt.Sprintf("NSFW content detected (keywords: %s)", strings.Join(keywords, ", ")))
		}
		if !isRelevant {
			reasons = append(reasons, fmt.Sprintf("Question not relevant to documents (topics: %s)", strings.Join(docTopics, ", ")))
		}
		reason = strings.Join(reasons, "; ")
	}

	s.logger.Printf("validation result - safe: %t, reason: %q", safe, reason)

	return models.ValidationReport{
		Safe:            safe,
		ToxicityScore:   toxScore,
		IsNSFW:          isNSFW,
		NSFWKeywords:    keywords,
		IsRelevant:      isRelevant,
		DocumentTopics:  docTopics,
		QuestionTopics:  questionTopics,
		RejectionReason: reason,
	}
}

// checkToxicity scores the message and reports whether it passes. A
// missing or failing classifier passes the message through.
func (s *Service) checkToxicity(ctx context.Context, message string) (float64, bool) {
	if s.classifier == nil {
		return 0, true
	}
	message = truncateRunes(message, toxicityMaxChars)
	score, err := s.classifier.ModerateText(ctx, message)
	if err != nil {
		s.logger.Printf("toxicity check failed: %v (allowing)", err)
		return 0, true
	}
	return score, score <= toxicityThreshold
}

// checkNSFW scans for keyword hits; the classifier only runs as a
// second opinion after a keyword already matched.
func (s *Service) checkNSFW(ctx context.Context, message string) ([]string, float64) {
	lower := strings.ToLower(message)
	var detected []string
	for _, kw := range nsfwKeywords {
		if strings.Contains(lower, kw) {
			detected = append(detected, kw)
		}
	}

	var mlScore float64
	if s.classifier != nil && len(detected) > 0 {
		score, err := s.classifier.ModerateText(ctx, truncateRunes(message, nsfwMaxChars))
		if err != nil {
			s.logger.Printf("NSFW classifier failed: %v", err)
		} else {
			mlScore = score
		}
	}
	return detected, mlScore
}

// truncateRunes cuts at a character boundary so the classifier never
// receives a split rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// extractTopics maps text onto the category taxonomy. Each category
// appears at most once regardless of how many of its keywords hit.
func extractTopics(text string) []string {
	lower := strings.ToLower(text)
	var topics []string
	for category, keywords := range documentCategories {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				topics = append(topics, category)
				break
			}
		}
	}
	sort.Strings(topics)
	return topics
}

// topicsRelevant rejects only when both sides carry topics and none
// overlap. Untyped documents or questions always pass.
func topicsRelevant(questionTopics, docTopics []string, noDocs bool) bool {
	if noDocs || len(docTopics) == 0 || len(questionTopics) == 0 {
		return true
	}
	docSet := make(map[string]bool, len(docTopics))
	for _, t := range docTopics {
		docSet[t] = true
	}
	for _, t := range questionTopics {
		if docSet[t] {
			return true
		}
	}
	return false
}
