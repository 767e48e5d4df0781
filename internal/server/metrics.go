package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mohammad-safakhou/ragchat/models"
)

var (
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ragchat_chat_requests_total",
		Help: "Chat requests by outcome (ok, rejected, error).",
	}, []string{"outcome"})

	guardrailRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ragchat_guardrail_rejections_total",
		Help: "Guardrail rejections by failed check.",
	}, []string{"check"})

	retrievalResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ragchat_retrieval_results_total",
		Help: "Retrieval results returned, by strategy.",
	}, []string{"strategy"})

	documentUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ragchat_document_uploads_total",
		Help: "Document uploads by outcome.",
	}, []string{"outcome"})
)

func recordRejections(report models.ValidationReport) {
	if report.ToxicityScore > 0.6 {
		guardrailRejections.WithLabelValues("toxicity").Inc()
	}
	if report.IsNSFW {
		guardrailRejections.WithLabelValues("nsfw").Inc()
	}
	if !report.IsRelevant {
		guardrailRejections.WithLabelValues("relevance").Inc()
	}
}
