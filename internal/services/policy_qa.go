package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Ayash-Bera/travelbot/internal/cache"
	"github.com/Ayash-Bera/travelbot/internal/llm"
	"github.com/Ayash-Bera/travelbot/internal/policy"
	"github.com/Ayash-Bera/travelbot/pkg/utils"
	"github.com/sirupsen/logrus"
)

const DefaultTopK = 4

const policyPrompt = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know; do not make one up.

%s

Question: %s
Helpful Answer:`

// PolicyQA answers visa and refund questions from retrieved policy passages.
type PolicyQA struct {
	retriever policy.Retriever
	model     llm.ChatModel
	topK      int
	cache     ResultCache
	logger    *logrus.Logger
}

func NewPolicyQA(retriever policy.Retriever, model llm.ChatModel, topK int, cache ResultCache, logger *logrus.Logger) *PolicyQA {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &PolicyQA{
		retriever: retriever,
		model:     model,
		topK:      topK,
		cache:     cache,
		logger:    logger,
	}
}

// Answer returns the model's answer text for question.
func (q *PolicyQA) Answer(ctx context.Context, question string) (string, error) {
	cacheKey := fmt.Sprintf(cache.PolicyAnswerKey, utils.NormalizedKey(question))

	if q.cache != nil {
		var cached string
		found, err := q.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			q.logger.WithError(err).Warn("Failed to read cached policy answer")
		} else if found {
			q.logger.WithField("question", question).Debug("Policy answer served from cache")
			return cached, nil
		}
	}

	passages, err := q.retriever.Retrieve(ctx, question, q.topK)
	if err != nil {
		return "", fmt.Errorf("policy retrieval failed: %w", err)
	}

	answer, err := q.model.Complete(ctx, "", llm.UserMessage(BuildPolicyPrompt(question, passages)))
	if err != nil {
		return "", fmt.Errorf("policy answer failed: %w", err)
	}
	answer = strings.TrimSpace(answer)

	q.logger.WithFields(logrus.Fields{
		"question": question,
		"passages": len(passages),
	}).Info("Policy question answered")

	if q.cache != nil {
		if err := q.cache.Set(ctx, cacheKey, answer); err != nil {
			q.logger.WithError(err).Warn("Failed to cache policy answer")
		}
	}

	return answer, nil
}

// BuildPolicyPrompt stuffs the passages, in retrieval order, into one prompt.
func BuildPolicyPrompt(question string, passages []policy.Passage) string {
	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}
	return fmt.Sprintf(policyPrompt, strings.Join(texts, "\n\n"), question)
}
