package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Ayash-Bera/travelbot/internal/llm"
	"github.com/Ayash-Bera/travelbot/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func passages(texts ...string) []policy.Passage {
	out := make([]policy.Passage, len(texts))
	for i, text := range texts {
		out[i] = policy.Passage{Source: "visa_rules.md", Index: i, Text: text}
	}
	return out
}

func TestBuildPolicyPrompt(t *testing.T) {
	prompt := BuildPolicyPrompt("Do I need a visa for Japan?", passages("first chunk", "second chunk"))

	assert.True(t, strings.HasPrefix(prompt, "Use the following pieces of context"))
	assert.Contains(t, prompt, "first chunk\n\nsecond chunk")
	assert.Less(t, strings.Index(prompt, "first chunk"), strings.Index(prompt, "second chunk"))
	assert.True(t, strings.HasSuffix(prompt, "Question: Do I need a visa for Japan?\nHelpful Answer:"))
}

func TestPolicyQA_Answer(t *testing.T) {
	retriever := &mockRetriever{}
	retriever.On("Retrieve", mock.Anything, "UAE visa?", 4).
		Return(passages("UAE: visa on arrival for many passports."), nil).Once()

	model := &mockChatModel{}
	model.On("Complete", mock.Anything, "", mock.MatchedBy(func(messages []llm.Message) bool {
		return len(messages) == 1 && strings.Contains(messages[0].Content, "UAE: visa on arrival")
	})).Return("  Most travellers get a visa on arrival.\n", nil).Once()

	qa := NewPolicyQA(retriever, model, 0, nil, quietLogger())
	answer, err := qa.Answer(context.Background(), "UAE visa?")
	require.NoError(t, err)

	assert.Equal(t, "Most travellers get a visa on arrival.", answer)
	retriever.AssertExpectations(t)
	model.AssertExpectations(t)
}

func TestPolicyQA_RetrievalFailure(t *testing.T) {
	retriever := &mockRetriever{}
	retriever.On("Retrieve", mock.Anything, mock.Anything, 2).Return(nil, errors.New("embedding down"))

	model := &mockChatModel{}
	qa := NewPolicyQA(retriever, model, 2, nil, quietLogger())

	_, err := qa.Answer(context.Background(), "refunds?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding down")
	model.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestPolicyQA_ModelFailure(t *testing.T) {
	retriever := &mockRetriever{}
	retriever.On("Retrieve", mock.Anything, mock.Anything, 4).Return(passages("refunds within 24h"), nil)

	model := &mockChatModel{}
	model.On("Complete", mock.Anything, "", mock.Anything).Return("", errors.New("rate limited"))

	qa := NewPolicyQA(retriever, model, 4, nil, quietLogger())
	_, err := qa.Answer(context.Background(), "refunds?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestPolicyQA_UsesCache(t *testing.T) {
	retriever := &mockRetriever{}
	retriever.On("Retrieve", mock.Anything, mock.Anything, 4).Return(passages("refunds within 24h"), nil).Once()

	model := &mockChatModel{}
	model.On("Complete", mock.Anything, "", mock.Anything).Return("Within 24 hours.", nil).Once()

	cache := newMemoryCache()
	qa := NewPolicyQA(retriever, model, 4, cache, quietLogger())

	first, err := qa.Answer(context.Background(), "Refund policy?")
	require.NoError(t, err)
	second, err := qa.Answer(context.Background(), "refund   policy?")
	require.NoError(t, err)

	assert.Equal(t, "Within 24 hours.", first)
	assert.Equal(t, first, second)
	retriever.AssertExpectations(t)
	model.AssertExpectations(t)
}
