package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resale-cli/internal/config"
	"github.com/sells-group/resale-cli/internal/model"
)

var (
	testAnthropicCfg = config.AnthropicConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024}
	testPipelineCfg  = config.PipelineConfig{ValuationConcurrency: 3, ValuationRPS: 1000}
)

func TestValuer_Value(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, forProduct("Phone")).Return(textResponse(
		`{"id": "a1b2c3", "itemname": "Phone", "price_range": "4000 to 5000 INR", "confidence": "High", "reasoning": "Older model"}`), nil)
	client.On("CreateMessage", mock.Anything, forProduct("Laptop")).Return(textResponse(
		"```json\n{\"price_range\": \"20000 to 24000 INR\", \"confidence\": \"medium\", \"reasoning\": \"Steady demand\"}\n```"), nil)
	client.On("CreateMessage", mock.Anything, forProduct("Charger")).Return(textResponse("no idea"), nil)
	client.On("CreateMessage", mock.Anything, forProduct("Speaker")).Return(nil, errors.New("overloaded"))

	v := NewValuer(client, testAnthropicCfg, testPipelineCfg)
	entries, err := v.Value(context.Background(), []model.Product{
		product(1, "Phone", 10000),
		product(2, "Laptop", 55000),
		product(3, "Charger", 999),
		product(4, "Speaker", 2999),
	})

	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "1", entries[0].ID.String())
	assert.Equal(t, "4000 to 5000 INR", *entries[0].PriceRange)
	assert.Equal(t, "high", entries[0].Confidence.String())
	assert.Equal(t, "Older model", *entries[0].Reasoning)

	assert.Equal(t, "2", entries[1].ID.String())
	assert.Equal(t, "Laptop", *entries[1].ItemName)
	client.AssertNumberOfCalls(t, "CreateMessage", 4)
}

func TestValuer_RejectsUnknownConfidence(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"price_range": "1 to 2 INR", "confidence": "certain"}`), nil)

	v := NewValuer(client, testAnthropicCfg, testPipelineCfg)
	entries, err := v.Value(context.Background(), []model.Product{product(1, "Phone", 10000)})

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestValuer_CancelledContext(t *testing.T) {
	client := &mockAnthropicClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := NewValuer(client, testAnthropicCfg, config.PipelineConfig{ValuationConcurrency: 1, ValuationRPS: 0.001})
	_, err := v.Value(ctx, []model.Product{product(1, "Phone", 10000)})

	require.Error(t, err)
	client.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestValuer_Empty(t *testing.T) {
	v := NewValuer(&mockAnthropicClient{}, testAnthropicCfg, testPipelineCfg)

	entries, err := v.Value(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}
