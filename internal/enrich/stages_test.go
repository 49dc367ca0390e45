package enrich

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resale-cli/internal/model"
	"github.com/sells-group/resale-cli/internal/pipeline"
	"github.com/sells-group/resale-cli/pkg/groq"
)

func testEnv(t *testing.T) Env {
	t.Helper()
	dir := t.TempDir()
	return Env{
		Vault: newTestVault(t),
		Paths: Paths{
			Products: filepath.Join(dir, "products.json"),
			Resale:   filepath.Join(dir, "resale_cost.json"),
			Contexts: filepath.Join(dir, "product_context.json"),
			Events:   filepath.Join(dir, "calendar_events.json"),
			Calendar: filepath.Join(dir, "calendar.json"),
		},
	}
}

func TestStages_RunThroughPipeline(t *testing.T) {
	env := testEnv(t)
	require.NoError(t, env.Vault.Save([]model.Product{product(1, "Echo Dot", 3499)}, env.Paths.Products))
	require.NoError(t, env.Vault.Save([]model.CalendarEvent{
		{Summary: "Set up alexa routines", Start: "2024-06-01"},
	}, env.Paths.Events))

	ac := &mockAnthropicClient{}
	ac.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"price_range": "1500 to 1800 INR", "confidence": "medium", "reasoning": "Common device"}`), nil)
	gc := &mockGroqClient{}
	gc.On("ChatCompletion", mock.Anything, mock.Anything).Return(&groq.ChatCompletionResponse{
		Content: `{"canonical_name": "Amazon Echo Dot", "aliases": ["echo"], "context_keywords": ["alexa"]}`,
	}, nil)
	env.Valuer = NewValuer(ac, testAnthropicCfg, testPipelineCfg)
	env.Contextualizer = NewContextualizer(gc)

	res, err := pipeline.New(nil).Run(context.Background(), Stages(env))
	require.NoError(t, err)
	require.Len(t, res.Stages, 3)
	assert.Equal(t, 1, res.Stages[2].Counts["matched"])

	var resale []model.ResaleEntry
	require.NoError(t, env.Vault.Load(env.Paths.Resale, &resale))
	require.Len(t, resale, 1)
	assert.Equal(t, "1", resale[0].ID.String())

	var calendar model.CalendarSet
	require.NoError(t, env.Vault.Load(env.Paths.Calendar, &calendar))
	require.Contains(t, calendar, "1")
	assert.Equal(t, "2024-06-01", *calendar["1"].LastMentioned)
}

func TestCalendarStage_MissingEvents(t *testing.T) {
	env := testEnv(t)
	require.NoError(t, env.Vault.Save([]model.ProductContext{{ID: "1", Aliases: []string{"echo"}}}, env.Paths.Contexts))

	counts, err := CalendarStage(env).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, counts["events"])
	assert.Equal(t, 0, counts["matched"])

	var calendar model.CalendarSet
	require.NoError(t, env.Vault.Load(env.Paths.Calendar, &calendar))
	assert.Nil(t, calendar["1"].LastMentioned)
}

func TestValueStage_MissingProducts(t *testing.T) {
	env := testEnv(t)

	_, err := ValueStage(env).Run(context.Background())

	assert.Error(t, err)
}
