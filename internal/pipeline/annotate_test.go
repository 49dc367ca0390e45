package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/resale-cli/internal/model"
)

func testMaster() model.MasterDataset {
	return model.MasterDataset{
		Products: []model.MasterRecord{
			{ID: 1, ItemName: model.Ptr("Phone")},
			{ID: 2, ItemName: model.Ptr("Laptop")},
			{ID: 3, ItemName: model.Ptr("Headphones")},
		},
		DriverHistory: model.DriverLog(`{"usb":[]}`),
	}
}

func TestAnnotate_FailuresResolveToUncertain(t *testing.T) {
	d := &mockDecider{}
	d.On("Decide", mock.Anything, 1).Return(&Decision{ID: 1, Status: model.StatusInUse}, nil)
	d.On("Decide", mock.Anything, 2).Return(nil, errors.New("timeout"))
	d.On("Decide", mock.Anything, 3).Return(nil, nil)

	in := testMaster()
	out, counts := Annotate(context.Background(), in, d, nil)

	require.Len(t, out.Products, 3)
	assert.Equal(t, model.StatusInUse, out.Products[0].Status)
	assert.Equal(t, model.StatusUncertain, out.Products[1].Status)
	assert.Equal(t, model.StatusUncertain, out.Products[2].Status)
	assert.Equal(t, 2, counts["decider_errors"])
	assert.Equal(t, 2, counts["status_uncertain"])
	assert.JSONEq(t, `{"usb":[]}`, string(out.DriverHistory))
	d.AssertNumberOfCalls(t, "Decide", 3)

	// Input is left untouched.
	assert.Empty(t, in.Products[0].Status)
}

func TestAnnotate_InvalidDecisionResolvesToUncertain(t *testing.T) {
	tests := []struct {
		name string
		dec  *Decision
	}{
		{"unknown status", &Decision{ID: 1, Status: "dont_sell"}},
		{"empty status", &Decision{ID: 1, Status: ""}},
		{"mismatched id", &Decision{ID: 7, Status: model.StatusInUse}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDecider{}
			d.On("Decide", mock.Anything, 1).Return(tt.dec, nil)
			d.On("Decide", mock.Anything, mock.Anything).Return(nil, errors.New("skip"))

			out, counts := Annotate(context.Background(), testMaster(), d, nil)

			assert.Equal(t, model.StatusUncertain, out.Products[0].Status)
			assert.Equal(t, 3, counts["decider_errors"])
			assert.Equal(t, 3, counts["status_uncertain"])
			assert.Zero(t, counts["status_dont_sell"])
			assert.Zero(t, counts["status_"])
		})
	}
}

func TestAnnotate_CopiesReasoningByID(t *testing.T) {
	d := &mockDecider{}
	for id := 1; id <= 3; id++ {
		d.On("Decide", mock.Anything, id).Return(&Decision{ID: id, Status: model.StatusResellCandidate}, nil)
	}

	reasoning := []model.ResaleEntry{
		{ID: "2", Reasoning: model.Ptr("Strong secondary market")},
		{ID: "3"},
		{ID: "42", Reasoning: model.Ptr("orphan")},
	}
	out, counts := Annotate(context.Background(), testMaster(), d, reasoning)

	assert.Nil(t, out.Products[0].Reasoning)
	require.NotNil(t, out.Products[1].Reasoning)
	assert.Equal(t, "Strong secondary market", *out.Products[1].Reasoning)
	assert.Nil(t, out.Products[2].Reasoning)
	assert.Equal(t, 1, counts["reasoning"])
	for _, rec := range out.Products {
		assert.Equal(t, model.StatusResellCandidate, rec.Status)
	}
}

func TestAnnotate_CancelledContext(t *testing.T) {
	d := &mockDecider{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, _ := Annotate(ctx, testMaster(), d, nil)

	for _, rec := range out.Products {
		assert.Equal(t, model.StatusUncertain, rec.Status)
	}
	d.AssertNotCalled(t, "Decide", mock.Anything, mock.Anything)
}

func TestLLMDecider_Decide(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`Decision: {"id": 2, "status": "resell_candidate"}`), nil)

	d := NewLLMDecider(client, testAnthropicCfg)
	dec, err := d.Decide(context.Background(), model.MasterRecord{ID: 2}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, dec.ID)
	assert.Equal(t, model.StatusResellCandidate, dec.Status)
}

func TestLLMDecider_RejectsBadReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", ""},
		{"prose", "I think it is in use"},
		{"unknown status", `{"id": 2, "status": "broken"}`},
		{"missing id", `{"status": "in_use"}`},
		{"other id", `{"id": 5, "status": "in_use"}`},
		{"fractional id", `{"id": 2.5, "status": "in_use"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockAnthropicClient{}
			client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(tt.reply), nil)

			d := NewLLMDecider(client, testAnthropicCfg)
			_, err := d.Decide(context.Background(), model.MasterRecord{ID: 2}, model.DriverLog(`{}`))

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}
}

func TestLLMDecider_ClientError(t *testing.T) {
	client := &mockAnthropicClient{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("unavailable"))

	d := NewLLMDecider(client, testAnthropicCfg)
	_, err := d.Decide(context.Background(), model.MasterRecord{ID: 1}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}
