package feedback

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefermion/feedback-capture/internal/config"
	crdb "github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
)

func TestNewClientValidates(t *testing.T) {
	_, err := NewClient(config.New(config.Config{}), nil, &recordingTransport{}, nil)
	require.Error(t, err)

	var verr *config.ValidationError
	require.True(t, crdb.As(err, &verr))
	assert.Equal(t, config.CodeInvalidField, verr.Code)
}

func TestSendFeedbackAgreement(t *testing.T) {
	collector := &fakeCollector{snap: sampleSnapshot()}
	tr := &recordingTransport{}
	c, err := NewClient(testConfig(), func() SnapshotCollector { return collector }, tr, nil)
	require.NoError(t, err)

	data := []model.DataItem{{ID: "note", Value: "slow page"}}

	_, err = c.SendFeedback(context.Background(), data, nil, false, nil)
	require.NoError(t, err)
	assert.Zero(t, collector.calls)
	assert.Equal(t, data, tr.payloads[0].Data)

	_, err = c.SendFeedback(context.Background(), data, nil, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, collector.calls)

	got := tr.payloads[1].Data
	require.Len(t, got, 2)
	assert.Equal(t, model.AgreementFieldID, got[0].ID)
	assert.Equal(t, model.FieldCheckbox, got[0].Type)
	assert.Equal(t, true, got[0].Value)
	assert.Equal(t, "note", got[1].ID)
	assert.NotNil(t, tr.payloads[1].Navigator)
}

func TestSendFeedbackFromModal(t *testing.T) {
	tr := &recordingTransport{}
	c, err := NewClient(testConfig(), nil, tr, nil)
	require.NoError(t, err)

	fields := []model.FormField{{ID: "rating", Type: model.FieldRating, Value: 4}}
	producer := FromFunc(func(context.Context) ([]model.DataItem, error) {
		return []model.DataItem{{ID: "x", Value: 1}}, nil
	})
	_, err = c.SendFeedbackFromModal(context.Background(), fields, nil, producer, nil)
	require.NoError(t, err)

	data := tr.payloads[0].Data
	require.Len(t, data, 2)
	assert.Equal(t, "rating", data[0].ID)
	assert.Equal(t, intPtr(5), data[0].Max)
	assert.Equal(t, "x", data[1].ID, "produced data comes last")
}

func TestSendError(t *testing.T) {
	tr := &recordingTransport{}
	c, err := NewClient(testConfig(), nil, tr, nil)
	require.NoError(t, err)

	_, err = c.SendError(context.Background(), "TypeError: x is undefined")
	require.NoError(t, err)

	require.Len(t, tr.payloads, 1)
	assert.Equal(t, []model.DataItem{{
		ID:    "error",
		Label: "error",
		Type:  model.FieldTextarea,
		Value: "TypeError: x is undefined",
	}}, tr.payloads[0].Data)
	assert.False(t, tr.payloads[0].HasEnvironment())
}
