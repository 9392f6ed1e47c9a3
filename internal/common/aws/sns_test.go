package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func createEvent() models.Event {
	return models.Event{
		ID:        "evt-1",
		Type:      models.EventRulesetPublished,
		SubjectID: "r1",
		Payload:   map[string]interface{}{"category": "Gaming"},
		CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestSNSNotifier_Notify(t *testing.T) {
	pub := &mockPublisher{}
	var sent *sns.PublishInput
	pub.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{MessageId: awssdk.String("m-1")}, nil)

	err := NewSNSNotifier(pub, "arn:aws:sns:us-east-1:1:insights").Notify(context.Background(), createEvent())
	require.NoError(t, err)
	require.NotNil(t, sent)

	assert.Equal(t, "arn:aws:sns:us-east-1:1:insights", awssdk.ToString(sent.TopicArn))
	assert.Equal(t, "ruleset.published", awssdk.ToString(sent.MessageAttributes["eventType"].StringValue))

	var decoded models.Event
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(sent.Message)), &decoded))
	assert.Equal(t, "r1", decoded.SubjectID)
	pub.AssertExpectations(t)
}

func TestSNSNotifier_PublishFailureIsUnavailable(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := NewSNSNotifier(pub, "arn").Notify(context.Background(), createEvent())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnavailable))
	assert.True(t, apperrors.IsRetryable(err))
}

func TestNoopNotifier(t *testing.T) {
	var n Notifier = NoopNotifier{}
	assert.NoError(t, n.Notify(context.Background(), createEvent()))
}
