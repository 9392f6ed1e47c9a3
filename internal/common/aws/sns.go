// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
)

// Notifier announces pipeline events to downstream subscribers.
type Notifier interface {
	Notify(ctx context.Context, event models.Event) error
}

// SNSPublisher is the slice of the SNS API the notifier uses.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input, optFns...)
}

// SNSNotifier publishes events as JSON messages to one topic. The event type
// travels as the "eventType" message attribute so subscribers can filter.
type SNSNotifier struct {
	publisher SNSPublisher
	topicARN  string
}

func NewSNSNotifier(publisher SNSPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{publisher: publisher, topicARN: topicARN}
}

func (n *SNSNotifier) Notify(ctx context.Context, event models.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("encode event: %w", err))
	}

	_, err = n.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(n.topicARN),
		Message:  awssdk.String(string(body)),
		Subject:  awssdk.String(string(event.Type)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(string(event.Type)),
			},
		},
	})
	if err != nil {
		return apperrors.NewUnavailableError("sns", err)
	}
	return nil
}

// NoopNotifier drops every event.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, models.Event) error { return nil }
