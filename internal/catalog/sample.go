package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"insight-workers/internal/configuration"
	"insight-workers/internal/models"
	"insight-workers/internal/storage"
	"insight-workers/pkg/registry"
)

type sampleListing struct {
	id, name, description, creator string
	templateID                     string
	price                          int64
	uses                           int64
	rating                         float64
}

var sampleListings = []sampleListing{
	{"sample-whale-detector-pro", "Whale Detector Pro",
		"Identify high-value players from spending patterns.",
		"0x1234...5678", "game_abuse_detection", 50, 234, 4.8},
	{"sample-fraud-alert-system", "Fraud Alert System",
		"Detect suspicious payment patterns and potential chargebacks before they happen.",
		"0x2234...6789", "game_abuse_detection", 100, 156, 4.9},
	{"sample-churn-prediction", "Churn Prediction",
		"Flag players whose behaviour deviates from normal play.",
		"0x3334...7890", "game_anti_cheat", 75, 89, 4.6},
	{"sample-defi-risk-scorer", "DeFi Risk Scorer",
		"Analyze lending protocol risk using on-chain data and market conditions.",
		"0x4434...8901", "defi_risk_analyzer", 150, 67, 4.7},
	{"sample-token-holder-analysis", "Token Holder Analysis",
		"Segment token holders by behavior: HODLers, traders, whales, and bots.",
		"0x5534...9012", "token_holder_segmentation", 80, 123, 4.5},
	{"sample-social-sentiment-analyzer", "Social Sentiment Analyzer",
		"Analyze social media sentiment for projects, tokens, or trends.",
		"0x6634...0123", "social_sentiment_tracker", 60, 201, 4.4},
}

// SampleFeed builds the demo marketplace listing. Each entry's configuration
// is the template defaults, stored so that its config_ref resolves.
func SampleFeed(ctx context.Context, reg *registry.Registry, store storage.Store, share decimal.Decimal) (*StaticFeed, error) {
	validator := configuration.NewValidator(reg)
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rulesets := make([]models.Ruleset, 0, len(sampleListings))
	for _, s := range sampleListings {
		tmpl, err := reg.Get(s.templateID)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.id, err)
		}
		price := decimal.NewFromInt(s.price)
		cfg, err := validator.Build(configuration.Draft{
			TemplateID:        s.templateID,
			Values:            tmpl.Defaults(),
			Name:              s.name,
			Description:       s.description,
			PricePerExecution: price,
			Creator:           s.creator,
		})
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.id, err)
		}
		data, err := configuration.Encode(cfg)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.id, err)
		}
		ref, err := store.Put(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.id, err)
		}
		rulesets = append(rulesets, models.Ruleset{
			ID:                s.id,
			DisplayName:       s.name,
			Description:       s.description,
			Category:          tmpl.Category,
			TemplateID:        s.templateID,
			ConfigRef:         ref,
			PricePerExecution: price,
			CreatorShare:      share,
			Creator:           s.creator,
			TotalUses:         s.uses,
			Rating:            s.rating,
			CreatedAt:         created,
		})
	}
	return NewStaticFeed(rulesets...), nil
}
