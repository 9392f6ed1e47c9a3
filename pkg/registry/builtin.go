package registry

// Builtin returns the registry of pre-audited templates shipped with the
// marketplace. It panics only if the static catalog itself is malformed.
func Builtin() *Registry {
	r, err := New(builtinTemplates...)
	if err != nil {
		panic(err)
	}
	return r
}

func num(key, label, description string, def float64) Parameter {
	return Parameter{Key: key, Label: label, Type: TypeNumber, Description: description, Default: def}
}

var builtinTemplates = []Template{
	{
		ID:          "game_abuse_detection",
		Name:        "Gaming Abuse Detection",
		Category:    CategoryGaming,
		Description: "Detect multi-accounting, refund fraud, and bot behavior in games",
		Parameters: []Parameter{
			num("multi_account_threshold", "Multi-Account Threshold", "Flag if > N accounts from same IP", 3),
			num("refund_velocity_limit", "Refund Velocity Limit", "Flag if > N refunds in window", 5),
			num("velocity_window_hours", "Velocity Window (hours)", "Time window for velocity checks", 24),
			num("min_playtime_before_refund", "Min Playtime (hours)", "Minimum playtime before refund", 2),
		},
	},
	{
		ID:          "game_anti_cheat",
		Name:        "Game Anti-Cheat",
		Category:    CategoryGaming,
		Description: "Detect speed hacks, aim bots, and impossible scores",
		Parameters: []Parameter{
			num("kd_ratio_max", "Max K/D Ratio", "Flag if K/D ratio exceeds this", 8.0),
			num("score_velocity_limit", "Score Velocity Limit", "Max points per second", 1500),
			num("impossible_movement_threshold", "Movement Threshold", "Confidence for impossible movement (0-1)", 0.92),
			num("headshot_percentage_max", "Max Headshot %", "Flag if headshot % exceeds this", 75),
		},
	},
	{
		ID:          "defi_risk_analyzer",
		Name:        "DeFi Risk Analyzer",
		Category:    CategoryDeFi,
		Description: "Assess lending risk and liquidity pool health",
		Parameters: []Parameter{
			num("collateral_ratio_min", "Min Collateral Ratio (%)", "Minimum safe collateral ratio", 150),
			num("liquidity_threshold", "Liquidity Threshold", "Minimum pool liquidity", 10000),
			num("volatility_max", "Max Volatility (%)", "Alert if volatility exceeds this", 15),
			num("whale_movement_threshold", "Whale Threshold (USD)", "Monitor movements above this value", 1000000),
		},
	},
	{
		ID:          "token_holder_segmentation",
		Name:        "Token Holder Segmentation",
		Category:    CategoryDeFi,
		Description: "Segment holders into HODLers, traders, and potential wash traders",
		Parameters: []Parameter{
			num("holding_period_days", "HODLer Period (days)", "Days to qualify as HODLer", 30),
			num("trade_frequency_threshold", "Trader Frequency", "Trades/month to qualify as trader", 10),
			num("wash_trading_similarity", "Wash Trading Score", "Similarity threshold (0-1)", 0.85),
		},
	},
	{
		ID:          "social_sentiment_tracker",
		Name:        "Social Sentiment Tracker",
		Category:    CategorySocial,
		Description: "Track real-time sentiment and trending topics",
		Parameters: []Parameter{
			num("sentiment_window_hours", "Sentiment Window (hours)", "Time window for sentiment analysis", 24),
			num("min_mentions", "Min Mentions", "Minimum mentions to include", 100),
			num("trending_threshold", "Trending Threshold", "Score to qualify as trending (0-1)", 0.8),
		},
	},
	{
		ID:          "iot_device_health",
		Name:        "IoT Device Health Monitor",
		Category:    CategoryIoT,
		Description: "Predictive maintenance and anomaly detection for IoT devices",
		Parameters: []Parameter{
			num("uptime_threshold", "Min Uptime (%)", "Alert if uptime below this", 95),
			num("anomaly_sensitivity", "Anomaly Sensitivity", "Detection sensitivity (0-1)", 0.85),
			num("maintenance_prediction_days", "Prediction Horizon (days)", "Days ahead to predict", 7),
		},
	},
}
