package shared

import "os"

// ReleaseVersion is stamped onto every sink payload so downstream sheets
// can tell which funnel build produced a row.
const ReleaseVersion = "v2.1"

// Config is the process-wide configuration, assembled once from the
// environment at startup and passed explicitly to every component. Leaf
// code never reads the environment on its own.
type Config struct {
	// Stage sink endpoints (Google Apps Script web apps, treated as opaque
	// SubmissionSinks).
	FirstGASURL  string
	SecondGASURL string
	ThirdGASURL  string

	// Magic-token service endpoint, colocated with the stage-1 sink.
	TokenAPIURL string

	// Operator chat webhook, treated as an opaque NotifierSink. Empty
	// disables notification delivery.
	NotifierWebhookURL string

	// Per-stage shared secrets attached to every sink payload.
	APITokenStage1 string
	APITokenStage2 string
	APITokenStage3 string

	// Environment is dev, staging, or prod. Operator mode is refused in
	// prod.
	Environment string

	// Temporal connection.
	TemporalHostPort  string
	TemporalNamespace string

	// Gateway listen address.
	GatewayAddr string
}

// Load assembles the Config from environment variables, falling back to the
// documented defaults so a bare dev environment still boots.
func Load() Config {
	return Config{
		FirstGASURL:        os.Getenv("FIRST_GAS_URL"),
		SecondGASURL:       os.Getenv("SECOND_GAS_URL"),
		ThirdGASURL:        os.Getenv("THIRD_GAS_URL"),
		TokenAPIURL:        os.Getenv("FIRST_GAS_TOKEN_API_URL"),
		NotifierWebhookURL: os.Getenv("NOTIFIER_WEBHOOK_URL"),
		APITokenStage1:     envOr("API_TOKEN", "youareplan"),
		APITokenStage2:     envFirst([]string{"API_TOKEN_STAGE2", "API_TOKEN_2"}, "youareplan_stage2"),
		APITokenStage3:     envFirst([]string{"API_TOKEN_STAGE3", "API_TOKEN_3"}, "youareplan_stage3"),
		Environment:        envOr("INTAKE_ENV", "dev"),
		TemporalHostPort:   os.Getenv("TEMPORAL_HOST_PORT"),
		TemporalNamespace:  os.Getenv("TEMPORAL_NAMESPACE"),
		GatewayAddr:        envOr("GATEWAY_ADDR", ":8090"),
	}
}

// APIToken returns the shared secret for a stage.
func (c Config) APIToken(stage StageID) string {
	switch stage {
	case Stage2:
		return c.APITokenStage2
	case Stage3:
		return c.APITokenStage3
	default:
		return c.APITokenStage1
	}
}

// SinkURL returns the submission endpoint for a stage.
func (c Config) SinkURL(stage StageID) string {
	switch stage {
	case Stage2:
		return c.SecondGASURL
	case Stage3:
		return c.ThirdGASURL
	default:
		return c.FirstGASURL
	}
}

// OperatorModeEnabled reports whether the stage-2 operator receipt
// substitution may be honored. Never in production.
func (c Config) OperatorModeEnabled() bool {
	return c.Environment != "prod"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFirst(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}
