package types

type RunMode string

const (
	// ModeLocal runs the API server, the webhook router and the cron
	// scheduler in one process
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server and the webhook router
	ModeAPI RunMode = "api"
	// ModeCron runs just the scheduled jobs
	ModeCron RunMode = "cron"
)
