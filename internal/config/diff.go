package config

// ConfigDiff describes what changed between two configs. Only fields
// that can be safely applied without restarting the server are
// tracked — Discord.Token and the transport/listen address require a
// restart, so they are deliberately absent.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	RateLimitChanged bool
	NewRateLimit     RateLimitConfig
}

// Diff compares old and new configs and reports what changed. Callers
// apply the reported changes themselves (e.g. setting a slog.LevelVar or
// calling Server.SetRateLimitDefaults); Diff performs no side effects.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.RateLimit != new.RateLimit {
		d.RateLimitChanged = true
		d.NewRateLimit = new.RateLimit
	}

	return d
}
