package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mode   string
	dryRun bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode selects the run mode: ModeSync, ModeServe, or ModeMCP.
func WithMode(mode string) Option {
	return func(a *application) {
		a.mode = mode
	}
}

// WithDryRun plans sync passes without changing either side.
func WithDryRun(dryRun bool) Option {
	return func(a *application) {
		a.dryRun = dryRun
	}
}
