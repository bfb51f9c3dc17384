package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database: dsn must not be empty")
	}
	if err := c.Luna.validate(); err != nil {
		return fmt.Errorf("luna: %w", err)
	}
	if err := c.Worker.validate(); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}

func (l *LunaConfig) validate() error {
	if l.MaxConcurrentMessages < 1 {
		return fmt.Errorf("max_concurrent_messages must be >= 1 (got %d)", l.MaxConcurrentMessages)
	}
	if l.DetectWindow <= 0 {
		return fmt.Errorf("detect_window must be > 0 (got %v)", l.DetectWindow)
	}
	if l.DetectInterval <= 0 {
		return fmt.Errorf("detect_interval must be > 0 (got %v)", l.DetectInterval)
	}
	if l.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be > 0 (got %v)", l.SweepInterval)
	}
	return nil
}

func (w *WorkerConfig) validate() error {
	if w.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1 (got %d)", w.BatchSize)
	}
	if w.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", w.MaxAttempts)
	}
	if w.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be > 0 (got %v)", w.PollInterval)
	}
	return nil
}
