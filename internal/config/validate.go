package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateWatch(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.OutputDir == c.Paths.StagingDir {
		return errors.New("paths.output_dir and paths.staging_dir must differ")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.Concurrency < 1 {
		return errors.New("encoding.concurrency must be >= 1")
	}
	if c.Encoding.StopGraceSeconds <= 0 {
		return errors.New("encoding.stop_grace_seconds must be positive")
	}
	if !c.Encoding.UseLibrary && strings.TrimSpace(c.DraptoBinary()) == "" {
		return errors.New("encoding.drapto_binary must be set when encoding.use_library is false")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if c.Watch.QuiescenceSeconds <= 0 {
		return errors.New("watch.quiescence_seconds must be positive")
	}
	if len(c.Watch.Extensions) == 0 {
		return errors.New("watch.extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.shutdown_grace_ms": c.Workflow.ShutdownGraceMS,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
