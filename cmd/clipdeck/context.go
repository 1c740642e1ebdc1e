package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"clipdeck/internal/backend"
	"clipdeck/internal/config"
	"clipdeck/internal/gatekeeper"
	"clipdeck/internal/journal"
	"clipdeck/internal/logging"
	"clipdeck/internal/notifications"
	"clipdeck/internal/resources"
	"clipdeck/internal/workflow"
)

type commandContext struct {
	configFlag *string
	formatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, formatFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		formatFlag: formatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) backendClient() (*backend.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return backend.New(backend.Config{
		BaseURL:       cfg.Backend.BaseURL,
		APIToken:      cfg.Backend.APIToken,
		UserAgent:     cfg.Backend.UserAgent,
		Timeout:       cfg.BackendTimeout(),
		UploadTimeout: cfg.UploadTimeout(),
		Logger:        logger,
	})
}

func (c *commandContext) notifier(cmd *cobra.Command) notifications.Service {
	return notifications.NewService(c.configValue(), cmd.ErrOrStderr())
}

// session bundles what a workflow command needs. close releases the journal
// and every live handle.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *backend.Client
	manager *resources.Manager
	store   *journal.Store
	orch    *workflow.Orchestrator
}

func (s *session) close() {
	if s.manager != nil {
		_ = s.manager.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (c *commandContext) withSession(cmd *cobra.Command, fn func(*session) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	client, err := c.backendClient()
	if err != nil {
		return err
	}
	s := &session{cfg: cfg, logger: logger, client: client}
	defer s.close()

	s.manager, err = resources.NewManager(cfg.Paths.HandleDir, logger)
	if err != nil {
		return err
	}
	s.store, err = journal.Open(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	gate, err := gatekeeper.New(gatekeeper.Options{
		AllowedTypes:  cfg.Upload.AllowedTypes,
		MaxDuration:   cfg.MaxDuration(),
		FFprobeBinary: cfg.FFprobeBinary(),
	}, s.manager, logger)
	if err != nil {
		return err
	}
	s.orch = workflow.New(client, gate, s.store, c.notifier(cmd), logger)
	return fn(s)
}

// withLock holds the workflow lock for the duration of fn so only one
// clipdeck process mutates the backend per state dir.
func (c *commandContext) withLock(fn func() error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire workflow lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another clipdeck workflow holds %s; wait for it to finish", cfg.LockPath())
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

func (c *commandContext) withJournal(fn func(*journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := journal.Open(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
