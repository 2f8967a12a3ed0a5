package snowflake

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"dev.acmcsuf.com/snowflake/settings"
)

// ModeSettingKey is the settings key holding the active mode as a decimal
// number.
const ModeSettingKey = "ledMode"

// ModeSwitcher switches the mode of the ring.
type ModeSwitcher interface {
	// Mode returns the active mode.
	Mode() Mode
	// SetMode switches to the given mode.
	SetMode(m Mode) error
	// NextMode switches to the mode after the active one, as a button press
	// would, and returns it.
	NextMode() (Mode, error)
}

// Controller switches the mode of an Engine and persists it in a settings
// store, so it survives restarts.
type Controller struct {
	engine *Engine
	store  settings.Store
	logger *slog.Logger

	mu sync.Mutex
}

var _ ModeSwitcher = (*Controller)(nil)

// NewController creates a new Controller.
func NewController(engine *Engine, store settings.Store, logger *slog.Logger) *Controller {
	return &Controller{
		engine: engine,
		store:  store,
		logger: logger,
	}
}

// Restore switches the engine to the mode stored in the settings. If no
// mode is stored, the engine's mode is left alone. An unusable stored mode
// is logged and ignored.
func (c *Controller) Restore() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := c.store.Get(ModeSettingKey)
	if stored == "" {
		return c.engine.Mode()
	}

	n, err := strconv.ParseUint(stored, 10, 32)
	if err != nil || c.engine.SetMode(Mode(n)) != nil {
		c.logger.Warn(
			"ignoring stored mode",
			"value", stored)

		return c.engine.Mode()
	}

	c.logger.Info(
		"restored mode",
		"mode", Mode(n))

	return Mode(n)
}

// Mode implements ModeSwitcher.
func (c *Controller) Mode() Mode {
	return c.engine.Mode()
}

// SetMode implements ModeSwitcher.
func (c *Controller) SetMode(m Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setMode(m)
}

// NextMode implements ModeSwitcher.
func (c *Controller) NextMode() (Mode, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.engine.Mode().Next()
	return next, c.setMode(next)
}

// setMode persists m before switching to it, so a failed write leaves both
// the ring and the stored mode unchanged.
func (c *Controller) setMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, uint32(m))
	}

	prev := c.store.Get(ModeSettingKey)
	if err := c.store.Set(ModeSettingKey, strconv.FormatUint(uint64(m), 10)); err != nil {
		return fmt.Errorf("failed to save mode: %w", err)
	}

	if err := c.store.Store(); err != nil {
		if err := c.store.Set(ModeSettingKey, prev); err != nil {
			c.logger.Error(
				"failed to restore previous mode setting",
				"err", err)
		}
		return fmt.Errorf("failed to store settings: %w", err)
	}

	return c.engine.SetMode(m)
}
