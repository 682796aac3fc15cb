// Package experiment assigns users to scoring-weight variants. Assignment is
// a pure function of (user, experiment), so it is stable across processes
// without a persisted lookup table.
package experiment

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/jobscout/internal/types"
)

// BaselineVariant is returned whenever an experiment is inactive or has no
// variants to choose from.
const BaselineVariant = 0

// Controller toggles experiments and resolves variant assignments.
type Controller struct {
	mu     sync.RWMutex
	active map[string]bool
	log    *zap.Logger
}

// NewController creates a Controller. All experiments start inactive.
func NewController(log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		active: make(map[string]bool),
		log:    log.Named("experiment"),
	}
}

// StartExperiment activates an experiment.
func (c *Controller) StartExperiment(name string) {
	c.mu.Lock()
	c.active[name] = true
	c.mu.Unlock()
	c.log.Info("experiment started", zap.String("experiment", name))
}

// StopExperiment deactivates an experiment. Subsequent assignments return the
// baseline variant.
func (c *Controller) StopExperiment(name string) {
	c.mu.Lock()
	delete(c.active, name)
	c.mu.Unlock()
	c.log.Info("experiment stopped", zap.String("experiment", name))
}

// Active reports whether the experiment is currently running.
func (c *Controller) Active(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active[name]
}

// AssignVariant returns the variant index for a user under an experiment.
// The same (user, experiment) pair always maps to the same variant while the
// experiment runs; an inactive experiment maps everyone to the baseline.
func (c *Controller) AssignVariant(userID uuid.UUID, experimentName string, variants []types.WeightSet) int {
	if len(variants) <= 1 {
		return BaselineVariant
	}
	if !c.Active(experimentName) {
		return BaselineVariant
	}
	return bucket(userID, experimentName, len(variants))
}

// Weights resolves the variant index into its weight set, falling back to the
// defaults when no variants are configured.
func Weights(variants []types.WeightSet, variantID int) types.WeightSet {
	if variantID < 0 || variantID >= len(variants) {
		return types.DefaultWeights()
	}
	return variants[variantID]
}

// bucket hashes the user and experiment name into [0, n).
func bucket(userID uuid.UUID, experimentName string, n int) int {
	h := sha256.Sum256([]byte(userID.String() + ":" + experimentName))
	return int(binary.BigEndian.Uint64(h[:8]) % uint64(n))
}
