package forecast

import (
	"fmt"
	"sync"
	"time"

	"github.com/KaranKumar0402/Commodity-price/internal/logger"
	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

// Predictor produces a price estimate, in Rs per quintal, for a feature vector.
// Implementations must be deterministic and safe for concurrent use.
type Predictor interface {
	Predict(v models.FeatureVector) float64
}

// Loader loads the model artifact exactly once per process
type Loader struct {
	once  sync.Once
	model *Model
	err   error
}

// Load reads the model on the first call; later calls return the cached instance
func (l *Loader) Load(path string) (*Model, error) {
	l.once.Do(func() {
		start := time.Now()
		l.model, l.err = LoadModel(path)
		if l.err != nil {
			l.err = fmt.Errorf("failed to load model %s: %w", path, l.err)
			return
		}
		logger.Info("Loaded %s model with %d trees in %v", l.model.Objective(), l.model.NumTrees(), time.Since(start))
	})
	return l.model, l.err
}
