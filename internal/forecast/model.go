// Package forecast loads the pretrained gradient-boosted regression model and
// evaluates it on assembled feature vectors.
//
// The model is read from XGBoost's JSON model format (Booster.save_model with a
// .json extension). Only the gbtree booster with a single output is supported.
package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

// Objectives whose prediction is the raw margin.
var identityObjectives = map[string]bool{
	"reg:squarederror":     true,
	"reg:linear":           true,
	"reg:absoluteerror":    true,
	"reg:pseudohubererror": true,
	"reg:squaredlogerror":  true,
}

// Objectives with a log link.
var logObjectives = map[string]bool{
	"reg:gamma":     true,
	"reg:tweedie":   true,
	"count:poisson": true,
}

// Model is a loaded tree ensemble. It is immutable and safe for concurrent use.
type Model struct {
	trees      []tree
	baseMargin float64
	logLink    bool
	numFeature int
	objective  string
}

type tree struct {
	left        []int
	right       []int
	feature     []int
	threshold   []float64
	defaultLeft []bool
}

// xgbModel mirrors the parts of the XGBoost JSON schema we read
type xgbModel struct {
	Learner struct {
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees []xgbTree `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumFeature string `json:"num_feature"`
			NumTarget  string `json:"num_target"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     []flag    `json:"default_left"`
}

// flag decodes default_left entries, which older exports write as 0/1 and
// newer ones as booleans.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	switch s := string(b); s {
	case "true", "1":
		*f = true
	case "false", "0":
		*f = false
	default:
		return fmt.Errorf("invalid default_left value %s", s)
	}
	return nil
}

// LoadModel reads an XGBoost JSON model from path
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes an XGBoost JSON model
func ParseModel(data []byte) (*Model, error) {
	var raw xgbModel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	l := raw.Learner

	if l.GradientBooster.Name != "gbtree" {
		return nil, fmt.Errorf("unsupported booster %q", l.GradientBooster.Name)
	}
	if t := l.LearnerModelParam.NumTarget; t != "" && t != "1" {
		return nil, fmt.Errorf("unsupported num_target %s", t)
	}

	objective := l.Objective.Name
	if !identityObjectives[objective] && !logObjectives[objective] {
		return nil, fmt.Errorf("unsupported objective %q", objective)
	}

	baseScore, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, err
	}

	numFeature, err := strconv.Atoi(l.LearnerModelParam.NumFeature)
	if err != nil {
		return nil, fmt.Errorf("invalid num_feature %q", l.LearnerModelParam.NumFeature)
	}
	if numFeature != models.FeatureSize {
		return nil, fmt.Errorf("model expects %d features, feature vector has %d", numFeature, models.FeatureSize)
	}

	m := &Model{
		baseMargin: baseScore,
		logLink:    logObjectives[objective],
		numFeature: numFeature,
		objective:  objective,
	}
	if m.logLink {
		if baseScore <= 0 {
			return nil, fmt.Errorf("base_score must be positive for %s", objective)
		}
		m.baseMargin = math.Log(baseScore)
	}

	if len(l.GradientBooster.Model.Trees) == 0 {
		return nil, errors.New("model has no trees")
	}
	for i, raw := range l.GradientBooster.Model.Trees {
		t, err := buildTree(raw, numFeature)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		m.trees = append(m.trees, t)
	}

	return m, nil
}

// parseBaseScore accepts "5E-1" and the bracketed "[5E-1]" written by XGBoost 2.x
func parseBaseScore(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(s, "[]"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid base_score %q", s)
	}
	return v, nil
}

func buildTree(raw xgbTree, numFeature int) (tree, error) {
	n := len(raw.LeftChildren)
	if n == 0 {
		return tree{}, errors.New("empty tree")
	}
	if len(raw.RightChildren) != n || len(raw.SplitIndices) != n ||
		len(raw.SplitConditions) != n || len(raw.DefaultLeft) != n {
		return tree{}, errors.New("node arrays have different lengths")
	}

	t := tree{
		left:        raw.LeftChildren,
		right:       raw.RightChildren,
		feature:     raw.SplitIndices,
		threshold:   raw.SplitConditions,
		defaultLeft: make([]bool, n),
	}
	for i := 0; i < n; i++ {
		t.defaultLeft[i] = bool(raw.DefaultLeft[i])
		if t.left[i] == -1 {
			continue
		}
		if t.left[i] <= i || t.left[i] >= n || t.right[i] <= i || t.right[i] >= n {
			return tree{}, fmt.Errorf("node %d has invalid children", i)
		}
		if t.feature[i] < 0 || t.feature[i] >= numFeature {
			return tree{}, fmt.Errorf("node %d splits on unknown feature %d", i, t.feature[i])
		}
	}
	return t, nil
}

// leaf walks the tree for one row. Split conditions on leaves hold the leaf
// weight. Comparisons use float32, the precision XGBoost stores splits in.
func (t *tree) leaf(row []float64) float64 {
	node := 0
	for t.left[node] != -1 {
		v := row[t.feature[node]]
		switch {
		case math.IsNaN(v):
			if t.defaultLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case float32(v) < float32(t.threshold[node]):
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return t.threshold[node]
}

// Predict returns the model output for one feature vector
func (m *Model) Predict(v models.FeatureVector) float64 {
	row := v[:]
	margin := m.baseMargin
	for i := range m.trees {
		margin += m.trees[i].leaf(row)
	}
	if m.logLink {
		return math.Exp(margin)
	}
	return margin
}

// NumTrees returns the ensemble size
func (m *Model) NumTrees() int {
	return len(m.trees)
}

// Objective returns the training objective name
func (m *Model) Objective() string {
	return m.objective
}
