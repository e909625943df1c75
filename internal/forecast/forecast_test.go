package forecast

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

// Two stumps: arrival < 10 -> +100 else +200; season < 1.5 -> +5 else -5,
// missing season goes left.
const stumpsModel = `{
  "learner": {
    "attributes": {},
    "feature_names": [],
    "gradient_booster": {
      "name": "gbtree",
      "model": {
        "gbtree_model_param": {"num_trees": "2"},
        "trees": [
          {
            "left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [5, 0, 0],
            "split_conditions": [10, 100, 200],
            "default_left": [0, 0, 0]
          },
          {
            "left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [9, 0, 0],
            "split_conditions": [1.5, 5, -5],
            "default_left": [true, false, false]
          }
        ],
        "tree_info": [0, 0]
      }
    },
    "learner_model_param": {"base_score": "[1.5E3]", "num_class": "0", "num_feature": "13", "num_target": "1"},
    "objective": {"name": "reg:squarederror"}
  },
  "version": [2, 0, 3]
}`

func vector(arrival, season float64) models.FeatureVector {
	var v models.FeatureVector
	v[models.SlotArrival] = arrival
	v[models.SlotSeason] = season
	v[models.SlotMonth], v[models.SlotDay], v[models.SlotYear] = 4, 1, 2023
	return v
}

func TestModel_Predict(t *testing.T) {
	m, err := ParseModel([]byte(stumpsModel))
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	if m.NumTrees() != 2 {
		t.Errorf("Expected 2 trees, got %d", m.NumTrees())
	}

	tests := []struct {
		name    string
		arrival float64
		season  float64
		want    float64
	}{
		{"low arrival, season 1", 5, 1, 1605},
		{"high arrival, season 2", 12, 2, 1695},
		{"boundary goes right", 10, 1, 1705},
		{"missing season follows default", 5, math.NaN(), 1605},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Predict(vector(tt.arrival, tt.season)); got != tt.want {
				t.Errorf("Predict() = %v, expected %v", got, tt.want)
			}
		})
	}
}

func TestModel_PredictIsDeterministic(t *testing.T) {
	m, err := ParseModel([]byte(stumpsModel))
	if err != nil {
		t.Fatal(err)
	}
	v := vector(7.25, 3)
	first := m.Predict(v)
	for i := 0; i < 100; i++ {
		if got := m.Predict(v); got != first {
			t.Fatalf("Prediction %d = %v, expected %v", i, got, first)
		}
	}
}

func TestModel_LogLink(t *testing.T) {
	data := strings.NewReplacer(
		`"reg:squarederror"`, `"reg:gamma"`,
		`"[1.5E3]"`, `"1"`,
		`[10, 100, 200]`, `[10, 0.5, 1.0]`,
		`[1.5, 5, -5]`, `[1.5, 0, 0]`,
	).Replace(stumpsModel)

	m, err := ParseModel([]byte(data))
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	got := m.Predict(vector(5, 1))
	if math.Abs(got-math.Exp(0.5)) > 1e-9 {
		t.Errorf("Predict() = %v, expected %v", got, math.Exp(0.5))
	}
}

func TestParseModel_Rejects(t *testing.T) {
	tests := []struct {
		name string
		old  string
		new  string
	}{
		{"dart booster", `"name": "gbtree"`, `"name": "dart"`},
		{"classifier objective", `"reg:squarederror"`, `"binary:logistic"`},
		{"wrong feature count", `"num_feature": "13"`, `"num_feature": "12"`},
		{"multi target", `"num_target": "1"`, `"num_target": "2"`},
		{"bad base score", `"[1.5E3]"`, `"abc"`},
		{"split on unknown feature", `[5, 0, 0]`, `[13, 0, 0]`},
		{"ragged arrays", `[2, -1, -1]`, `[2, -1]`},
		{"child points backwards", `"left_children": [1, -1, -1],
            "right_children": [2, -1, -1],
            "split_indices": [5, 0, 0]`, `"left_children": [1, -1, -1],
            "right_children": [0, -1, -1],
            "split_indices": [5, 0, 0]`},
		{"not json", `{`, `[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := strings.Replace(stumpsModel, tt.old, tt.new, 1)
			if data == stumpsModel {
				t.Fatalf("Replacement %q did not apply", tt.old)
			}
			if _, err := ParseModel([]byte(data)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoader_LoadsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_sklearn.json")
	if err := os.WriteFile(path, []byte(stumpsModel), 0o644); err != nil {
		t.Fatal(err)
	}

	var loader Loader
	first, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	second, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Second load should reuse the cached model: %v", err)
	}
	if first != second {
		t.Error("Expected the same model instance")
	}

	var missing Loader
	if _, err := missing.Load(path); err == nil {
		t.Error("Expected error for missing model")
	}
}

var _ Predictor = (*Model)(nil)

func TestLoadModel_BundledArtifact(t *testing.T) {
	m, err := LoadModel(filepath.Join("..", "..", "artifacts", "model_sklearn.json"))
	if err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}

	var v models.FeatureVector
	v[models.SlotArrival] = 5
	v[models.SlotMaxPrice] = 3000
	v[models.SlotMonth], v[models.SlotDay], v[models.SlotYear] = 3, 15, 2024

	if got, want := m.Predict(v), 0.5+3100+150; math.Abs(got-want) > 1e-9 {
		t.Errorf("Predict() = %v, want %v", got, want)
	}
}
