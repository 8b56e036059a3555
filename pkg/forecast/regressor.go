package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Regressor maps an encoded feature row to a single prediction
type Regressor interface {
	Predict(features map[string]float64) (float64, error)
}

// Tree is a fitted regression tree in the flat layout of scikit-learn's tree_ attribute.
// Node i is a leaf when ChildrenLeft[i] == -1
type Tree struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

// Forest is the JSON-serializable random forest artifact
type Forest struct {
	FeatureNames []string `json:"feature_names"`
	Trees        []Tree   `json:"trees"`
}

func LoadForest(path string) (*Forest, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseForest(bytes)
}

func ParseForest(data []byte) (*Forest, error) {
	var forest Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, fmt.Errorf("cannot decode forest: %w", err)
	}
	if err := forest.validate(); err != nil {
		return nil, err
	}
	return &forest, nil
}

func (forest *Forest) validate() error {
	if len(forest.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	for i, tree := range forest.Trees {
		nodes := len(tree.ChildrenLeft)
		if nodes == 0 || len(tree.ChildrenRight) != nodes || len(tree.Feature) != nodes || len(tree.Threshold) != nodes || len(tree.Value) != nodes {
			return fmt.Errorf("tree %v has inconsistent node arrays", i)
		}
		for node := range nodes {
			left, right := tree.ChildrenLeft[node], tree.ChildrenRight[node]
			if left == -1 {
				continue
			}
			if left <= node || right <= node || left >= nodes || right >= nodes {
				return fmt.Errorf("tree %v: node %v has invalid children (%v, %v)", i, node, left, right)
			}
			if tree.Feature[node] < 0 || tree.Feature[node] >= len(forest.FeatureNames) {
				return fmt.Errorf("tree %v: node %v splits on unknown feature %v", i, node, tree.Feature[node])
			}
		}
	}
	return nil
}

// Predict averages the leaf values reached in every tree. Features the row does not carry are 0, as for absent one-hot columns
func (forest *Forest) Predict(features map[string]float64) (float64, error) {
	vector := make([]float64, len(forest.FeatureNames))
	for i, name := range forest.FeatureNames {
		vector[i] = features[name]
	}

	var sum float64
	for _, tree := range forest.Trees {
		node := 0
		for tree.ChildrenLeft[node] != -1 {
			if vector[tree.Feature[node]] <= tree.Threshold[node] {
				node = tree.ChildrenLeft[node]
			} else {
				node = tree.ChildrenRight[node]
			}
		}
		sum += tree.Value[node]
	}

	prediction := sum / float64(len(forest.Trees))
	if math.IsNaN(prediction) || math.IsInf(prediction, 0) {
		return 0, fmt.Errorf("forest produced a non-finite prediction")
	}
	return prediction, nil
}
