package artifact

import (
	"errors"
	"fmt"
)

const leaf = -1

// Tree is a fitted binary decision tree in parallel-array form. Node 0 is the
// root; a node whose children are both -1 is a leaf and Value holds its
// per-class sample weights.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

func (t *Tree) validate(nFeatures, nClasses int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("tree arrays differ in length")
	}

	for i := 0; i < n; i++ {
		left, right := t.ChildrenLeft[i], t.ChildrenRight[i]

		if left == leaf || right == leaf {
			if left != right {
				return fmt.Errorf("node %d has a single child", i)
			}
			if len(t.Value[i]) != nClasses {
				return fmt.Errorf("leaf %d has %d class weights, expected %d", i, len(t.Value[i]), nClasses)
			}
			var total float64
			for _, w := range t.Value[i] {
				if w < 0 {
					return fmt.Errorf("leaf %d has a negative class weight", i)
				}
				total += w
			}
			if total == 0 {
				return fmt.Errorf("leaf %d has no class weight", i)
			}
			continue
		}

		// children always come after their parent, which also rules out cycles
		if left <= i || left >= n || right <= i || right >= n {
			return fmt.Errorf("node %d has out of range children", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nFeatures {
			return fmt.Errorf("node %d splits on unknown feature %d", i, t.Feature[i])
		}
	}

	return nil
}

// leafFor walks the tree for x. Feature values are compared at float32
// precision, matching how the thresholds were learned.
func (t *Tree) leafFor(x []float64) int {
	node := 0
	for t.ChildrenLeft[node] != leaf {
		if float64(float32(x[t.Feature[node]])) <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	return node
}

// Forest averages the normalized leaf distributions of its trees. A single
// tree forest is a plain decision tree.
type Forest struct {
	kind      string
	nFeatures int
	nClasses  int
	trees     []Tree
}

func newForest(mf modelFile) (*Forest, error) {
	if len(mf.Estimators) == 0 {
		return nil, errors.New("forest has no estimators")
	}

	for i := range mf.Estimators {
		if err := mf.Estimators[i].validate(mf.NFeatures, mf.NClasses); err != nil {
			return nil, fmt.Errorf("estimator %d: %w", i, err)
		}
	}

	return &Forest{
		kind:      mf.Kind,
		nFeatures: mf.NFeatures,
		nClasses:  mf.NClasses,
		trees:     mf.Estimators,
	}, nil
}

func (f *Forest) Kind() string     { return f.kind }
func (f *Forest) NumFeatures() int { return f.nFeatures }
func (f *Forest) NumClasses() int  { return f.nClasses }

func (f *Forest) Predict(x []float64) (int, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if err := checkWidth(x, f.nFeatures); err != nil {
		return nil, err
	}

	proba := make([]float64, f.nClasses)
	for i := range f.trees {
		weights := f.trees[i].Value[f.trees[i].leafFor(x)]

		var total float64
		for _, w := range weights {
			total += w
		}
		for k, w := range weights {
			proba[k] += w / total
		}
	}

	n := float64(len(f.trees))
	for k := range proba {
		proba[k] /= n
	}

	return proba, nil
}
