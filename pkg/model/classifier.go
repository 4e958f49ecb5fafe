package model

import (
	"fmt"

	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/losses"
	"github.com/nlpodyssey/spago/pkg/ml/nn"

	"textclass/pkg/tensor"
)

// Classifier is implemented by every document classifier. BuildEmbedding
// must run once, before the classifier is reified; BuildLogits runs on the
// reified copy, once per input batch.
type Classifier interface {
	nn.Model
	Init(generator *rand.LockedRand)
	BuildEmbedding(pretrained mat.Matrix, generator *rand.LockedRand) error
	BuildLogits(input *tensor.Indices) ([]ag.Node, error)
	Activation() Activation
	Hyperparameters() Config
	Embedding() *Embedding
}

// Activation turns logits into the user-facing prediction.
type Activation int

const (
	// Sigmoid scores every class independently.
	Sigmoid Activation = iota
	// ArgMax picks the single highest-scoring class.
	ArgMax
)

func (a Activation) String() string {
	switch a {
	case Sigmoid:
		return "sigmoid"
	case ArgMax:
		return "argmax"
	default:
		return fmt.Sprintf("Activation(%d)", int(a))
	}
}

// NewClassifier returns the untrained classifier described by config.
func NewClassifier(config Config) (Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Type {
	case HANType:
		return NewHAN(config), nil
	case LogRegType:
		return NewLogReg(config), nil
	}
	return nil, fmt.Errorf("%w: unknown model type %q", ErrConfig, config.Type)
}

func newEmbedding(config Config, pretrained mat.Matrix, generator *rand.LockedRand) (*Embedding, error) {
	if pretrained == nil {
		return NewRandomEmbedding(config.VocabularySize, config.EmbeddingDim, generator), nil
	}
	if pretrained.Rows() != config.VocabularySize || pretrained.Columns() != config.EmbeddingDim {
		return nil, fmt.Errorf("%w: pretrained embedding matrix is %dx%d, expected %dx%d", tensor.ErrShape,
			pretrained.Rows(), pretrained.Columns(), config.VocabularySize, config.EmbeddingDim)
	}
	return NewPretrainedEmbedding(pretrained, config.TrainableEmbeddings), nil
}

// Result is the outcome of one forward pass. It is not modified after Build returns.
type Result struct {
	embedding  *Embedding
	logits     []ag.Node
	prediction Prediction
}

func (r *Result) Embedding() *Embedding {
	return r.embedding
}

// Logits returns the raw class scores, one vector per document.
func (r *Result) Logits() []ag.Node {
	return append([]ag.Node(nil), r.logits...)
}

func (r *Result) Prediction() Prediction {
	return r.prediction
}

// Prediction holds either per-class sigmoid scores or one class per document,
// according to Activation.
type Prediction struct {
	Activation Activation
	scores     []ag.Node
	classes    []int
}

// Scores returns the per-class probabilities of each document (Sigmoid only).
func (p Prediction) Scores() [][]mat.Float {
	out := make([][]mat.Float, len(p.scores))
	for i, s := range p.scores {
		out[i] = append([]mat.Float(nil), s.Value().Data()...)
	}
	return out
}

// Classes returns the predicted class of each document (ArgMax only).
func (p Prediction) Classes() []int {
	return append([]int(nil), p.classes...)
}

// Shape is [batch, classes] for Sigmoid and [batch] for ArgMax.
func (p Prediction) Shape() []int {
	if p.Activation == ArgMax {
		return []int{len(p.classes)}
	}
	if len(p.scores) == 0 {
		return []int{0, 0}
	}
	return []int{len(p.scores), p.scores[0].Value().Size()}
}

// Build runs the classifier over input. A nil ctx.Graph gets a fresh graph.
func Build(ctx nn.Context, c Classifier, input *tensor.Indices) (*Result, error) {
	if c.Embedding() == nil {
		return nil, ErrEmbeddingNotSet
	}
	if ctx.Graph == nil {
		ctx.Graph = ag.NewGraph()
	}
	proc := nn.Reify(ctx, c).(Classifier)
	logits, err := proc.BuildLogits(input)
	if err != nil {
		return nil, err
	}
	return &Result{
		embedding:  proc.Embedding(),
		logits:     logits,
		prediction: Predict(ctx.Graph, proc.Activation(), logits),
	}, nil
}

// Predict applies activation to every logit vector.
func Predict(g *ag.Graph, activation Activation, logits []ag.Node) Prediction {
	p := Prediction{Activation: activation}
	switch activation {
	case ArgMax:
		p.classes = make([]int, len(logits))
		for i, l := range logits {
			p.classes[i], _ = argmax(l.Value().Data())
		}
	default:
		p.scores = make([]ag.Node, len(logits))
		for i, l := range logits {
			p.scores[i] = g.Sigmoid(l)
		}
	}
	return p
}

// argmax returns the first index holding the largest value
func argmax(data []mat.Float) (int, mat.Float) {
	maxInd := 0
	for i := range data {
		if data[i] > data[maxInd] {
			maxInd = i
		}
	}
	return maxInd, data[maxInd]
}

const lossEpsilon = 1e-7

// Loss returns the batch-averaged loss of r against targets, the classes of
// each document. ArgMax classifiers use softmax cross-entropy on the first
// target; Sigmoid classifiers sum a binary cross-entropy over every class.
func Loss(g *ag.Graph, r *Result, targets [][]int) (ag.Node, error) {
	if len(targets) != len(r.logits) {
		return nil, fmt.Errorf("%w: %d targets for %d documents", tensor.ErrShape, len(targets), len(r.logits))
	}
	var loss ag.Node
	for i, logits := range r.logits {
		var example ag.Node
		if r.prediction.Activation == ArgMax {
			if len(targets[i]) == 0 {
				return nil, fmt.Errorf("document %d has no target class", i)
			}
			example = losses.CrossEntropy(g, logits, targets[i][0])
		} else {
			example = binaryCrossEntropy(g, logits, targets[i])
		}
		if loss == nil {
			loss = example
			continue
		}
		loss = g.Add(loss, example)
	}
	if loss == nil {
		return nil, fmt.Errorf("%w: empty batch", tensor.ErrShape)
	}
	return g.DivScalar(loss, g.NewScalar(mat.Float(len(r.logits)))), nil
}

func binaryCrossEntropy(g *ag.Graph, logits ag.Node, positives []int) ag.Node {
	positive := make(map[int]bool, len(positives))
	for _, c := range positives {
		positive[c] = true
	}
	eps := g.Constant(lossEpsilon)
	var loss ag.Node
	for k := 0; k < logits.Value().Size(); k++ {
		// log(1 - sigmoid(x)) == log(sigmoid(-x))
		z := g.AtVec(logits, k)
		if !positive[k] {
			z = g.Neg(z)
		}
		term := g.Neg(g.Log(g.AddScalar(g.Sigmoid(z), eps)))
		if loss == nil {
			loss = term
			continue
		}
		loss = g.Add(loss, term)
	}
	return loss
}
