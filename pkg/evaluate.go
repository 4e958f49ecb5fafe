package pkg

import (
	"fmt"
	gio "io"
	"sort"
	"strings"

	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"textclass/pkg/io"
	"textclass/pkg/model"
)

// Evaluation summarizes a run of the classifier over labelled data.
type Evaluation struct {
	Loss    float64
	MacroF1 float64
	MicroF1 float64
	Metrics map[string]*stats.ClassMetrics
}

// Evaluate runs the model over the labelled documents of inputFileName, writing
// per-document predictions to outputFileName and a per-class metrics table to report.
func Evaluate(modelFileName, inputFileName, outputFileName string, report gio.Writer, p InferenceParameters) error {
	m, err := loadModel(modelFileName)
	if err != nil {
		return err
	}
	if m.MetaData.LabelColumn == "" {
		return fmt.Errorf("model %s has no label column to evaluate against", modelFileName)
	}
	data, dataErrors, err := io.LoadData(io.DataParameters{
		DataFile:    inputFileName,
		TextColumn:  m.MetaData.TextColumn,
		LabelColumn: m.MetaData.LabelColumn,
	}, m.MetaData)
	if err != nil {
		return fmt.Errorf("error loading data from %s: %w", inputFileName, err)
	}
	printDataErrors(dataErrors)
	if len(data) == 0 {
		return fmt.Errorf("no data to evaluate")
	}

	outputWriter, closeOutput, err := createOutput(outputFileName)
	if err != nil {
		return err
	}
	defer closeOutput()

	evaluation, err := evaluateInternal(m, data, outputWriter, p)
	if err != nil {
		return err
	}
	writeReport(report, evaluation)
	return nil
}

type modelEvaluator interface {
	EvaluatePrediction(record *io.DataRecord, prediction model.Prediction, i int)
	Metrics() map[string]*stats.ClassMetrics
}

func evaluateInternal(m *model.Model, data []*io.DataRecord, outputWriter gio.Writer, p InferenceParameters) (*Evaluation, error) {
	var evaluator modelEvaluator
	if m.Classifier.Activation() == model.ArgMax {
		evaluator = &classificationEvaluator{
			metrics:      map[string]*stats.ClassMetrics{},
			metaData:     m.MetaData,
			outputWriter: outputWriter,
		}
	} else {
		evaluator = newMultilabelEvaluator(m.MetaData, outputWriter)
	}

	var losses, weights []float64
	err := runBatches(m, data, p, func(batch io.DataBatch, g *ag.Graph, result *model.Result) error {
		loss, err := model.Loss(g, result, batch.Targets())
		if err != nil {
			return fmt.Errorf("error computing loss for batch starting at line %d: %w", batch[0].Line, err)
		}
		losses = append(losses, float64(loss.ScalarValue()))
		weights = append(weights, float64(len(batch)))
		for i, record := range batch {
			evaluator.EvaluatePrediction(record, result.Prediction(), i)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics := evaluator.Metrics()
	macroF1, microF1 := computeOverallF1(metrics)
	evaluation := &Evaluation{
		Loss:    stat.Mean(losses, weights),
		MacroF1: macroF1,
		MicroF1: microF1,
		Metrics: metrics,
	}
	logMetrics(evaluation)
	return evaluation, nil
}

// classificationEvaluator scores single-label predictions, counting every
// mistake as a false negative of the label and a false positive of the prediction.
type classificationEvaluator struct {
	metrics      map[string]*stats.ClassMetrics
	metaData     *model.Metadata
	outputWriter gio.Writer
}

func (c *classificationEvaluator) EvaluatePrediction(record *io.DataRecord, prediction model.Prediction, i int) {
	predictedClass := c.metaData.Labels.IndexToName[prediction.Classes()[i]]
	label := c.metaData.Labels.IndexToName[record.Targets[0]]

	fmt.Fprintf(c.outputWriter, "%d,%s,%s\n", record.Line, label, predictedClass)

	labelClassMetrics := c.counter(label)
	predictedClassMetrics := c.counter(predictedClass)
	if label == predictedClass {
		labelClassMetrics.IncTruePos()
	} else {
		labelClassMetrics.IncFalseNeg()
		predictedClassMetrics.IncFalsePos()
	}
}

func (c *classificationEvaluator) counter(class string) *stats.ClassMetrics {
	metrics, ok := c.metrics[class]
	if !ok {
		metrics = stats.NewMetricCounter()
		c.metrics[class] = metrics
	}
	return metrics
}

func (c *classificationEvaluator) Metrics() map[string]*stats.ClassMetrics {
	return c.metrics
}

// multilabelEvaluator scores every class of every document independently,
// a class being predicted when its score reaches Threshold.
type multilabelEvaluator struct {
	metrics      map[string]*stats.ClassMetrics
	metaData     *model.Metadata
	outputWriter gio.Writer
}

func newMultilabelEvaluator(metaData *model.Metadata, outputWriter gio.Writer) *multilabelEvaluator {
	metrics := make(map[string]*stats.ClassMetrics, metaData.Labels.Size())
	for _, class := range metaData.Labels.IndexToName {
		metrics[class] = stats.NewMetricCounter()
	}
	return &multilabelEvaluator{
		metrics:      metrics,
		metaData:     metaData,
		outputWriter: outputWriter,
	}
}

func (e *multilabelEvaluator) EvaluatePrediction(record *io.DataRecord, prediction model.Prediction, i int) {
	actual := make(map[int]bool, len(record.Targets))
	labels := make([]string, len(record.Targets))
	for j, target := range record.Targets {
		actual[target] = true
		labels[j] = e.metaData.Labels.IndexToName[target]
	}

	var predicted []string
	for k, score := range prediction.Scores()[i] {
		class := e.metaData.Labels.IndexToName[k]
		metrics := e.metrics[class]
		hit := score >= Threshold
		if hit {
			predicted = append(predicted, class)
		}
		switch {
		case hit && actual[k]:
			metrics.IncTruePos()
		case hit:
			metrics.IncFalsePos()
		case actual[k]:
			metrics.IncFalseNeg()
		default:
			metrics.TrueNeg++
		}
	}

	fmt.Fprintf(e.outputWriter, "%d,%s,%s\n", record.Line,
		strings.Join(labels, io.LabelSeparator), strings.Join(predicted, io.LabelSeparator))
}

func (e *multilabelEvaluator) Metrics() map[string]*stats.ClassMetrics {
	return e.metrics
}

func logMetrics(evaluation *Evaluation) {
	// Sort class names for deterministic output
	for _, class := range sortClasses(evaluation.Metrics) {
		result := evaluation.Metrics[class]
		log.Info().Str("Class", class).
			Int("TP", result.TruePos).
			Int("FP", result.FalsePos).
			Int("TN", result.TrueNeg).
			Int("FN", result.FalseNeg).
			Float64("Precision", float64(result.Precision())).
			Float64("Recall", float64(result.Recall())).
			Float64("F1", float64(result.F1Score())).
			Msg("")
	}
	log.Info().
		Float64("MacroF1", evaluation.MacroF1).
		Float64("MicroF1", evaluation.MicroF1).
		Float64("Loss", evaluation.Loss).
		Msg("")
}

func writeReport(report gio.Writer, evaluation *Evaluation) {
	if report == nil {
		return
	}
	table := tablewriter.NewWriter(report)
	table.SetHeader([]string{"CLASS", "TP", "FP", "FN", "PRECISION", "RECALL", "F1"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, class := range sortClasses(evaluation.Metrics) {
		result := evaluation.Metrics[class]
		table.Append([]string{
			class,
			fmt.Sprint(result.TruePos),
			fmt.Sprint(result.FalsePos),
			fmt.Sprint(result.FalseNeg),
			fmt.Sprintf("%.4f", result.Precision()),
			fmt.Sprintf("%.4f", result.Recall()),
			fmt.Sprintf("%.4f", result.F1Score()),
		})
	}
	table.Append([]string{"macro avg", "", "", "", "", "", fmt.Sprintf("%.4f", evaluation.MacroF1)})
	table.Append([]string{"micro avg", "", "", "", "", "", fmt.Sprintf("%.4f", evaluation.MicroF1)})
	table.Render()
	fmt.Fprintf(report, "loss %.4f\n", evaluation.Loss)
}

// computeOverallF1 returns the macro F1, the mean of the per-class scores, and
// the micro F1 of the pooled counts.
func computeOverallF1(metrics map[string]*stats.ClassMetrics) (float64, float64) {
	if len(metrics) == 0 {
		return 0, 0
	}
	macroF1 := 0.0
	for _, metric := range metrics {
		macroF1 += float64(metric.F1Score())
	}
	macroF1 /= float64(len(metrics))

	micro := stats.NewMetricCounter()
	for _, result := range metrics {
		micro.TruePos += result.TruePos
		micro.FalsePos += result.FalsePos
		micro.FalseNeg += result.FalseNeg
		micro.TrueNeg += result.TrueNeg
	}
	return macroF1, float64(micro.F1Score())
}

func sortClasses(metrics map[string]*stats.ClassMetrics) []string {
	result := make([]string, 0, len(metrics))
	for class := range metrics {
		result = append(result, class)
	}
	sort.Strings(result)
	return result
}
