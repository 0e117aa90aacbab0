package model

// Metrics holds binary-classification evaluation results.
type Metrics struct {
	Accuracy  float64
	Recall    float64
	Precision float64
	F1        float64
}

// BinaryMetrics computes accuracy, recall, precision and F1 from
// predicted and target labels (0 or 1). Undefined ratios (zero
// denominators) are reported as 0.
func BinaryMetrics(pred, target []int) Metrics {
	var tp, fp, tn, fn float64
	for i := range pred {
		switch {
		case pred[i] == 1 && target[i] == 1:
			tp++
		case pred[i] == 1 && target[i] == 0:
			fp++
		case pred[i] == 0 && target[i] == 0:
			tn++
		case pred[i] == 0 && target[i] == 1:
			fn++
		}
	}

	var m Metrics
	if total := tp + fp + tn + fn; total > 0 {
		m.Accuracy = (tp + tn) / total
	}
	if tp+fn > 0 {
		m.Recall = tp / (tp + fn)
	}
	if tp+fp > 0 {
		m.Precision = tp / (tp + fp)
	}
	if m.Recall+m.Precision > 0 {
		m.F1 = 2 * m.Recall * m.Precision / (m.Recall + m.Precision)
	}
	return m
}
