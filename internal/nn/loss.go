package nn

import (
	"fmt"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// CategoricalCrossEntropy computes the mean cross-entropy between logits
// [N, C] and one-hot targets [N, C] with the backend's fused kernel. The
// result is a single-element tensor.
func CategoricalCrossEntropy[B tensor.Backend](
	logits, targets *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	backend := logits.Backend()
	ce, ok := any(backend).(tensor.CrossEntropyBackend)
	if !ok {
		panic(fmt.Sprintf("backend %s does not implement CrossEntropy", backend.Name()))
	}
	return tensor.New[float32, B](ce.CrossEntropy(logits.Raw(), targets.Raw()), backend)
}

// Accuracy returns the fraction of rows where the argmax of the logits
// matches the argmax of the one-hot targets.
func Accuracy[B tensor.Backend](logits, targets *tensor.Tensor[float32, B]) float64 {
	backend := logits.Backend()

	pred := backend.Argmax(logits.Raw(), 1).AsInt32()
	truth := backend.Argmax(targets.Raw(), 1).AsInt32()

	correct := 0
	for i := range pred {
		if pred[i] == truth[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(pred))
}
