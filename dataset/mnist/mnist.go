// Package mnist loads the MNIST handwritten digit dataset from IDX files
// and assembles training tensors from it.
//
// The canonical distribution has 60,000 training and 10,000 test images,
// each a single-channel 28x28 grayscale bitmap with a digit label 0-9.
package mnist

import (
	"fmt"
	"io"
	"math/rand"
	"path/filepath"

	"github.com/choudary21/WML-CE-LMS/internal/tensor"
)

// NumClasses is the width of the one-hot label encoding.
const NumClasses = 10

// Set is an in-memory split of the dataset. Pixels are normalized to
// [0, 1] and stored row-major, one image after another.
type Set struct {
	Images []float32
	Labels []uint8
	N      int
	Rows   int
	Cols   int
}

// Load reads the train and test splits from dir, accepting both plain
// and gzip-compressed IDX files under their canonical names.
func Load(dir string) (train, test *Set, err error) {
	train, err = loadSet(dir, "train-images-idx3-ubyte", "train-labels-idx1-ubyte")
	if err != nil {
		return nil, nil, fmt.Errorf("load train split: %w", err)
	}
	test, err = loadSet(dir, "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte")
	if err != nil {
		return nil, nil, fmt.Errorf("load test split: %w", err)
	}
	return train, test, nil
}

func loadSet(dir, imageName, labelName string) (*Set, error) {
	pixels, count, rows, cols, err := loadImageFile(dir, imageName)
	if err != nil {
		return nil, err
	}
	labels, err := loadLabelFile(dir, labelName)
	if err != nil {
		return nil, err
	}
	if len(labels) != count {
		return nil, fmt.Errorf("%d images but %d labels", count, len(labels))
	}

	images := make([]float32, len(pixels))
	for i, p := range pixels {
		images[i] = float32(p) / 255.0
	}
	return &Set{Images: images, Labels: labels, N: count, Rows: rows, Cols: cols}, nil
}

func loadImageFile(dir, name string) ([]byte, int, int, int, error) {
	r, closer, err := openFirst(dir, name)
	if err != nil {
		return nil, 0, 0, 0, err
	}
	defer closer()
	pixels, count, rows, cols, err := readImages(r)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("%s: %w", name, err)
	}
	return pixels, count, rows, cols, nil
}

func loadLabelFile(dir, name string) ([]byte, error) {
	r, closer, err := openFirst(dir, name)
	if err != nil {
		return nil, err
	}
	defer closer()
	labels, err := readLabels(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return labels, nil
}

func openFirst(dir, name string) (r io.Reader, closer func() error, err error) {
	for _, candidate := range []string{name, name + ".gz"} {
		r, closer, err = openMaybeGzip(filepath.Join(dir, candidate))
		if err == nil {
			return r, closer, nil
		}
	}
	return nil, nil, fmt.Errorf("no %s or %s.gz in %s: %w", name, name, dir, err)
}

// imageSize returns the pixel count of one image.
func (s *Set) imageSize() int {
	return s.Rows * s.Cols
}

// Shuffle permutes images and labels in place with the same permutation.
func (s *Set) Shuffle(rng *rand.Rand) {
	size := s.imageSize()
	tmp := make([]float32, size)
	rng.Shuffle(s.N, func(i, j int) {
		s.Labels[i], s.Labels[j] = s.Labels[j], s.Labels[i]
		a := s.Images[i*size : (i+1)*size]
		b := s.Images[j*size : (j+1)*size]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	})
}

// Split cuts off the last n examples into a second set, returning
// (first, rest). Useful for carving a validation set from training data.
func (s *Set) Split(n int) (*Set, *Set, error) {
	if n <= 0 || n >= s.N {
		return nil, nil, fmt.Errorf("split size %d outside (0, %d)", n, s.N)
	}
	size := s.imageSize()
	head := s.N - n
	first := &Set{
		Images: s.Images[:head*size],
		Labels: s.Labels[:head],
		N:      head, Rows: s.Rows, Cols: s.Cols,
	}
	rest := &Set{
		Images: s.Images[head*size:],
		Labels: s.Labels[head:],
		N:      n, Rows: s.Rows, Cols: s.Cols,
	}
	return first, rest, nil
}

// Subset returns a view of the first n examples.
func (s *Set) Subset(n int) *Set {
	if n >= s.N {
		return s
	}
	size := s.imageSize()
	return &Set{
		Images: s.Images[:n*size],
		Labels: s.Labels[:n],
		N:      n, Rows: s.Rows, Cols: s.Cols,
	}
}

// Tensors assembles the set into training tensors: images as
// [N, 1, Rows, Cols] and labels as one-hot [N, NumClasses].
func Tensors[B tensor.Backend](s *Set, backend B) (x, y *tensor.Tensor[float32, B]) {
	x = tensor.MustFromSlice(s.Images, tensor.Shape{s.N, 1, s.Rows, s.Cols}, backend)

	y = tensor.Zeros[float32](tensor.Shape{s.N, NumClasses}, backend)
	data := y.Data()
	for i, label := range s.Labels {
		data[i*NumClasses+int(label)] = 1
	}
	return x, y
}

// Synthetic generates a random dataset with the MNIST geometry. Each
// image is noise biased by its label so a model can overfit it; useful
// for tests and offline runs.
func Synthetic(n int, rng *rand.Rand) *Set {
	const rows, cols = 28, 28
	s := &Set{
		Images: make([]float32, n*rows*cols),
		Labels: make([]uint8, n),
		N:      n, Rows: rows, Cols: cols,
	}
	for i := 0; i < n; i++ {
		label := uint8(rng.Intn(NumClasses))
		s.Labels[i] = label
		img := s.Images[i*rows*cols : (i+1)*rows*cols]
		for j := range img {
			img[j] = rng.Float32() * 0.3
		}
		// A bright bar whose row encodes the label.
		rowBase := int(label) * 2 * cols
		for j := 0; j < cols; j++ {
			img[rowBase+j] = 1
		}
	}
	return s
}
