// Package util - Loading raw model outputs and logger setup.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// TensorFile is a raw model output tensor read from disk.
type TensorFile struct {
	// Path is the path to the .npy file.
	Path string
	// Tensor is the decoded tensor.
	Tensor *tensor.Dense
	// Frame is the frame number parsed from a "frame-<n>.npy" file name.
	Frame int
}

// LoadTensor reads a NumPy .npy file into a dense tensor.
//
// Arguments:
//   - path: Path to the .npy file.
//
// Returns:
//   - *tensor.Dense: The tensor with its stored shape and dtype.
//   - error: If the file cannot be opened or is not a valid .npy file.
func LoadTensor(path string) (*tensor.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open tensor %s", path)
	}
	defer f.Close()

	t := new(tensor.Dense)
	if err := t.ReadNpy(f); err != nil {
		return nil, errors.Wrapf(err, "read npy %s", path)
	}
	return t, nil
}

// SaveTensor writes t to path in NumPy .npy format.
func SaveTensor(path string, t *tensor.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create tensor %s", path)
	}

	if err := t.WriteNpy(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "write npy %s", path)
	}
	return f.Close()
}

// LoadDirectoryTensors reads every "frame-<n>.npy" file in dir, ordered by frame number.
//
// Arguments:
//   - dir: Directory path containing tensor files.
//
// Returns:
//   - []TensorFile: The decoded tensors ordered by frame.
//   - error: If the directory or any tensor fails to load, or a file name has no frame number.
func LoadDirectoryTensors(dir string) ([]TensorFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []TensorFile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".npy" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		frame, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(entry.Name(), "frame-"), ".npy"))
		if err != nil {
			return nil, errors.Wrapf(err, "parse frame number of %s", entry.Name())
		}

		t, err := LoadTensor(path)
		if err != nil {
			return nil, err
		}
		files = append(files, TensorFile{
			Path:   path,
			Tensor: t,
			Frame:  frame,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Frame < files[j].Frame
	})

	return files, nil
}
