package ports

import "dataprobe/domain/dataset"

// DatasetReader turns uploaded bytes into a typed Dataset. Input that is not
// tabular must fail with a DataFormatError.
type DatasetReader interface {
	Read(name string, data []byte) (*dataset.Dataset, error)
}
