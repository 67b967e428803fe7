package index

// Matrix is a read-only sparse matrix in CSR layout. Row i holds the
// L2-normalized TF-IDF vector of title-table row i; that alignment is
// fixed at build time and checked again at artifact load.
type Matrix struct {
	rows   int
	cols   int
	rowPtr []int
	colIdx []int
	values []float64
}

// NewMatrix assembles a CSR matrix from raw components (artifact hydration).
func NewMatrix(rows, cols int, rowPtr, colIdx []int, values []float64) Matrix {
	return Matrix{rows: rows, cols: cols, rowPtr: rowPtr, colIdx: colIdx, values: values}
}

// Rows returns the row count.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the column (term dimension) count.
func (m *Matrix) Cols() int { return m.cols }

// NNZ returns the number of stored non-zero entries.
func (m *Matrix) NNZ() int { return len(m.values) }

// Row returns the column indices and values of row i.
// The returned slices alias internal storage and must not be modified.
func (m *Matrix) Row(i int) (cols []int, vals []float64) {
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	return m.colIdx[start:end], m.values[start:end]
}

// DotDense computes the dot product of row i with a dense query vector.
// Rows are L2-normalized at build time, so against a normalized query
// this is the cosine similarity.
func (m *Matrix) DotDense(i int, query []float64) float64 {
	cols, vals := m.Row(i)
	var sum float64
	for k, c := range cols {
		sum += vals[k] * query[c]
	}
	return sum
}

// AddRowInto accumulates weight * row i into the dense accumulator.
func (m *Matrix) AddRowInto(i int, weight float64, acc []float64) {
	cols, vals := m.Row(i)
	for k, c := range cols {
		acc[c] += weight * vals[k]
	}
}

// matrixBuilder accumulates rows during an index build.
type matrixBuilder struct {
	cols   int
	rowPtr []int
	colIdx []int
	values []float64
}

func newMatrixBuilder(cols int) *matrixBuilder {
	return &matrixBuilder{cols: cols, rowPtr: []int{0}}
}

// appendRow adds one row given entries sorted by column index.
func (b *matrixBuilder) appendRow(cols []int, vals []float64) {
	b.colIdx = append(b.colIdx, cols...)
	b.values = append(b.values, vals...)
	b.rowPtr = append(b.rowPtr, len(b.colIdx))
}

func (b *matrixBuilder) build() Matrix {
	return Matrix{
		rows:   len(b.rowPtr) - 1,
		cols:   b.cols,
		rowPtr: b.rowPtr,
		colIdx: b.colIdx,
		values: b.values,
	}
}
