package escuela

// Row geometry defaults of the table views.
const (
	DefaultEstimateSize = 56
	DefaultOverscan     = 10
)

// Virtualizer computes which rows of a long list need rendering for a given
// scroll offset. Sizes are in the same units as the offset.
type Virtualizer struct {
	EstimateSize int // height of one row
	Overscan     int // extra rows rendered on each side of the viewport
}

// NewVirtualizer returns a Virtualizer with the default geometry.
func NewVirtualizer() Virtualizer {
	return Virtualizer{EstimateSize: DefaultEstimateSize, Overscan: DefaultOverscan}
}

// Window is the slice [Start, End) of rows to render, with the space the
// skipped rows would occupy above and below.
type Window struct {
	Start         int
	End           int
	PaddingTop    int
	PaddingBottom int
	TotalSize     int
}

// Len is the number of rows in the window.
func (w Window) Len() int { return w.End - w.Start }

func (v Virtualizer) size() int {
	if v.EstimateSize <= 0 {
		return DefaultEstimateSize
	}
	return v.EstimateSize
}

func (v Virtualizer) overscan() int {
	if v.Overscan < 0 {
		return 0
	}
	return v.Overscan
}

// TotalSize is the scrollable height of count rows.
func (v Virtualizer) TotalSize(count int) int {
	if count <= 0 {
		return 0
	}
	return count * v.size()
}

// RowOffset is the offset at which row i starts.
func (v Virtualizer) RowOffset(i int) int { return i * v.size() }

// ClampOffset keeps offset inside the scrollable range. An offset that is
// still valid is returned unchanged, so growing the list never moves the view.
func (v Virtualizer) ClampOffset(count, offset, viewport int) int {
	max := v.TotalSize(count) - viewport
	if max < 0 {
		max = 0
	}
	switch {
	case offset < 0:
		return 0
	case offset > max:
		return max
	default:
		return offset
	}
}

// Window returns the rows to render for count rows scrolled to offset within
// a viewport of the given height.
func (v Virtualizer) Window(count, offset, viewport int) Window {
	if count <= 0 {
		return Window{}
	}
	size := v.size()
	total := v.TotalSize(count)
	offset = v.ClampOffset(count, offset, viewport)

	first := offset / size
	last := first
	if viewport > 0 {
		last = (offset + viewport - 1) / size
	}
	if last >= count {
		last = count - 1
	}
	start := first - v.overscan()
	if start < 0 {
		start = 0
	}
	end := last + 1 + v.overscan()
	if end > count {
		end = count
	}
	return Window{
		Start:         start,
		End:           end,
		PaddingTop:    start * size,
		PaddingBottom: total - end*size,
		TotalSize:     total,
	}
}

// Branch selects what a table body shows.
type Branch int

const (
	BranchRows Branch = iota
	BranchLoading
	BranchEmpty
)

func (b Branch) String() string {
	switch b {
	case BranchLoading:
		return "loading"
	case BranchEmpty:
		return "empty"
	default:
		return "rows"
	}
}

// SelectBranch picks the loading indicator while loading, the empty message
// for a settled empty list, and the rows otherwise.
func SelectBranch(loading bool, count int) Branch {
	switch {
	case loading:
		return BranchLoading
	case count == 0:
		return BranchEmpty
	default:
		return BranchRows
	}
}
