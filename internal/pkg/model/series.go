package model

// Point is a single [x, y] data point of a series.
type Point struct {
	X float64
	Y float64
}

// RawSeries is a named group of runs with their merged measurements, before
// any projection on the x-axis.
//
// Measurements are sorted by timestamp.
type RawSeries struct {
	Name         string
	Measurements []Measurement
	Runs         []RunMeta
}

// DashStyle is the dash pattern of a line.
type DashStyle string

// Supported dash patterns.
const (
	DashSolid    DashStyle = "Solid"
	DashDot      DashStyle = "Dot"
	DashLongDash DashStyle = "LongDash"
)

// Style holds the colour and dash assignment of a series.
//
// When Color is empty, the renderer picks a colour from its own palette using ColorIndex.
type Style struct {
	DashStyle  DashStyle
	Color      string
	ColorIndex int
}

// Series is one renderable line.
//
// Data points are sorted by X. Runs lists the runs merged into this series, and is never empty.
type Series struct {
	Name    string
	Data    []Point
	Visible bool
	Style   Style
	Runs    []RunMeta
}

// Xs returns the x values of the series.
func (s Series) Xs() []float64 {
	xs := make([]float64, 0, len(s.Data))
	for _, p := range s.Data {
		xs = append(xs, p.X)
	}

	return xs
}

// Ys returns the y values of the series.
func (s Series) Ys() []float64 {
	ys := make([]float64, 0, len(s.Data))
	for _, p := range s.Data {
		ys = append(ys, p.Y)
	}

	return ys
}

// AxisType is the kind of x-axis a chart is drawn on.
type AxisType string

// Supported axis types.
const (
	AxisDatetime AxisType = "datetime" // elapsed milliseconds
	AxisLinear   AxisType = "linear"   // step index
)

// AxisTypeFor returns the x-axis type resulting from a step mode.
func AxisTypeFor(mode StepMode) AxisType {
	if mode.IsStep() {
		return AxisLinear
	}

	return AxisDatetime
}
