package silam

import (
	"fmt"
	"math"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/pollen-api/internal/adapter/grid"
)

// Variable names in SILAM NCSS responses.
const (
	RotatedLatVar = "rlat"
	RotatedLonVar = "rlon"
	IndexVar      = "POLI"
	SourceVar     = "POLISRC"
)

// Fields holds the decoded contents of a SILAM pollen NetCDF file.
type Fields struct {
	LatAxis []float32
	LonAxis []float32
	Index   *grid.Cube
	Source  *grid.Cube
}

// DecodeFile reads the rotated axes and the two (time, rlat, rlon) pollen fields
// from a NetCDF file. Packed values are unpacked with scale_factor/add_offset and
// fill values become NaN.
func DecodeFile(path string) (*Fields, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	lats, _, err := readVar(nc, RotatedLatVar, 1)
	if err != nil {
		return nil, err
	}
	lons, _, err := readVar(nc, RotatedLonVar, 1)
	if err != nil {
		return nil, err
	}

	index, err := readCube(nc, IndexVar, len(lats), len(lons))
	if err != nil {
		return nil, err
	}
	source, err := readCube(nc, SourceVar, len(lats), len(lons))
	if err != nil {
		return nil, err
	}
	if index.Times != source.Times {
		return nil, &DecodeError{
			Field:  SourceVar,
			Reason: fmt.Sprintf("has %d time steps, %s has %d", source.Times, IndexVar, index.Times),
		}
	}

	return &Fields{LatAxis: lats, LonAxis: lons, Index: index, Source: source}, nil
}

// readCube reads a 3-D variable laid out as (time, rlat, rlon).
func readCube(nc netcdf.Dataset, name string, nLat, nLon int) (*grid.Cube, error) {
	values, shape, err := readVar(nc, name, 3)
	if err != nil {
		return nil, err
	}
	if shape[1] != nLat || shape[2] != nLon {
		return nil, &DecodeError{
			Field: name,
			Reason: fmt.Sprintf("dimension mismatch: data is [%d, %d, %d], expected [time, %d, %d]",
				shape[0], shape[1], shape[2], nLat, nLon),
		}
	}
	return &grid.Cube{Times: shape[0], Lats: nLat, Lons: nLon, Values: values}, nil
}

// readVar reads a whole variable as float32 and checks its dimensionality.
func readVar(nc netcdf.Dataset, name string, wantDims int) ([]float32, []int, error) {
	v, err := nc.Var(name)
	if err != nil {
		return nil, nil, &DecodeError{Field: name, Reason: "variable missing"}
	}

	dims, err := v.Dims()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	if len(dims) != wantDims {
		return nil, nil, &DecodeError{Field: name, Reason: fmt.Sprintf("expected %dD variable, got %dD", wantDims, len(dims))}
	}

	shape := make([]int, len(dims))
	total := 1
	for i, d := range dims {
		n, err := d.Len()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get dim%d length of %s: %w", i, name, err)
		}
		shape[i] = int(n)
		total *= int(n)
	}
	if total == 0 {
		return nil, nil, &DecodeError{Field: name, Reason: "variable is empty"}
	}

	varType, err := v.Type()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get variable type of %s: %w", name, err)
	}

	raw := make([]float64, total)
	switch varType {
	case netcdf.FLOAT:
		tmp := make([]float32, total)
		if err := v.ReadFloat32s(tmp); err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		for i, val := range tmp {
			raw[i] = float64(val)
		}
	case netcdf.DOUBLE:
		if err := v.ReadFloat64s(raw); err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	case netcdf.INT:
		tmp := make([]int32, total)
		if err := v.ReadInt32s(tmp); err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		for i, val := range tmp {
			raw[i] = float64(val)
		}
	case netcdf.SHORT:
		tmp := make([]int16, total)
		if err := v.ReadInt16s(tmp); err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		for i, val := range tmp {
			raw[i] = float64(val)
		}
	default:
		return nil, nil, &DecodeError{Field: name, Reason: fmt.Sprintf("unsupported data type %v", varType)}
	}

	fill, hasFill := numericAttr(v, "_FillValue", "missing_value")
	scale, hasScale := numericAttr(v, "scale_factor")
	offset, _ := numericAttr(v, "add_offset")
	if !hasScale || scale == 0 {
		scale = 1
	}

	out := make([]float32, total)
	for i, val := range raw {
		if hasFill && val == fill {
			out[i] = float32(math.NaN())
			continue
		}
		out[i] = float32(val*scale + offset)
	}
	return out, shape, nil
}

// numericAttr returns the first of the named attributes present on v as float64.
func numericAttr(v netcdf.Var, names ...string) (float64, bool) {
	for _, name := range names {
		a := v.Attr(name)
		if n, err := a.Len(); err != nil || n == 0 {
			continue
		}
		buf64 := make([]float64, 1)
		if err := a.ReadFloat64s(buf64); err == nil {
			return buf64[0], true
		}
		buf32 := make([]float32, 1)
		if err := a.ReadFloat32s(buf32); err == nil {
			return float64(buf32[0]), true
		}
		bufi := make([]int32, 1)
		if err := a.ReadInt32s(bufi); err == nil {
			return float64(bufi[0]), true
		}
		bufs := make([]int16, 1)
		if err := a.ReadInt16s(bufs); err == nil {
			return float64(bufs[0]), true
		}
	}
	return 0, false
}
