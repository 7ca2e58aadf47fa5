// Command grid-generator writes a synthetic SILAM pollen forecast for local development.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/pollen-api/internal/adapter/store/silam"
)

const fillValue float32 = -999

// RotatedGrid defines the rotated-pole extent and resolution
type RotatedGrid struct {
	RLatMin    float64
	RLatMax    float64
	RLonMin    float64
	RLonMax    float64
	Resolution float64 // degrees
}

func (g RotatedGrid) axis(lo, hi float64) []float32 {
	n := int((hi-lo)/g.Resolution) + 1
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(lo + float64(i)*g.Resolution)
	}
	return out
}

func main() {
	out := flag.String("out", "./data/silam/pollen.nc", "Output NetCDF file")
	hours := flag.Int("hours", silam.MinTimeSteps, "Number of hourly time steps")
	rlatMin := flag.Float64("rlat-min", -40.0, "Minimum rotated latitude")
	rlatMax := flag.Float64("rlat-max", 25.0, "Maximum rotated latitude")
	rlonMin := flag.Float64("rlon-min", -30.0, "Minimum rotated longitude")
	rlonMax := flag.Float64("rlon-max", 40.0, "Maximum rotated longitude")
	resolution := flag.Float64("resolution", 0.5, "Grid resolution in degrees")
	flag.Parse()

	if *hours < silam.MinTimeSteps {
		log.Fatalf("At least %d hours are required, got %d", silam.MinTimeSteps, *hours)
	}
	if *resolution <= 0 {
		log.Fatalf("Resolution must be positive")
	}

	grid := RotatedGrid{
		RLatMin:    *rlatMin,
		RLatMax:    *rlatMax,
		RLonMin:    *rlonMin,
		RLonMax:    *rlonMax,
		Resolution: *resolution,
	}
	rlat := grid.axis(grid.RLatMin, grid.RLatMax)
	rlon := grid.axis(grid.RLonMin, grid.RLonMax)

	log.Printf("Generating synthetic SILAM forecast: %d hours, %d × %d grid", *hours, len(rlat), len(rlon))

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	start, _ := silam.RequestWindow(time.Now())
	index, source := synthesize(*hours, rlat, rlon)
	if err := writeNetCDF(*out, start, *hours, rlat, rlon, index, source); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	sizeMB := float64(len(index)*4*2) / 1024 / 1024
	log.Printf("Wrote %s (~%.1f MB)", *out, sizeMB)
	log.Printf("Run the server with SILAM_URL=file://%s", mustAbs(*out))
}

// synthesize builds smooth pollen plumes with a daily cycle. The outermost ring
// of cells is left as fill to exercise missing-data handling.
func synthesize(hours int, rlat, rlon []float32) (index, source []float32) {
	nLat, nLon := len(rlat), len(rlon)
	index = make([]float32, hours*nLat*nLon)
	source = make([]float32, hours*nLat*nLon)

	for t := 0; t < hours; t++ {
		diurnal := 0.5 + 0.5*math.Sin(2*math.Pi*float64(t%24-6)/24)
		for i := 0; i < nLat; i++ {
			for j := 0; j < nLon; j++ {
				idx := (t*nLat+i)*nLon + j
				if i == 0 || j == 0 || i == nLat-1 || j == nLon-1 {
					index[idx] = fillValue
					source[idx] = fillValue
					continue
				}

				lat, lon := float64(rlat[i]), float64(rlon[j])
				plume := math.Exp(-(lat*lat + (lon-5)*(lon-5)) / 400)
				index[idx] = float32(1 + 4.9*plume*diurnal)

				// Dominant species in latitude bands: southern olive/ragweed, northern birch/alder.
				band := int(math.Floor((lat - float64(rlat[0])) / 10))
				source[idx] = float32(6 - band%6)
			}
		}
	}
	return index, source
}

// writeNetCDF writes a file shaped like a SILAM NCSS response
func writeNetCDF(path string, start time.Time, hours int, rlat, rlon, index, source []float32) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	timeDim, err := ds.AddDim("time", uint64(hours))
	if err != nil {
		return err
	}
	latDim, err := ds.AddDim(silam.RotatedLatVar, uint64(len(rlat)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim(silam.RotatedLonVar, uint64(len(rlon)))
	if err != nil {
		return err
	}

	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	units := "hours since " + start.UTC().Format("2006-01-02 15:04:05")
	if err := timeVar.Attr("units").WriteBytes([]byte(units)); err != nil {
		return err
	}
	latVar, err := ds.AddVar(silam.RotatedLatVar, netcdf.FLOAT, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar(silam.RotatedLonVar, netcdf.FLOAT, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}

	dims := []netcdf.Dim{timeDim, latDim, lonDim}
	indexVar, err := ds.AddVar(silam.IndexVar, netcdf.FLOAT, dims)
	if err != nil {
		return err
	}
	sourceVar, err := ds.AddVar(silam.SourceVar, netcdf.FLOAT, dims)
	if err != nil {
		return err
	}
	for _, v := range []netcdf.Var{indexVar, sourceVar} {
		if err := v.Attr("_FillValue").WriteFloat32s([]float32{fillValue}); err != nil {
			return err
		}
	}

	if err := ds.EndDef(); err != nil {
		return err
	}

	steps := make([]float64, hours)
	for i := range steps {
		steps[i] = float64(i)
	}
	if err := timeVar.WriteFloat64s(steps); err != nil {
		return err
	}
	if err := latVar.WriteFloat32s(rlat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat32s(rlon); err != nil {
		return err
	}
	if err := indexVar.WriteFloat32s(index); err != nil {
		return err
	}
	return sourceVar.WriteFloat32s(source)
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
