// Package projection converts WGS84 coordinates into the native coordinates of
// rotated-pole forecast grids.
package projection

import "math"

// Projector maps a WGS84 longitude/latitude pair (degrees) onto grid coordinates.
type Projector interface {
	Project(lon, lat float32) (x, y float32)
}

// silamOriginLat is the latitude of origin of the SILAM Europe rotated grid.
const silamOriginLat = -60.0

// WGS84 ellipsoid flattening.
const flattening = 1 / 298.257223563

// RotatedPole shifts the latitude of origin of a transverse Mercator projection:
//
//	longlat -> tmerc(lat_0=0, lon_0=0) -> inverse tmerc(lat_0=OriginLat, lon_0=0)
//
// A point on the central meridian at latitude -OriginLat lands on the rotated equator.
// NaN inputs produce NaN outputs.
type RotatedPole struct {
	OriginLat float64 // Degrees.
}

// SILAMEurope returns the projector matching the SILAM Europe pollen grid.
func SILAMEurope() RotatedPole {
	return RotatedPole{OriginLat: silamOriginLat}
}

// Project implements Projector.
func (p RotatedPole) Project(lon, lat float32) (float32, float32) {
	xi, eta := tmForward(deg2rad(float64(lon)), deg2rad(float64(lat)))

	// Moving the origin to OriginLat adds its meridian arc back to the northing.
	xi0, _ := tmForward(0, deg2rad(p.OriginLat))
	rlon, rlat := tmInverse(xi+xi0, eta)

	return float32(rad2deg(rlon)), float32(rad2deg(rlat))
}

// Krüger series coefficients to third order in the third flattening n.
var (
	thirdFlattening = flattening / (2 - flattening)
	eccentricity    = math.Sqrt(flattening * (2 - flattening))

	alpha = [3]float64{
		thirdFlattening/2 - 2*math.Pow(thirdFlattening, 2)/3 + 5*math.Pow(thirdFlattening, 3)/16,
		13*math.Pow(thirdFlattening, 2)/48 - 3*math.Pow(thirdFlattening, 3)/5,
		61 * math.Pow(thirdFlattening, 3) / 240,
	}
	beta = [3]float64{
		thirdFlattening/2 - 2*math.Pow(thirdFlattening, 2)/3 + 37*math.Pow(thirdFlattening, 3)/96,
		math.Pow(thirdFlattening, 2)/48 + math.Pow(thirdFlattening, 3)/15,
		17 * math.Pow(thirdFlattening, 3) / 480,
	}
	delta = [3]float64{
		2*thirdFlattening - 2*math.Pow(thirdFlattening, 2)/3 - 2*math.Pow(thirdFlattening, 3),
		7*math.Pow(thirdFlattening, 2)/3 - 8*math.Pow(thirdFlattening, 3)/5,
		56 * math.Pow(thirdFlattening, 3) / 15,
	}
)

// tmForward returns normalized transverse Mercator coordinates (xi northing, eta easting)
// for a geodetic longitude/latitude in radians. Scale and semi-major axis cancel out
// between forward and inverse, so they are omitted.
func tmForward(lambda, phi float64) (xi, eta float64) {
	sinPhi := math.Sin(phi)
	t := math.Sinh(math.Atanh(sinPhi) - eccentricity*math.Atanh(eccentricity*sinPhi))
	xiP := math.Atan2(t, math.Cos(lambda))
	etaP := math.Atanh(math.Sin(lambda) / math.Sqrt(1+t*t))

	xi, eta = xiP, etaP
	for j, a := range alpha {
		k := 2 * float64(j+1)
		xi += a * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += a * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}
	return xi, eta
}

// tmInverse is the inverse of tmForward.
func tmInverse(xi, eta float64) (lambda, phi float64) {
	xiP, etaP := xi, eta
	for j, b := range beta {
		k := 2 * float64(j+1)
		xiP -= b * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= b * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	lambda = math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	phi = chi
	for j, d := range delta {
		phi += d * math.Sin(2*float64(j+1)*chi)
	}
	return lambda, phi
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func rad2deg(r float64) float64 { return r * 180 / math.Pi }
