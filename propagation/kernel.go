package propagation

import (
	"fmt"
	"math"
	"reflect"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// kernelTerms mirrors the secular terms go-satellite derives in sgp4init.
// The library runs each propagation on a copy of the Satellite and drops
// the runtime error code it sets, so the adapter re-evaluates the same
// mean-element checks itself from these terms.
type kernelTerms struct {
	deep   bool // method "d"
	simple bool // isimp == 1

	no, ecco, bstar, mo, mdot float64
	cc1, cc4, cc5             float64
	d2, d3, d4                float64
	eta, delmo, xmcof, omgcof float64
	sinmao, dedt              float64

	mu, radius float64 // km^3/s^2, km

	// epoch is jdsatepoch as an instant. The library drops the fractional
	// second of the element epoch, and tsince is measured from here.
	epoch time.Time
}

var termFields = []string{
	"no", "ecco", "bstar", "mo", "mdot", "cc1", "cc4", "cc5", "d2", "d3", "d4",
	"eta", "delmo", "xmcof", "omgcof", "sinmao", "dedt", "isimp", "jdsatepoch",
}

// readKernelTerms copies the unexported terms out of an initialised
// Satellite. It fails rather than guesses if the library's layout changes.
func readKernelTerms(sat *satellite.Satellite) (kernelTerms, error) {
	v := reflect.ValueOf(sat).Elem()
	f := make(map[string]float64, len(termFields))
	for _, name := range termFields {
		fv := v.FieldByName(name)
		if !fv.IsValid() || fv.Kind() != reflect.Float64 {
			return kernelTerms{}, fmt.Errorf("go-satellite field %q unavailable", name)
		}
		f[name] = fv.Float()
	}
	method := v.FieldByName("method")
	grav := v.FieldByName("whichconst")
	if !method.IsValid() || method.Kind() != reflect.String || !grav.IsValid() {
		return kernelTerms{}, fmt.Errorf("go-satellite model fields unavailable")
	}
	mu, radius := grav.FieldByName("mu"), grav.FieldByName("radiusearthkm")
	if !mu.IsValid() || !radius.IsValid() {
		return kernelTerms{}, fmt.Errorf("go-satellite gravity fields unavailable")
	}

	return kernelTerms{
		deep:   method.String() == "d",
		simple: f["isimp"] == 1,
		no:     f["no"], ecco: f["ecco"], bstar: f["bstar"], mo: f["mo"], mdot: f["mdot"],
		cc1: f["cc1"], cc4: f["cc4"], cc5: f["cc5"],
		d2: f["d2"], d3: f["d3"], d4: f["d4"],
		eta: f["eta"], delmo: f["delmo"], xmcof: f["xmcof"], omgcof: f["omgcof"],
		sinmao: f["sinmao"], dedt: f["dedt"],
		mu:     mu.Float(),
		radius: radius.Float(),
		epoch:  julianToTime(f["jdsatepoch"]),
	}, nil
}

// julianToTime converts a Julian date to an instant rounded to the second,
// which is the resolution the library builds jdsatepoch with.
func julianToTime(jd float64) time.Time {
	return time.Unix(int64(math.Round((jd-2440587.5)*86400)), 0).UTC()
}

// meanCheck repeats the kernel's drag update for tsince minutes and
// reports the failure it would have flagged. Deep-space resonance terms
// are not reproduced; their failures surface through the output checks.
func (k *kernelTerms) meanCheck(tsince float64) Kind {
	xmdf := k.mo + k.mdot*tsince
	tempa := 1 - k.cc1*tsince
	tempe := k.bstar * k.cc4 * tsince
	if !k.simple {
		t2 := tsince * tsince
		t3 := t2 * tsince
		t4 := t3 * tsince
		d := 1 + k.eta*math.Cos(xmdf)
		mm := xmdf + k.omgcof*tsince + k.xmcof*(d*d*d-k.delmo)
		tempa -= k.d2*t2 + k.d3*t3 + k.d4*t4
		tempe += k.bstar * k.cc5 * (math.Sin(mm) - k.sinmao)
	}
	em := k.ecco
	if k.deep {
		em += k.dedt * tsince
	}
	em -= tempe
	if em >= 1 || em < -0.001 {
		return KindEccentricity
	}
	if tempa <= 0 {
		return KindDecayed
	}
	// Semi-major axis in Earth radii; newer reference kernels flag < 0.95.
	if am := math.Pow(k.xkeOverNo(), 2.0/3.0) * tempa * tempa; am < 0.95 {
		return KindEccentricity
	}
	return KindNone
}

// xkeOverNo returns xke/no with xke recovered from mu and the radius.
func (k *kernelTerms) xkeOverNo() float64 {
	xke := 60 / math.Sqrt(k.radius*k.radius*k.radius/k.mu)
	return xke / k.no
}

// stateCheck classifies a kernel output. A zero vector is what the
// kernel returns when the semi-latus rectum goes negative; a radius below
// one Earth radius is its decay condition; an unbound osculating orbit
// means the mean elements have left the model's range.
func (k *kernelTerms) stateCheck(pos, vel satellite.Vector3) Kind {
	r := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if r == 0 {
		return KindSemiLatusRectum
	}
	if r < k.radius {
		return KindDecayed
	}
	v2 := vel.X*vel.X + vel.Y*vel.Y + vel.Z*vel.Z
	if v2/2-k.mu/r >= 0 {
		return KindEccentricity
	}
	return KindNone
}
