package ophthalmic

import (
	"fmt"
	"math"
	"strings"
)

// Range is a closed interval of accepted values.
type Range struct {
	Min float64
	Max float64
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

var (
	SphereRange            = Range{Min: -20, Max: 20}
	CylinderRange          = Range{Min: -10, Max: 10}
	AxisRange              = Range{Min: 0, Max: 180}
	PupillaryDistanceRange = Range{Min: 50, Max: 80}
)

func isNumber(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidateSphere checks a sphere power in diopters.
func ValidateSphere(v float64) bool {
	return isNumber(v) && SphereRange.Contains(v)
}

// ValidateCylinder checks a cylinder power in diopters.
func ValidateCylinder(v float64) bool {
	return isNumber(v) && CylinderRange.Contains(v)
}

// ValidateAxis checks an axis in whole degrees.
func ValidateAxis(v float64) bool {
	return isNumber(v) && v == math.Trunc(v) && AxisRange.Contains(v)
}

// ValidatePupillaryDistance checks a pupillary distance in millimetres.
func ValidatePupillaryDistance(v float64) bool {
	return isNumber(v) && PupillaryDistanceRange.Contains(v)
}

// Exam holds the measurements of both eyes. Nil fields were not measured.
type Exam struct {
	ODSphere            *float64 `json:"odSphere"`
	ODCylinder          *float64 `json:"odCylinder"`
	ODAxis              *float64 `json:"odAxis"`
	ODPupillaryDistance *float64 `json:"odPd"`
	OISphere            *float64 `json:"oiSphere"`
	OICylinder          *float64 `json:"oiCylinder"`
	OIAxis              *float64 `json:"oiAxis"`
	OIPupillaryDistance *float64 `json:"oiPd"`
}

// Field names used as keys of the ValidateExam result.
const (
	FieldODSphere   = "odSphere"
	FieldODCylinder = "odCylinder"
	FieldODAxis     = "odAxis"
	FieldODPD       = "odPd"
	FieldOISphere   = "oiSphere"
	FieldOICylinder = "oiCylinder"
	FieldOIAxis     = "oiAxis"
	FieldOIPD       = "oiPd"
)

type check struct {
	field string
	value *float64
	valid func(float64) bool
	msg   string
}

func rangeMsg(quantity, eye string, r Range) string {
	return fmt.Sprintf("%s %s must be between %g and %g", quantity, eye, r.Min, r.Max)
}

func axisMsg(eye string) string {
	return fmt.Sprintf("Axis %s must be an integer between %g and %g", eye, AxisRange.Min, AxisRange.Max)
}

func (e Exam) checks() []check {
	return []check{
		{FieldODSphere, e.ODSphere, ValidateSphere, rangeMsg("Sphere", "OD", SphereRange)},
		{FieldODCylinder, e.ODCylinder, ValidateCylinder, rangeMsg("Cylinder", "OD", CylinderRange)},
		{FieldODAxis, e.ODAxis, ValidateAxis, axisMsg("OD")},
		{FieldODPD, e.ODPupillaryDistance, ValidatePupillaryDistance, rangeMsg("PD", "OD", PupillaryDistanceRange)},
		{FieldOISphere, e.OISphere, ValidateSphere, rangeMsg("Sphere", "OI", SphereRange)},
		{FieldOICylinder, e.OICylinder, ValidateCylinder, rangeMsg("Cylinder", "OI", CylinderRange)},
		{FieldOIAxis, e.OIAxis, ValidateAxis, axisMsg("OI")},
		{FieldOIPD, e.OIPupillaryDistance, ValidatePupillaryDistance, rangeMsg("PD", "OI", PupillaryDistanceRange)},
	}
}

// ValidateExam returns one message per present field that is out of range.
// An empty map means the exam is valid.
func ValidateExam(e Exam) map[string]string {
	errs := make(map[string]string)

	for _, c := range e.checks() {
		if c.value == nil {
			continue
		}
		if !c.valid(*c.value) {
			errs[c.field] = c.msg
		}
	}

	return errs
}

// Summary joins the messages of a ValidateExam result in field order (OD before OI).
func Summary(errs map[string]string) string {
	var msgs []string
	for _, c := range (Exam{}).checks() {
		if m, ok := errs[c.field]; ok {
			msgs = append(msgs, m)
		}
	}
	return strings.Join(msgs, ", ")
}
