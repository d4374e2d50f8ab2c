package core

import (
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/scene"
)

// StyleFunc picks the point style for a classification.
type StyleFunc func(model.Classification) model.VisualHint

var classStyles = map[model.Classification]model.VisualHint{
	model.ClassPayload:    {Color: model.Color{R: 0.20, G: 0.80, B: 1.00, A: 1}, PixelSize: 6},
	model.ClassRocketBody: {Color: model.Color{R: 1.00, G: 0.55, B: 0.10, A: 1}, PixelSize: 5},
	model.ClassDebris:     {Color: model.Color{R: 0.65, G: 0.65, B: 0.65, A: 1}, PixelSize: 3},
	model.ClassUnknown:    {Color: model.Color{R: 1.00, G: 1.00, B: 1.00, A: 0.8}, PixelSize: 3},
	model.ClassOther:      {Color: model.Color{R: 1.00, G: 0.95, B: 0.40, A: 1}, PixelSize: 4},
}

// DefaultStyle returns the built-in per-class style.
func DefaultStyle(c model.Classification) model.VisualHint {
	if h, ok := classStyles[c]; ok {
		return h
	}
	return classStyles[model.ClassOther]
}

func pointStyle(es model.ElementSet, style StyleFunc) scene.PointStyle {
	h := style(es.Class)
	if es.Hint != nil {
		h = *es.Hint
	}
	return scene.PointStyle{ID: es.ID, Label: es.Name, Color: h.Color, PixelSize: h.PixelSize}
}
