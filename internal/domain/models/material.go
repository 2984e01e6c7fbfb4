package models

import (
	"fmt"
	"strings"
)

// Material identifies one input of the product bill of materials.
type Material string

const (
	MaterialST37            Material = "st37"
	MaterialCopper          Material = "copper"
	MaterialAlu             Material = "alu"
	MaterialLabour          Material = "labour"
	MaterialHighCarbon      Material = "high_carbon"
	MaterialGreyCastIron    Material = "grey_cast_iron"
	MaterialNodularCastIron Material = "nodular_cast_iron"
	MaterialNonalloyCast    Material = "nonalloy_cast"
	MaterialMediumCarbon    Material = "medium_carbon"
)

// HorizonParam is the query name of the forecast horizon.
const HorizonParam = "months"

// MaterialSpec describes how a material is requested and forecast.
type MaterialSpec struct {
	Material Material
	// Key is the internal field name; it differs from the query name for labour.
	Key       string
	Model     string
	Dataset   string
	SpotParam string // empty when the material takes no spot price
	Unit      string
	Label     string
}

// SpotPriceKey returns the internal key of the material's spot price.
func (s MaterialSpec) SpotPriceKey() string {
	return "p_" + s.Key
}

// AcceptsSpotPrice reports whether a spot price can be supplied.
func (s MaterialSpec) AcceptsSpotPrice() bool {
	return s.SpotParam != ""
}

// Catalog order is the order in which requests are checked and reported.
var catalog = []MaterialSpec{
	{Material: MaterialST37, Key: "st37", Model: "st37", Dataset: "st37", SpotParam: "p_st37", Unit: "KG", Label: "ST37"},
	{Material: MaterialCopper, Key: "copper", Model: "higher_copper", Dataset: "copper", Unit: "KG", Label: "Copper"},
	{Material: MaterialAlu, Key: "alu", Model: "Aluminum_prophet", Dataset: "aluminum", Unit: "KG", Label: "Alu"},
	{Material: MaterialLabour, Key: "labour_hours", Model: "labor_cost", Dataset: "labor_cost", Unit: "hours", Label: "Labor"},
	{Material: MaterialHighCarbon, Key: "high_carbon", Model: "high_carbon", Dataset: "high_carbon", SpotParam: "p_high_carbon", Unit: "KG", Label: "High Carbon"},
	{Material: MaterialGreyCastIron, Key: "grey_cast_iron", Model: "grey_cast_iron", Dataset: "grey_cast_iron", SpotParam: "p_grey_cast_iron", Unit: "KG", Label: "Grey Cast Iron"},
	{Material: MaterialNodularCastIron, Key: "nodular_cast_iron", Model: "nodular_cast_iron", Dataset: "nodular_cast_iron", SpotParam: "p_nodular_cast_iron", Unit: "KG", Label: "Nodular Cast Iron"},
	{Material: MaterialNonalloyCast, Key: "nonalloy_cast", Model: "nonalloy_cast", Dataset: "nonalloy_cast", SpotParam: "p_nonalloy_cast", Unit: "KG", Label: "Nonalloy Cast"},
	{Material: MaterialMediumCarbon, Key: "medium_carbon", Model: "medium_carbon", Dataset: "medium_carbon", SpotParam: "p_medium_carbon", Unit: "KG", Label: "Medium Carbon"},
}

// Catalog returns every known material in catalog order.
func Catalog() []MaterialSpec {
	out := make([]MaterialSpec, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the catalog entry for m.
func Lookup(m Material) (MaterialSpec, bool) {
	for _, s := range catalog {
		if s.Material == m {
			return s, true
		}
	}
	return MaterialSpec{}, false
}

// ParseMaterial accepts a query name or an internal key.
func ParseMaterial(s string) (Material, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, spec := range catalog {
		if string(spec.Material) == s || spec.Key == s {
			return spec.Material, nil
		}
	}
	return "", fmt.Errorf("unknown material %q", s)
}

// Describe returns the parameter help map served by the help endpoint.
func Describe() map[string]string {
	out := make(map[string]string, 2*len(catalog)+1)
	for _, s := range catalog {
		if s.Material == MaterialLabour {
			out[string(s.Material)] = "Labor hours"
		} else {
			out[string(s.Material)] = fmt.Sprintf("Weight of %s in %s", s.Label, s.Unit)
		}
		if s.AcceptsSpotPrice() {
			out[s.SpotParam] = fmt.Sprintf("Spot price of %s", s.Label)
		}
	}
	out[HorizonParam] = "Forecasting period in months (default is 24 months if argument not provided)"
	return out
}
