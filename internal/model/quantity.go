package model

// Quantity identifies one output channel of a simulation run.
type Quantity string

const (
	QuantityTankTemp      Quantity = "tank_temp"
	QuantityCollectorTemp Quantity = "collector_temp"
	QuantityAuxEnergy     Quantity = "aux_energy"
	QuantityCollectorGain Quantity = "q_collect"
	QuantityTankLoss      Quantity = "q_loss"
	QuantityLoadDraw      Quantity = "q_load"
	QuantityIrradiance    Quantity = "irradiance"
	QuantityLoadProfile   Quantity = "load_profile"
)

// QuantityInfo holds display name and unit for a quantity.
type QuantityInfo struct {
	Name string
	Unit string
}

// QuantityCatalog maps every known Quantity to its display name and unit.
var QuantityCatalog = map[Quantity]QuantityInfo{
	QuantityTankTemp:      {Name: "Tank Temperature", Unit: "°C"},
	QuantityCollectorTemp: {Name: "Collector Temperature", Unit: "°C"},
	QuantityAuxEnergy:     {Name: "Auxiliary Heating", Unit: "J"},
	QuantityCollectorGain: {Name: "Collector Gain", Unit: "W"},
	QuantityTankLoss:      {Name: "Tank Loss", Unit: "W"},
	QuantityLoadDraw:      {Name: "Load Extraction", Unit: "W"},
	QuantityIrradiance:    {Name: "Irradiance", Unit: "W/m²"},
	QuantityLoadProfile:   {Name: "Water Demand", Unit: "m³/h"},
}

// Label returns "Name, Unit" for axis labels, or the raw quantity when unknown.
func (q Quantity) Label() string {
	info, ok := QuantityCatalog[q]
	if !ok {
		return string(q)
	}
	return info.Name + ", " + info.Unit
}
