package domain

import "fmt"

// ObservationSize is the fixed length of every observation vector.
const ObservationSize = 9

const (
	PhaseTypeIndex = 7
	// DTAMBIndex holds the ambient temperature deviation. Some server variants document this slot as
	// the timestep; this client always treats it as DTAMB.
	DTAMBIndex = 8
)

// ObservationFieldNames labels each position: seven engine sensors, the flight phase and DTAMB.
var ObservationFieldNames = [ObservationSize]string{
	"HPC_Tout",
	"HP_Nmech",
	"HPC_Tin",
	"LPT_Tin",
	"Fuel_flow",
	"HPC_Pout_st",
	"LP_Nmech",
	"phase_type",
	"DTAMB",
}

type Observation [ObservationSize]float64

func (o Observation) Sensors() [7]float64 {
	var sensors [7]float64
	copy(sensors[:], o[:7])
	return sensors
}

func (o Observation) PhaseType() float64 {
	return o[PhaseTypeIndex]
}

func (o Observation) AmbientTemperatureDeviation() float64 {
	return o[DTAMBIndex]
}

func (o Observation) Slice() []float64 {
	values := make([]float64, ObservationSize)
	copy(values, o[:])
	return values
}

// Box is a continuous observation space with a fixed shape.
type Box struct {
	Shape []int
}

var ObservationSpace = Box{Shape: []int{ObservationSize}}

func (b Box) String() string {
	return fmt.Sprintf("Box(shape=%v)", b.Shape)
}
