package fault

// Code identifies the limit violation that tripped a drive.
type Code string

const (
	// None is the code of an untripped ledger.
	None         Code = ""
	UnderVoltage Code = "UnderVoltage"
	OverVoltage  Code = "OverVoltage"
	OverCurrent  Code = "OverCurrent"
	OverTemp     Code = "OverTemp"
	GroundFault  Code = "GroundFault"
	PhaseLoss    Code = "PhaseLoss"
)

// codeIndex gives each code a stable numeric value for flat snapshots.
var codeIndex = map[Code]int{
	None:         0,
	UnderVoltage: 1,
	OverVoltage:  2,
	OverCurrent:  3,
	OverTemp:     4,
	GroundFault:  5,
	PhaseLoss:    6,
}

// Index returns the numeric value published for this code, or -1 for an unknown code.
func (c Code) Index() int {
	if i, ok := codeIndex[c]; ok {
		return i
	}
	return -1
}

func (c Code) String() string {
	if c == None {
		return "None"
	}
	return string(c)
}
