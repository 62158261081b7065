package isa

// ProcessNameKind is the semantic kind of a process name column.
type ProcessNameKind string

// Process name kinds. Hybridization Assay Name, Scan Name and MS Assay Name
// normalise to NameAssay.
const (
	NameNone               ProcessNameKind = ""
	NameAssay              ProcessNameKind = "Assay Name"
	NameDataTransformation ProcessNameKind = "Data Transformation Name"
	NameNormalization      ProcessNameKind = "Normalization Name"
)

// Process is one application of a Protocol to inputs producing outputs.
type Process struct {
	Commentable
	Name             string
	NameKind         ProcessNameKind
	ExecutesProtocol *Protocol
	Date             string
	Performer        string
	ArrayDesignRef   string
	ParameterValues  []*ParameterValue
	Inputs           []Node
	Outputs          []Node
	PreviousProcess  *Process
	NextProcess      *Process
}

// NewProcess returns a process executing protocol.
func NewProcess(protocol *Protocol) *Process {
	return &Process{ExecutesProtocol: protocol}
}

// ProtocolName returns the name of the executed protocol or "".
func (p *Process) ProtocolName() string {
	if p.ExecutesProtocol == nil {
		return ""
	}
	return p.ExecutesProtocol.Name
}

// IsImplied reports whether the process executes the synthetic protocol.
func (p *Process) IsImplied() bool {
	return p.ExecutesProtocol.IsSynthetic()
}

// AddInput appends n to the inputs once.
func (p *Process) AddInput(n Node) {
	if !containsNode(p.Inputs, n) {
		p.Inputs = append(p.Inputs, n)
	}
}

// AddOutput appends n to the outputs once.
func (p *Process) AddOutput(n Node) {
	if !containsNode(p.Outputs, n) {
		p.Outputs = append(p.Outputs, n)
	}
}

// GetParameterValue returns the value of the named parameter.
func (p *Process) GetParameterValue(name string) *ParameterValue {
	for _, pv := range p.ParameterValues {
		if pv.Category.ParameterName() == name {
			return pv
		}
	}
	return nil
}

// AddParameterValue appends a parameter value.
func (p *Process) AddParameterValue(pv *ParameterValue) {
	p.ParameterValues = append(p.ParameterValues, pv)
}

// LinkProcesses sets prev.NextProcess = next and next.PreviousProcess = prev.
// Links already pointing elsewhere are kept; the result reports whether both
// links now agree with the request.
func LinkProcesses(prev, next *Process) bool {
	ok := true
	if prev.NextProcess == nil {
		prev.NextProcess = next
	} else if prev.NextProcess != next {
		ok = false
	}
	if next.PreviousProcess == nil {
		next.PreviousProcess = prev
	} else if next.PreviousProcess != prev {
		ok = false
	}
	return ok
}

func containsNode(list []Node, n Node) bool {
	for _, existing := range list {
		if existing == n {
			return true
		}
	}
	return false
}
