package isatab

import (
	"regexp"
	"strings"

	"isacore/pkg/isa"
)

// Column headers of study and assay tables besides node labels.
const (
	HeaderProtocolREF         = "Protocol REF"
	HeaderCharacteristics     = "Characteristics"
	HeaderFactorValue         = "Factor Value"
	HeaderParameterValue      = "Parameter Value"
	HeaderComment             = "Comment"
	HeaderMaterialType        = "Material Type"
	HeaderLabel               = "Label"
	HeaderUnit                = "Unit"
	HeaderTermSourceREF       = "Term Source REF"
	HeaderTermAccessionNumber = "Term Accession Number"
	HeaderPerformer           = "Performer"
	HeaderDate                = "Date"
	HeaderArrayDesignREF      = "Array Design REF"

	HeaderAssayName              = "Assay Name"
	HeaderHybridizationAssayName = "Hybridization Assay Name"
	HeaderScanName               = "Scan Name"
	HeaderMSAssayName            = "MS Assay Name"
	HeaderDataTransformationName = "Data Transformation Name"
	HeaderNormalizationName      = "Normalization Name"
)

// processNameHeaders maps every process name header to its semantic kind.
var processNameHeaders = map[string]isa.ProcessNameKind{
	HeaderAssayName:              isa.NameAssay,
	HeaderHybridizationAssayName: isa.NameAssay,
	HeaderScanName:               isa.NameAssay,
	HeaderMSAssayName:            isa.NameAssay,
	HeaderDataTransformationName: isa.NameDataTransformation,
	HeaderNormalizationName:      isa.NameNormalization,
}

// protocolTypeHeaders picks the surface header of a process name column
// from the executing protocol's type.
var protocolTypeHeaders = map[string]string{
	"nucleic acid hybridization": HeaderHybridizationAssayName,
	"data collection":            HeaderScanName,
	"mass spectrometry":          HeaderMSAssayName,
	"data transformation":        HeaderDataTransformationName,
	"normalization":              HeaderNormalizationName,
}

// nameHeader returns the header used to write the name of p.
func nameHeader(p *isa.Process) string {
	if h, ok := protocolTypeHeaders[strings.ToLower(p.ExecutesProtocol.TypeTerm())]; ok {
		if processNameHeaders[h] == p.NameKind || p.NameKind == isa.NameNone {
			return h
		}
	}
	switch p.NameKind {
	case isa.NameDataTransformation:
		return HeaderDataTransformationName
	case isa.NameNormalization:
		return HeaderNormalizationName
	default:
		return HeaderAssayName
	}
}

type columnKind int

const (
	colUnknown columnKind = iota
	colNode
	colProtocolREF
	colProcessName
	colCharacteristic
	colMaterialType
	colLabel
	colFactorValue
	colParameterValue
	colArrayDesignREF
	colPerformer
	colDate
	colUnit
	colTermSourceREF
	colTermAccession
	colComment
)

// column is one classified header cell.
type column struct {
	Index    int
	Header   string
	Kind     columnKind
	Name     string // bracketed category, node label or process name kind
	NameKind isa.ProcessNameKind
}

var bracketed = regexp.MustCompile(`^([A-Za-z ]+?)\s*\[(.*)\]$`)

var nodeLabels = map[string]struct{}{
	isa.LabelSource:         {},
	isa.LabelSample:         {},
	isa.LabelExtract:        {},
	isa.LabelLabeledExtract: {},
}

// classify tokenizes a single header cell.
func classify(idx int, header string) column {
	h := strings.Join(strings.Fields(header), " ")
	c := column{Index: idx, Header: header}
	if m := bracketed.FindStringSubmatch(h); m != nil {
		c.Name = strings.TrimSpace(m[2])
		switch m[1] {
		case HeaderCharacteristics:
			c.Kind = colCharacteristic
		case HeaderFactorValue:
			c.Kind = colFactorValue
		case HeaderParameterValue:
			c.Kind = colParameterValue
		case HeaderComment:
			c.Kind = colComment
		}
		return c
	}
	if _, ok := nodeLabels[h]; ok {
		c.Kind, c.Name = colNode, h
		return c
	}
	if isa.IsDataFileLabel(h) {
		c.Kind, c.Name = colNode, h
		return c
	}
	if kind, ok := processNameHeaders[h]; ok {
		c.Kind, c.Name, c.NameKind = colProcessName, h, kind
		return c
	}
	switch h {
	case HeaderProtocolREF:
		c.Kind = colProtocolREF
	case HeaderMaterialType:
		c.Kind, c.Name = colMaterialType, HeaderMaterialType
	case HeaderLabel:
		c.Kind, c.Name = colLabel, HeaderLabel
	case HeaderUnit:
		c.Kind = colUnit
	case HeaderTermSourceREF:
		c.Kind = colTermSourceREF
	case HeaderTermAccessionNumber:
		c.Kind = colTermAccession
	case HeaderPerformer:
		c.Kind = colPerformer
	case HeaderDate:
		c.Kind = colDate
	case HeaderArrayDesignREF:
		c.Kind = colArrayDesignREF
	}
	return c
}

type attrKind int

const (
	attrCharacteristic attrKind = iota
	attrFactor
	attrParameter
)

// attrGroup is an attribute head column with its qualifiers. Column indices
// are -1 when absent.
type attrGroup struct {
	Kind    attrKind
	Name    string
	Col     int
	Unit    int
	UnitTSR int
	UnitTAN int
	TSR     int
	TAN     int
}

func newAttrGroup(kind attrKind, name string, col int) *attrGroup {
	return &attrGroup{Kind: kind, Name: name, Col: col, Unit: -1, UnitTSR: -1, UnitTAN: -1, TSR: -1, TAN: -1}
}

type commentCol struct {
	Name string
	Col  int
}

type entryKind int

const (
	entryNode entryKind = iota
	entryProcess
)

// entry is a node or process group of the header: a head column with its
// attribute, qualifier and comment columns.
type entry struct {
	Kind  entryKind
	Pos   int
	Label string // node label; "" for processes

	Col          int // node name column or Protocol REF column; -1 when absent
	NameCol      int // process name column; -1 when absent
	NameKind     isa.ProcessNameKind
	PerformerCol int
	DateCol      int
	ArrayCol     int

	Attrs    []*attrGroup
	Comments []commentCol
}

// schema is the grouped header of a study or assay table.
type schema struct {
	File    string
	Width   int
	Entries []*entry
}

// parseHeader groups header cells into node and process entries. Unknown
// columns are reported and skipped; attribute columns preceding any node are
// a parse error.
func parseHeader(header []string, file string, line int, opts Options, is *issues) (*schema, error) {
	sc := &schema{File: file, Width: len(header)}
	var (
		cur  *entry
		attr *attrGroup
		// qualifiers after a Unit column belong to the unit
		inUnit bool
	)
	fail := func(c column, msg string) error {
		return &isa.ParseError{File: file, Line: line, Column: c.Index + 1, Msg: msg}
	}
	unknown := func(c column, why string) {
		is.add(IssueUnknownColumn, file, line, c.Index+1, "%q %s", c.Header, why)
	}
	newEntry := func(kind entryKind) *entry {
		e := &entry{Kind: kind, Pos: len(sc.Entries), Col: -1, NameCol: -1, PerformerCol: -1, DateCol: -1, ArrayCol: -1}
		sc.Entries = append(sc.Entries, e)
		return e
	}

	for i, h := range header {
		c := classify(i, h)
		switch c.Kind {
		case colNode:
			cur = newEntry(entryNode)
			cur.Label, cur.Col = c.Name, i
			attr, inUnit = nil, false

		case colProtocolREF:
			cur = newEntry(entryProcess)
			cur.Col = i
			attr, inUnit = nil, false

		case colProcessName:
			if cur == nil || cur.Kind != entryProcess || cur.NameCol >= 0 {
				cur = newEntry(entryProcess)
			}
			cur.NameCol, cur.NameKind = i, c.NameKind
			attr, inUnit = nil, false

		case colCharacteristic, colMaterialType, colLabel:
			if cur == nil || cur.Kind != entryNode {
				return nil, fail(c, "characteristic column "+c.Header+" does not follow a node column")
			}
			attr, inUnit = newAttrGroup(attrCharacteristic, c.Name, i), false
			cur.Attrs = append(cur.Attrs, attr)

		case colFactorValue:
			if cur == nil || cur.Kind != entryNode {
				return nil, fail(c, "factor value column "+c.Header+" does not follow a node column")
			}
			if cur.Label != isa.LabelSample {
				if !opts.Lenient {
					return nil, fail(c, "factor value column "+c.Header+" follows "+cur.Label+"; factor values are only legal on samples")
				}
				is.add(IssueFactorOnNonSample, file, line, i+1, "%q follows %s", c.Header, cur.Label)
				// detached group swallows the column's qualifiers
				attr, inUnit = newAttrGroup(attrFactor, c.Name, i), false
				continue
			}
			attr, inUnit = newAttrGroup(attrFactor, c.Name, i), false
			cur.Attrs = append(cur.Attrs, attr)

		case colParameterValue:
			if cur == nil || cur.Kind != entryProcess {
				return nil, fail(c, "parameter column "+c.Header+" does not follow a process column")
			}
			attr, inUnit = newAttrGroup(attrParameter, c.Name, i), false
			cur.Attrs = append(cur.Attrs, attr)

		case colArrayDesignREF, colPerformer, colDate:
			if cur == nil || cur.Kind != entryProcess {
				return nil, fail(c, c.Header+" column does not follow a process column")
			}
			switch c.Kind {
			case colArrayDesignREF:
				cur.ArrayCol = i
			case colPerformer:
				cur.PerformerCol = i
			default:
				cur.DateCol = i
			}
			attr, inUnit = nil, false

		case colUnit:
			if attr == nil || attr.Unit >= 0 || attr.TSR >= 0 {
				unknown(c, "does not qualify an attribute column")
				continue
			}
			attr.Unit, inUnit = i, true

		case colTermSourceREF, colTermAccession:
			if attr == nil {
				unknown(c, "does not qualify an attribute column")
				continue
			}
			slot := &attr.TSR
			if c.Kind == colTermAccession {
				slot = &attr.TAN
			}
			if inUnit {
				slot = &attr.UnitTSR
				if c.Kind == colTermAccession {
					slot = &attr.UnitTAN
				}
			}
			if *slot >= 0 {
				unknown(c, "repeats a qualifier")
				continue
			}
			*slot = i

		case colComment:
			if cur == nil {
				unknown(c, "precedes any node or process column")
				continue
			}
			cur.Comments = append(cur.Comments, commentCol{Name: c.Name, Col: i})
			attr, inUnit = nil, false

		default:
			unknown(c, "is not a recognised column")
			attr, inUnit = nil, false
		}
	}
	if len(sc.Entries) == 0 {
		return nil, &isa.ParseError{File: file, Line: line, Msg: "table has no node or process columns"}
	}
	return sc, nil
}
