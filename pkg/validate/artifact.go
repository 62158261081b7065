package validate

import (
	"fmt"

	"isacore/pkg/isa"
	"isacore/pkg/isatab"
)

// Form is the on-disk form an artifact was read from.
type Form int

// Artifact forms.
const (
	FormTabular Form = iota
	FormDocument
)

func (f Form) String() string {
	if f == FormDocument {
		return "document"
	}
	return "tabular"
}

// Artifact is a parsed investigation together with what the parser noticed
// on the way. Rules only read it.
type Artifact struct {
	// Name is the directory or document name used in locations.
	Name          string
	Form          Form
	Investigation *isa.Investigation
	Issues        []isatab.Issue
	// Headers are the table header rows as read, keyed by file name. Nil
	// for documents and for investigations built in memory.
	Headers       map[string][]string
	Configs       *ConfigSet
}

func (a *Artifact) investigationLoc() Location {
	if a.Form == FormDocument {
		return Location{File: a.Name}
	}
	return Location{File: a.Investigation.Filename}
}

// studyLoc points at the investigation-file fields of study si.
func (a *Artifact) studyLoc(si int) Location {
	if a.Form == FormDocument {
		return Location{File: a.Name, Pointer: fmt.Sprintf("/studies/%d", si)}
	}
	return Location{File: a.Investigation.Filename}
}

// tableLoc points at the table of study si, or of its assay ai when ai >= 0.
func (a *Artifact) tableLoc(si, ai int) Location {
	s := a.Investigation.Studies[si]
	if a.Form == FormDocument {
		if ai < 0 {
			return Location{File: a.Name, Pointer: fmt.Sprintf("/studies/%d", si)}
		}
		return Location{File: a.Name, Pointer: fmt.Sprintf("/studies/%d/assays/%d", si, ai)}
	}
	if ai < 0 {
		return Location{File: s.Filename}
	}
	return Location{File: s.Assays[ai].Filename}
}

// cellLoc points at a cell of a table grid. Rows and columns are 0-based
// grid indices; the header occupies file row 1.
func (a *Artifact) cellLoc(si, ai, row, col int) Location {
	loc := a.tableLoc(si, ai)
	if a.Form == FormDocument {
		return loc
	}
	loc.Row = row + 2
	loc.Column = col + 1
	return loc
}

// readHeader returns the header row of table si/ai as it was read, or nil.
func (a *Artifact) readHeader(si, ai int) []string {
	if a.Form != FormTabular || a.Headers == nil {
		return nil
	}
	return a.Headers[a.tableLoc(si, ai).File]
}

// headerLoc points at the header row of a table.
func (a *Artifact) headerLoc(si, ai int) Location {
	loc := a.tableLoc(si, ai)
	if a.Form == FormTabular {
		loc.Row = 1
	}
	return loc
}

// nodeLoc points at the definition of n: its entry in a material list of
// the document, or its table in the tabular form.
func (a *Artifact) nodeLoc(si, ai int, n isa.Node) Location {
	loc := a.tableLoc(si, ai)
	if a.Form == FormTabular {
		return loc
	}
	s := a.Investigation.Studies[si]
	base := fmt.Sprintf("/studies/%d", si)
	switch t := n.(type) {
	case *isa.Source:
		if i := indexOf(s.Sources, t); i >= 0 {
			loc.Pointer = fmt.Sprintf("%s/materials/sources/%d", base, i)
		}
	case *isa.Sample:
		if i := indexOf(s.Samples, t); i >= 0 {
			loc.Pointer = fmt.Sprintf("%s/materials/samples/%d", base, i)
		}
	case *isa.Material:
		if i := indexOf(s.OtherMaterials, t); i >= 0 {
			loc.Pointer = fmt.Sprintf("%s/materials/otherMaterials/%d", base, i)
		} else if ai >= 0 {
			if i := indexOf(s.Assays[ai].OtherMaterials, t); i >= 0 {
				loc.Pointer = fmt.Sprintf("%s/assays/%d/materials/otherMaterials/%d", base, ai, i)
			}
		}
	case *isa.DataFile:
		if ai >= 0 {
			if i := indexOf(s.Assays[ai].DataFiles, t); i >= 0 {
				loc.Pointer = fmt.Sprintf("%s/assays/%d/dataFiles/%d", base, ai, i)
			}
		}
	}
	return loc
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

// registered reports whether src is the ontology source the investigation
// declares under its name. Lenient parsers hand out unregistered stand-ins.
func registered(inv *isa.Investigation, src *isa.OntologySource) bool {
	return src == nil || inv.GetOntologySource(src.Name) == src
}

// annotationSite says where an annotation was met: investigation fields
// (declarations) or attribute values of a table.
type annotationSite struct {
	study int // -1 for investigation-level fields
	assay int // -1 unless inside an assay table
	value bool
}

// eachAnnotation visits every ontology annotation reachable from inv.
func eachAnnotation(inv *isa.Investigation, fn func(site annotationSite, ann *isa.OntologyAnnotation)) {
	visit := func(site annotationSite, list ...*isa.OntologyAnnotation) {
		for _, ann := range list {
			if ann != nil {
				fn(site, ann)
			}
		}
	}
	people := func(site annotationSite, list []*isa.Person) {
		for _, p := range list {
			visit(site, p.Roles...)
		}
	}
	pubs := func(site annotationSite, list []*isa.Publication) {
		for _, p := range list {
			visit(site, p.Status)
		}
	}
	categories := func(site annotationSite, c *isa.Categories) {
		for _, cat := range c.CharacteristicCategories {
			visit(site, cat.Type)
		}
		visit(site, c.UnitCategories...)
	}
	value := func(site annotationSite, v isa.Value, unit *isa.OntologyAnnotation) {
		if ann, ok := v.Annotation(); ok {
			visit(site, ann)
		}
		visit(site, unit)
	}
	characteristics := func(site annotationSite, list []*isa.Characteristic) {
		for _, c := range list {
			if c.Category != nil {
				visit(site, c.Category.Type)
			}
			value(site, c.Value, c.Unit)
		}
	}
	processes := func(site annotationSite, list []*isa.Process) {
		for _, p := range list {
			for _, pv := range p.ParameterValues {
				value(site, pv.Value, pv.Unit)
			}
		}
	}
	materials := func(site annotationSite, list []*isa.Material) {
		for _, m := range list {
			characteristics(site, m.Characteristics)
		}
	}

	top := annotationSite{study: -1, assay: -1}
	people(top, inv.Contacts)
	pubs(top, inv.Publications)
	for si, s := range inv.Studies {
		decl := annotationSite{study: si, assay: -1}
		visit(decl, s.DesignDescriptors...)
		people(decl, s.Contacts)
		pubs(decl, s.Publications)
		for _, f := range s.Factors {
			visit(decl, f.FactorType)
		}
		for _, p := range s.Protocols {
			visit(decl, p.ProtocolType)
			for _, param := range p.Parameters {
				visit(decl, param.Name)
			}
			for _, c := range p.Components {
				visit(decl, c.ComponentType)
			}
		}
		for _, a := range s.Assays {
			visit(decl, a.MeasurementType, a.TechnologyType)
		}

		vals := annotationSite{study: si, assay: -1, value: true}
		categories(vals, &s.Categories)
		for _, src := range s.Sources {
			characteristics(vals, src.Characteristics)
		}
		for _, smp := range s.Samples {
			characteristics(vals, smp.Characteristics)
			for _, fv := range smp.FactorValues {
				value(vals, fv.Value, fv.Unit)
			}
		}
		materials(vals, s.OtherMaterials)
		processes(vals, s.Processes)
		for ai, a := range s.Assays {
			av := annotationSite{study: si, assay: ai, value: true}
			categories(av, &a.Categories)
			materials(av, a.OtherMaterials)
			processes(av, a.Processes)
		}
	}
}
