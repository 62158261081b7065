package isatab

import (
	"io"
	"strconv"

	"isacore/pkg/graph"
	"isacore/pkg/isa"
)

// attrLayout is the column group written for one characteristic, factor or
// parameter name.
type attrLayout struct {
	name string
	head string
	unit bool
	// unitRef is set once any unit names a term source or accession.
	unitRef bool
	ann     bool
}

func (l *attrLayout) observe(v isa.Value, unit *isa.OntologyAnnotation) {
	if unit != nil {
		l.unit = true
		l.unitRef = l.unitRef || unit.SourceName() != "" || unit.TermAccession != ""
	}
	if v.Kind() == isa.ValueAnnotation {
		l.ann = true
	}
}

func (l *attrLayout) headers() []string {
	switch {
	case l.unit && (l.unitRef || l.ann):
		return []string{l.head, HeaderUnit, HeaderTermSourceREF, HeaderTermAccessionNumber}
	case l.unit:
		return []string{l.head, HeaderUnit}
	case l.ann:
		return []string{l.head, HeaderTermSourceREF, HeaderTermAccessionNumber}
	default:
		return []string{l.head}
	}
}

func (l *attrLayout) cells(v isa.Value, unit *isa.OntologyAnnotation) []string {
	switch {
	case l.unit && (l.unitRef || l.ann):
		return []string{v.Text(), isa.TermOf(unit), unit.SourceName(), isa.AccessionOf(unit)}
	case l.unit:
		return []string{v.Text(), isa.TermOf(unit)}
	case l.ann:
		if a, ok := v.Annotation(); ok {
			return []string{a.Term, a.SourceName(), a.TermAccession}
		}
		return []string{v.Text(), "", ""}
	default:
		return []string{v.Text()}
	}
}

func (l *attrLayout) empty() []string { return make([]string, len(l.headers())) }

// attrSet keeps attribute layouts in first-seen order.
type attrSet struct {
	list  []*attrLayout
	index map[string]*attrLayout
}

func (s *attrSet) get(name, head string) *attrLayout {
	if s.index == nil {
		s.index = make(map[string]*attrLayout)
	}
	if l, ok := s.index[name]; ok {
		return l
	}
	l := &attrLayout{name: name, head: head}
	s.index[name] = l
	s.list = append(s.list, l)
	return l
}

type nameSet struct {
	list []string
	seen map[string]struct{}
}

func (s *nameSet) add(name string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.list = append(s.list, name)
}

func characteristicHeader(name string) string {
	if name == HeaderMaterialType || name == HeaderLabel {
		return name
	}
	return HeaderCharacteristics + "[" + name + "]"
}

func characteristicsOf(n isa.Node) []*isa.Characteristic {
	switch t := n.(type) {
	case *isa.Source:
		return t.Characteristics
	case *isa.Sample:
		return t.Characteristics
	case *isa.Material:
		return t.Characteristics
	}
	return nil
}

func characteristicOf(n isa.Node, name string) *isa.Characteristic {
	for _, c := range characteristicsOf(n) {
		if c.Category.Name() == name {
			return c
		}
	}
	return nil
}

// slot is one node or process column group of a written table.
type slot struct {
	key   string
	label string
	proc  bool

	nameOnly bool
	chars    attrSet
	factors  attrSet
	params   attrSet
	comments nameSet

	protocolCol bool
	performer   bool
	date        bool
	array       bool
	nameHead    string
}

func (s *slot) observeNode(n isa.Node, withFactors bool) {
	if s.nameOnly {
		return
	}
	for _, c := range characteristicsOf(n) {
		s.chars.get(c.Category.Name(), characteristicHeader(c.Category.Name())).observe(c.Value, c.Unit)
	}
	if smp, ok := n.(*isa.Sample); ok && withFactors {
		for _, fv := range smp.FactorValues {
			name := ""
			if fv.Factor != nil {
				name = fv.Factor.Name
			}
			s.factors.get(name, HeaderFactorValue+"["+name+"]").observe(fv.Value, fv.Unit)
		}
	}
	for _, name := range n.CommentNames() {
		s.comments.add(name)
	}
}

// bare reports whether a synthetic process carries nothing a Protocol REF
// column would be needed for.
func bare(p *isa.Process) bool {
	return len(p.ParameterValues) == 0 && p.Performer == "" && p.Date == "" && p.ArrayDesignRef == "" && len(p.Comments) == 0
}

func (s *slot) observeProcess(p *isa.Process) {
	if !p.IsImplied() || !bare(p) {
		s.protocolCol = true
	}
	for _, pv := range p.ParameterValues {
		name := pv.Category.ParameterName()
		s.params.get(name, HeaderParameterValue+"["+name+"]").observe(pv.Value, pv.Unit)
	}
	s.performer = s.performer || p.Performer != ""
	s.date = s.date || p.Date != ""
	s.array = s.array || p.ArrayDesignRef != ""
	if p.Name != "" && s.nameHead == "" {
		s.nameHead = nameHeader(p)
	}
	for _, name := range p.CommentNames() {
		s.comments.add(name)
	}
}

func commentCells(a isa.Annotated, names []string) []string {
	out := make([]string, len(names))
	if a == nil {
		return out
	}
	for i, name := range names {
		if c, ok := a.GetComment(name); ok {
			out[i] = c.Value
		}
	}
	return out
}

func (s *slot) headers() []string {
	var h []string
	if !s.proc {
		h = append(h, s.label)
		for _, l := range s.chars.list {
			h = append(h, l.headers()...)
		}
		for _, l := range s.factors.list {
			h = append(h, l.headers()...)
		}
	} else {
		if s.protocolCol {
			h = append(h, HeaderProtocolREF)
		}
		for _, l := range s.params.list {
			h = append(h, l.headers()...)
		}
		if s.performer {
			h = append(h, HeaderPerformer)
		}
		if s.date {
			h = append(h, HeaderDate)
		}
		if s.nameHead != "" {
			h = append(h, s.nameHead)
		}
		if s.array {
			h = append(h, HeaderArrayDesignREF)
		}
	}
	for _, name := range s.comments.list {
		h = append(h, commentHeader(name))
	}
	return h
}

func (s *slot) nodeCells(n isa.Node) []string {
	var out []string
	if n == nil {
		return make([]string, len(s.headers()))
	}
	out = append(out, n.NodeName())
	for _, l := range s.chars.list {
		if c := characteristicOf(n, l.name); c != nil {
			out = append(out, l.cells(c.Value, c.Unit)...)
		} else {
			out = append(out, l.empty()...)
		}
	}
	smp, _ := n.(*isa.Sample)
	for _, l := range s.factors.list {
		var fv *isa.FactorValue
		if smp != nil {
			fv = smp.GetFactorValue(l.name)
		}
		if fv != nil {
			out = append(out, l.cells(fv.Value, fv.Unit)...)
		} else {
			out = append(out, l.empty()...)
		}
	}
	return append(out, commentCells(n, s.comments.list)...)
}

func (s *slot) processCells(p *isa.Process) []string {
	if p == nil {
		return make([]string, len(s.headers()))
	}
	var out []string
	if s.protocolCol {
		switch {
		case !p.IsImplied():
			out = append(out, p.ProtocolName())
		case bare(p):
			out = append(out, "")
		default:
			out = append(out, isa.UnknownProtocolName)
		}
	}
	for _, l := range s.params.list {
		if pv := p.GetParameterValue(l.name); pv != nil {
			out = append(out, l.cells(pv.Value, pv.Unit)...)
		} else {
			out = append(out, l.empty()...)
		}
	}
	if s.performer {
		out = append(out, p.Performer)
	}
	if s.date {
		out = append(out, p.Date)
	}
	if s.nameHead != "" {
		out = append(out, p.Name)
	}
	if s.array {
		out = append(out, p.ArrayDesignRef)
	}
	return append(out, commentCells(p, s.comments.list)...)
}

// tableLayout maps every path vertex to a slot. Node slots are keyed by label
// and occurrence along the path; process slots by the node slot they follow
// and their position after it.
type tableLayout struct {
	slots map[string]*slot
	order []string
	rows  []map[string]graph.Vertex
}

func layoutTable(g *graph.Graph, assay bool) *tableLayout {
	t := &tableLayout{slots: make(map[string]*slot)}
	var seqs [][]string
	for _, path := range g.Paths() {
		row := make(map[string]graph.Vertex, len(path))
		seq := make([]string, 0, len(path))
		seen := make(map[string]int)
		prevNode, sinceNode := "", 0
		for _, v := range path {
			var key string
			if v.IsProcess() {
				sinceNode++
				key = "proc\x00" + prevNode + "\x00" + strconv.Itoa(sinceNode)
			} else {
				label := v.Node.Label()
				seen[label]++
				key = label + "#" + strconv.Itoa(seen[label])
				prevNode, sinceNode = key, 0
			}
			sl := t.slots[key]
			if sl == nil {
				sl = &slot{key: key, proc: v.IsProcess()}
				if !sl.proc {
					sl.label = v.Node.Label()
					sl.nameOnly = assay && v.Node.NodeKind() == isa.KindSample
				}
				t.slots[key] = sl
			}
			if sl.proc {
				sl.observeProcess(v.Process)
			} else {
				sl.observeNode(v.Node, !assay)
			}
			row[key] = v
			seq = append(seq, key)
		}
		t.rows = append(t.rows, row)
		seqs = append(seqs, seq)
	}
	t.order = mergeOrder(seqs)
	return t
}

// mergeOrder merges per-row slot sequences into one column order that keeps
// every row's order, breaking ties by first appearance.
func mergeOrder(seqs [][]string) []string {
	first := make(map[string]int)
	var keys []string
	succ := make(map[string]map[string]struct{})
	indeg := make(map[string]int)
	for _, seq := range seqs {
		for i, k := range seq {
			if _, ok := first[k]; !ok {
				first[k] = len(keys)
				keys = append(keys, k)
			}
			if i == 0 {
				continue
			}
			prev := seq[i-1]
			if succ[prev] == nil {
				succ[prev] = make(map[string]struct{})
			}
			if _, ok := succ[prev][k]; !ok {
				succ[prev][k] = struct{}{}
				indeg[k]++
			}
		}
	}
	out := make([]string, 0, len(keys))
	done := make(map[string]bool, len(keys))
	for len(out) < len(keys) {
		pick := ""
		for _, k := range keys {
			if !done[k] && indeg[k] == 0 {
				pick = k
				break
			}
		}
		if pick == "" {
			// conflicting row orders; fall back to first appearance
			for _, k := range keys {
				if !done[k] {
					pick = k
					break
				}
			}
		}
		done[pick] = true
		out = append(out, pick)
		for next := range succ[pick] {
			indeg[next]--
		}
	}
	return out
}

// Table is the cell grid of a study or assay table.
type Table struct {
	Header []string
	Rows   [][]string
}

func (t *tableLayout) table(fallback []string) *Table {
	out := &Table{}
	for _, key := range t.order {
		out.Header = append(out.Header, t.slots[key].headers()...)
	}
	if len(out.Header) == 0 {
		out.Header = fallback
	}
	for _, row := range t.rows {
		var cells []string
		for _, key := range t.order {
			sl := t.slots[key]
			v, ok := row[key]
			switch {
			case sl.proc && ok:
				cells = append(cells, sl.processCells(v.Process)...)
			case sl.proc:
				cells = append(cells, sl.processCells(nil)...)
			case ok:
				cells = append(cells, sl.nodeCells(v.Node)...)
			default:
				cells = append(cells, sl.nodeCells(nil)...)
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

func (t *Table) write(w io.Writer, opts WriteOptions) error {
	rw := newRecordWriter(w, opts.Quote)
	if err := rw.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := rw.Write(row); err != nil {
			return err
		}
	}
	return rw.Flush()
}

// StudyTable lays out the study table of s without writing it.
func StudyTable(s *isa.Study) *Table {
	return layoutTable(graph.StudyGraph(s), false).table([]string{isa.LabelSource, isa.LabelSample})
}

// AssayTable lays out the assay table of a without writing it.
func AssayTable(a *isa.Assay) *Table {
	return layoutTable(graph.AssayGraph(a), true).table([]string{isa.LabelSample})
}

// WriteStudyTable writes the study table of s: one row per source-to-sink
// path of the study graph.
func WriteStudyTable(w io.Writer, s *isa.Study, opts WriteOptions) error {
	s.PruneSyntheticProtocols()
	return StudyTable(s).write(w, opts)
}

// WriteAssayTable writes the assay table of a: one row per path from an
// assay sample to a sink.
func WriteAssayTable(w io.Writer, a *isa.Assay, opts WriteOptions) error {
	return AssayTable(a).write(w, opts)
}
