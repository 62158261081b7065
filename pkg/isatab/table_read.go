package isatab

import (
	"io"
	"strconv"
	"strings"

	"isacore/internal/logging"
	"isacore/pkg/isa"
)

const progressEvery = 1000

// token is a non-empty node or process cell group of one row. Implied tokens
// stand for the process between two adjacent nodes.
type token struct {
	entry    *entry
	implied  bool
	pos      string
	node     string // label and name of a node token
	protocol string
	name     string
	anchor   string // nearest node to the left
	output   string // nearest node to the right
}

func (t token) isNode() bool { return !t.implied && t.entry.Kind == entryNode }

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

// tokenize turns a row into node and process tokens, inserting implied
// process tokens between adjacent nodes.
func (sc *schema) tokenize(cells []string) []token {
	var raw []token
	for _, e := range sc.Entries {
		switch e.Kind {
		case entryNode:
			v := cell(cells, e.Col)
			if v == "" {
				continue
			}
			raw = append(raw, token{entry: e, pos: strconv.Itoa(e.Pos), node: e.Label + "\x00" + v})
		case entryProcess:
			proto, name := cell(cells, e.Col), cell(cells, e.NameCol)
			if proto == "" && name == "" {
				continue
			}
			raw = append(raw, token{entry: e, pos: strconv.Itoa(e.Pos), protocol: proto, name: name})
		}
	}
	out := make([]token, 0, len(raw)+2)
	for i, t := range raw {
		if i > 0 && t.isNode() && raw[i-1].isNode() {
			out = append(out, token{implied: true, pos: "i" + raw[i-1].pos})
		}
		out = append(out, t)
	}
	var last string
	for i := range out {
		if out[i].isNode() {
			last = out[i].node
			continue
		}
		out[i].anchor = last
	}
	last = ""
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].isNode() {
			last = out[i].node
			continue
		}
		out[i].output = last
	}
	return out
}

type procState struct {
	p        *isa.Process
	sig      string
	line     int
	conflict bool
}

type pendingLink struct {
	prev, next *isa.Process
	line       int
}

// tableReader assembles the rows of one study or assay table into the model.
type tableReader struct {
	file  string
	study *isa.Study
	assay *isa.Assay
	res   *resolver
	opts  Options
	is    *issues
	sc    *schema

	pooled   map[string]map[string]map[string]struct{}
	procs    map[string]*procState
	samples  map[string]*isa.Sample
	conflict []pendingLink
}

// ReadStudyTable parses a study table into s. inv supplies the ontology
// sources that Term Source REF cells must name.
func ReadStudyTable(r io.Reader, file string, inv *isa.Investigation, s *isa.Study, opts Options) ([]Issue, error) {
	is := &issues{}
	err := readTable(r, file, newResolver(inv, opts), s, nil, opts, is)
	return is.list, err
}

// ReadAssayTable parses an assay table into a, resolving samples against s.
func ReadAssayTable(r io.Reader, file string, inv *isa.Investigation, s *isa.Study, a *isa.Assay, opts Options) ([]Issue, error) {
	is := &issues{}
	err := readTable(r, file, newResolver(inv, opts), s, a, opts, is)
	return is.list, err
}

func readTable(r io.Reader, file string, res *resolver, s *isa.Study, a *isa.Assay, opts Options, is *issues) error {
	recs, _, err := readRecords(r, file)
	if err != nil {
		return err
	}
	return assembleTable(recs, file, res, s, a, opts, is)
}

func assembleTable(recs []record, file string, res *resolver, s *isa.Study, a *isa.Assay, opts Options, is *issues) error {
	if len(recs) == 0 {
		return &isa.ParseError{File: file, Msg: "table has no header"}
	}
	sc, err := parseHeader(recs[0].Cells, file, recs[0].Line, opts, is)
	if err != nil {
		return err
	}
	tr := &tableReader{
		file:    file,
		study:   s,
		assay:   a,
		res:     res,
		opts:    opts,
		is:      is,
		sc:      sc,
		pooled:  make(map[string]map[string]map[string]struct{}),
		procs:   make(map[string]*procState),
		samples: make(map[string]*isa.Sample),
	}
	rows := recs[1:]
	tokens := make([][]token, len(rows))
	for i, rec := range rows {
		tokens[i] = sc.tokenize(rec.Cells)
		tr.countPooling(tokens[i])
	}
	log := logging.L().With("file", file)
	progress := logging.ProgressEnabled()
	for i, rec := range rows {
		if err := tr.row(tokens[i], rec); err != nil {
			return err
		}
		if progress && (i+1)%progressEvery == 0 {
			log.Info("parsing table", "rows", i+1, "total", len(rows))
		}
	}
	tr.reportLinkConflicts()
	if progress {
		log.Info("parsed table", "rows", len(rows), "processes", len(tr.procs))
	}
	return nil
}

func (tr *tableReader) countPooling(tokens []token) {
	for _, t := range tokens {
		if t.isNode() || t.output == "" {
			continue
		}
		byOut := tr.pooled[t.pos]
		if byOut == nil {
			byOut = make(map[string]map[string]struct{})
			tr.pooled[t.pos] = byOut
		}
		anchors := byOut[t.output]
		if anchors == nil {
			anchors = make(map[string]struct{})
			byOut[t.output] = anchors
		}
		anchors[t.anchor] = struct{}{}
	}
}

func (tr *tableReader) isPooled(t token) bool {
	return len(tr.pooled[t.pos][t.output]) > 1
}

type item struct {
	node isa.Node
	proc *isa.Process
}

func (tr *tableReader) row(tokens []token, rec record) error {
	items := make([]item, 0, len(tokens))
	var prevKey string
	for _, t := range tokens {
		if t.isNode() {
			n, err := tr.node(t.entry, rec)
			if err != nil {
				return err
			}
			items = append(items, item{node: n})
			prevKey = t.node
			continue
		}
		p, key, err := tr.process(t, rec, prevKey)
		if err != nil {
			return err
		}
		items = append(items, item{proc: p})
		prevKey = key
	}

	var lastProc *isa.Process
	for i, it := range items {
		if it.proc != nil {
			if i > 0 && items[i-1].node != nil {
				it.proc.AddInput(items[i-1].node)
			}
			if lastProc != nil && lastProc != it.proc {
				if !isa.LinkProcesses(lastProc, it.proc) {
					tr.conflict = append(tr.conflict, pendingLink{prev: lastProc, next: it.proc, line: rec.Line})
				}
			}
			lastProc = it.proc
			continue
		}
		if i > 0 && items[i-1].proc != nil {
			items[i-1].proc.AddOutput(it.node)
		}
	}
	return nil
}

func (tr *tableReader) reportLinkConflicts() {
	for _, c := range tr.conflict {
		if len(c.prev.Outputs) > 0 {
			continue
		}
		tr.is.add(IssueLinkConflict, tr.file, c.line, 0, "%s already continues with %s, not %s",
			isa.Describe(c.prev), isa.Describe(c.prev.NextProcess), isa.Describe(c.next))
	}
}

// node returns the node of a node entry, creating and qualifying it on first
// sight.
func (tr *tableReader) node(e *entry, rec record) (isa.Node, error) {
	name := cell(rec.Cells, e.Col)
	var n isa.Node
	switch {
	case e.Label == isa.LabelSource:
		src := tr.study.GetSource(name)
		if src == nil {
			src, _ = tr.study.AddSource(isa.NewSource(name))
		}
		n = src
	case e.Label == isa.LabelSample:
		smp, err := tr.sample(name, rec.Line)
		if err != nil {
			return nil, err
		}
		n = smp
	case isa.IsDataFileLabel(e.Label):
		if tr.assay == nil {
			return nil, &isa.ParseError{File: tr.file, Line: rec.Line, Column: e.Col + 1, Msg: e.Label + " column in a study table"}
		}
		d := tr.assay.GetDataFile(isa.DataFileLabel(e.Label), name)
		if d == nil {
			var err error
			if d, err = isa.NewDataFile(name, isa.DataFileLabel(e.Label)); err != nil {
				return nil, err
			}
			tr.assay.AddDataFile(d)
		}
		n = d
	default:
		mt, _ := isa.MaterialTypeForLabel(e.Label)
		var m *isa.Material
		if tr.assay != nil {
			m = tr.assay.GetMaterial(mt, name)
		} else {
			m = tr.study.GetMaterial(mt, name)
		}
		if m == nil {
			var err error
			if m, err = isa.NewMaterial(name, mt); err != nil {
				return nil, err
			}
			if tr.assay != nil {
				tr.assay.AddMaterial(m)
			} else {
				tr.study.AddMaterial(m)
			}
		}
		n = m
	}
	if err := tr.qualifyNode(n, e, rec); err != nil {
		return nil, err
	}
	return n, nil
}

func (tr *tableReader) sample(name string, line int) (*isa.Sample, error) {
	if tr.assay == nil {
		smp := tr.study.GetSample(name)
		if smp == nil {
			smp, _ = tr.study.AddSample(isa.NewSample(name))
		}
		return smp, nil
	}
	smp := tr.study.GetSample(name)
	if smp == nil {
		if !tr.opts.Lenient {
			return nil, &isa.ReferenceError{Kind: isa.RefSample, Name: name, File: tr.file, Line: line}
		}
		if smp = tr.samples[name]; smp == nil {
			smp = isa.NewSample(name)
			tr.samples[name] = smp
		}
	}
	tr.assay.AddSample(smp)
	return smp, nil
}

func (tr *tableReader) categories() *isa.Categories {
	if tr.assay != nil {
		return &tr.assay.Categories
	}
	return &tr.study.Categories
}

func (tr *tableReader) category(name string) *isa.CharacteristicCategory {
	if tr.assay != nil {
		if c := tr.study.GetCharacteristicCategory(name); c != nil {
			return c
		}
	}
	return tr.categories().CharacteristicCategory(name)
}

// value types an attribute cell: a Unit column keeps the value numeric when
// it parses; Term Source REF / Term Accession Number make it an annotation.
func (tr *tableReader) value(g *attrGroup, cells []string, line int) (isa.Value, *isa.OntologyAnnotation, error) {
	raw := cell(cells, g.Col)
	if g.Unit >= 0 {
		u, err := tr.res.annotation(cell(cells, g.Unit), cell(cells, g.UnitTAN), cell(cells, g.UnitTSR), tr.file, line)
		if err != nil {
			return isa.Value{}, nil, err
		}
		return isa.InferValue(raw), tr.categories().UnitCategory(u), nil
	}
	if g.TSR >= 0 || g.TAN >= 0 {
		a, err := tr.res.annotation(raw, cell(cells, g.TAN), cell(cells, g.TSR), tr.file, line)
		if err != nil {
			return isa.Value{}, nil, err
		}
		return isa.AnnotationValue(a), nil, nil
	}
	return isa.InferValue(raw), nil, nil
}

func (tr *tableReader) qualifyNode(n isa.Node, e *entry, rec record) error {
	var ch *isa.Characterized
	switch t := n.(type) {
	case *isa.Source:
		ch = &t.Characterized
	case *isa.Sample:
		ch = &t.Characterized
	case *isa.Material:
		ch = &t.Characterized
	}
	for _, g := range e.Attrs {
		switch g.Kind {
		case attrCharacteristic:
			if ch == nil || ch.GetCharacteristic(g.Name) != nil {
				continue
			}
			v, unit, err := tr.value(g, rec.Cells, rec.Line)
			if err != nil {
				return err
			}
			ch.AddCharacteristic(&isa.Characteristic{Category: tr.category(g.Name), Value: v, Unit: unit})
		case attrFactor:
			smp, ok := n.(*isa.Sample)
			if !ok || smp.GetFactorValue(g.Name) != nil {
				continue
			}
			f, err := tr.res.factor(tr.study, g.Name, tr.file, rec.Line)
			if err != nil {
				return err
			}
			v, unit, err := tr.value(g, rec.Cells, rec.Line)
			if err != nil {
				return err
			}
			smp.AddFactorValue(&isa.FactorValue{Factor: f, Value: v, Unit: unit})
		}
	}
	for _, c := range e.Comments {
		v := cell(rec.Cells, c.Col)
		if _, has := n.GetComment(c.Name); has || v == "" {
			continue
		}
		n.AddComment(c.Name, v)
	}
	return nil
}

// processKey identifies a process across rows. A name identifies it
// outright; otherwise the column, protocol and qualifier values plus the
// preceding vertex do, except that a pooled output node replaces the
// preceding vertex.
func (tr *tableReader) processKey(t token, protocol string, qualifiers, prevKey string) string {
	if t.name != "" {
		return "n\x00" + protocol + "\x00" + t.name
	}
	var b strings.Builder
	b.WriteString("k\x00")
	b.WriteString(t.pos)
	b.WriteByte(0)
	b.WriteString(protocol)
	b.WriteByte(0)
	b.WriteString(qualifiers)
	b.WriteByte(0)
	if tr.isPooled(t) || prevKey == "" {
		b.WriteString("out\x00")
		b.WriteString(t.output)
	} else {
		b.WriteString("in\x00")
		b.WriteString(prevKey)
	}
	return b.String()
}

func (tr *tableReader) qualifierText(e *entry, cells []string) string {
	if e == nil {
		return ""
	}
	parts := []string{cell(cells, e.PerformerCol), cell(cells, e.DateCol), cell(cells, e.ArrayCol)}
	for _, g := range e.Attrs {
		parts = append(parts, g.Name, cell(cells, g.Col), cell(cells, g.Unit), cell(cells, g.TSR), cell(cells, g.TAN))
	}
	return strings.Join(parts, "\x01")
}

func commentText(e *entry, cells []string) string {
	if e == nil {
		return ""
	}
	var parts []string
	for _, c := range e.Comments {
		parts = append(parts, c.Name, cell(cells, c.Col))
	}
	return strings.Join(parts, "\x01")
}

func (tr *tableReader) processes() *[]*isa.Process {
	if tr.assay != nil {
		return &tr.assay.Processes
	}
	return &tr.study.Processes
}

func (tr *tableReader) process(t token, rec record, prevKey string) (*isa.Process, string, error) {
	var (
		protocol *isa.Protocol
		err      error
	)
	switch {
	case t.implied || t.protocol == "":
		protocol = tr.study.SyntheticProtocol()
	default:
		if protocol, err = tr.res.protocol(tr.study, t.protocol, tr.file, rec.Line); err != nil {
			return nil, "", err
		}
	}
	qualifiers := tr.qualifierText(t.entry, rec.Cells)
	key := tr.processKey(t, protocol.Name, qualifiers, prevKey)
	sig := qualifiers + "\x02" + commentText(t.entry, rec.Cells)

	if st, ok := tr.procs[key]; ok {
		if st.sig != sig && !st.conflict {
			st.conflict = true
			tr.is.add(IssueProcessConflict, tr.file, rec.Line, 0, "%s differs from its first occurrence on line %d", isa.Describe(st.p), st.line)
		}
		return st.p, key, nil
	}

	p := isa.NewProcess(protocol)
	if !t.implied {
		e := t.entry
		p.Name, p.NameKind = t.name, e.NameKind
		p.Performer = cell(rec.Cells, e.PerformerCol)
		p.Date = cell(rec.Cells, e.DateCol)
		p.ArrayDesignRef = cell(rec.Cells, e.ArrayCol)
		for _, g := range e.Attrs {
			v, unit, err := tr.value(g, rec.Cells, rec.Line)
			if err != nil {
				return nil, "", err
			}
			if v.IsNone() && unit == nil && protocol.GetParameter(g.Name) == nil {
				continue
			}
			p.AddParameterValue(&isa.ParameterValue{Category: protocol.AddParameter(g.Name), Value: v, Unit: unit})
		}
		for _, c := range e.Comments {
			if v := cell(rec.Cells, c.Col); v != "" {
				p.AddComment(c.Name, v)
			}
		}
	}
	list := tr.processes()
	*list = append(*list, p)
	tr.procs[key] = &procState{p: p, sig: sig, line: rec.Line}
	return p, key, nil
}
