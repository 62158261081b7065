package isa

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueInference(t *testing.T) {
	cases := []struct {
		in   string
		kind ValueKind
		text string
	}{
		{"", ValueNone, ""},
		{"70", ValueNumber, "70"},
		{"1.50", ValueNumber, "1.50"},
		{"-3e2", ValueNumber, "-3e2"},
		{"Inf", ValueString, "Inf"},
		{"0x1p3", ValueString, "0x1p3"},
		{"Homo sapiens", ValueString, "Homo sapiens"},
	}
	for _, tc := range cases {
		v := InferValue(tc.in)
		assert.Equal(t, tc.kind, v.Kind(), tc.in)
		assert.Equal(t, tc.text, v.Text(), tc.in)
	}
	n, ok := InferValue("1.50").Number()
	require.True(t, ok)
	assert.Equal(t, 1.5, n)
	assert.True(t, InferValue("1.50").Equal(NumberValue(1.5)))
}

func TestSetValueRejectsWrongKind(t *testing.T) {
	c := &Characteristic{}
	require.NoError(t, c.SetValue(12))
	require.NoError(t, c.SetValue("text"))
	require.NoError(t, c.SetValue(NewOntologyAnnotation("kg", nil, "")))

	err := c.SetValue([]string{"x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttribute))
	var attrErr *AttributeError
	require.True(t, errors.As(err, &attrErr))
	assert.Equal(t, "Characteristic", attrErr.Entity)

	pv := &ParameterValue{}
	assert.ErrorIs(t, pv.SetValue(struct{}{}), ErrAttribute)
	fv := &FactorValue{}
	assert.ErrorIs(t, fv.SetValue(map[string]int{}), ErrAttribute)
}

func TestEnumeratedAttributes(t *testing.T) {
	_, err := NewMaterial("e1", "powder")
	assert.ErrorIs(t, err, ErrAttribute)
	m, err := NewMaterial("e1", MaterialLabeledExtract)
	require.NoError(t, err)
	assert.Equal(t, LabelLabeledExtract, m.Label())
	assert.ErrorIs(t, m.SetType("powder"), ErrAttribute)
	assert.Equal(t, MaterialLabeledExtract, m.Type(), "a rejected type leaves the material unchanged")
	require.NoError(t, m.SetType(MaterialExtract))
	assert.Equal(t, LabelExtract, m.Label())

	_, err = NewDataFile("f.cel", "Random File")
	assert.ErrorIs(t, err, ErrAttribute)
	d, err := NewDataFile("f.cel", ArrayDataFile)
	require.NoError(t, err)
	assert.Equal(t, "Array Data File", d.Label())
	assert.ErrorIs(t, d.SetLabel("Random File"), ErrAttribute)
	assert.Equal(t, ArrayDataFile, d.FileLabel())
}

func TestStudyIdempotentAdds(t *testing.T) {
	s := NewStudy("S1", "s_S1.txt")
	p1, added := s.AddProtocol(NewProtocol("extraction", nil))
	require.True(t, added)
	p2, added := s.AddProtocol(NewProtocol("extraction", NewOntologyAnnotation("other", nil, "")))
	assert.False(t, added)
	assert.Same(t, p1, p2)
	assert.Len(t, s.Protocols, 1)

	src, _ := s.AddSource(NewSource("src1"))
	again, added := s.AddSource(NewSource("src1"))
	assert.False(t, added)
	assert.Same(t, src, again)

	// A sample may share a name with a source.
	_, added = s.AddSample(NewSample("src1"))
	assert.True(t, added)

	f, _ := s.AddFactor(&StudyFactor{Name: "dose"})
	assert.Same(t, f, s.GetFactor("dose"))
	assert.True(t, s.RemoveFactor("dose"))
	assert.False(t, s.RemoveFactor("dose"))
	assert.True(t, s.RemoveProtocol("extraction"))
	assert.Nil(t, s.GetProtocol("extraction"))
}

func TestStudyFilters(t *testing.T) {
	s := NewStudy("S1", "s_S1.txt")
	organism := s.CharacteristicCategory("organism")
	assert.Same(t, organism, s.CharacteristicCategory("organism"))
	dose, _ := s.AddFactor(&StudyFactor{Name: "dose"})

	human := NewOntologyAnnotation("Homo sapiens", nil, "")
	for _, name := range []string{"a", "b", "c"} {
		smp, _ := s.AddSample(NewSample(name))
		val := StringValue("Mus musculus")
		if name != "b" {
			val = AnnotationValue(human)
		}
		smp.AddCharacteristic(&Characteristic{Category: organism, Value: val})
		smp.AddFactorValue(&FactorValue{Factor: dose, Value: NumberValue(float64(len(name)))})
	}

	got := s.SamplesWithCharacteristic("organism", AnnotationValue(NewOntologyAnnotation("Homo sapiens", nil, "")))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "c", got[1].Name)
	assert.Len(t, s.SamplesWithFactorValue("dose", NumberValue(1)), 3)
	assert.Empty(t, s.SamplesWithFactorValue("dose", NumberValue(2)))
}

func TestPruneSyntheticProtocols(t *testing.T) {
	s := NewStudy("S1", "s_S1.txt")
	s.AddProtocol(NewProtocol("sampling", nil))
	synthetic := s.SyntheticProtocol()
	assert.True(t, synthetic.IsSynthetic())
	assert.Same(t, synthetic, s.SyntheticProtocol())

	s.PruneSyntheticProtocols()
	require.Len(t, s.Protocols, 1)
	assert.Equal(t, "sampling", s.Protocols[0].Name)

	used := s.SyntheticProtocol()
	a := NewAssay("a_x.txt", nil, nil)
	a.Processes = append(a.Processes, NewProcess(used))
	s.AddAssay(a)
	s.PruneSyntheticProtocols()
	assert.Len(t, s.Protocols, 2)
}

func TestDeclaredUnknownProtocolIsNotSynthetic(t *testing.T) {
	s := NewStudy("S1", "s_S1.txt")
	declared := NewProtocol(UnknownProtocolName, NewOntologyAnnotation("sample collection", nil, ""))
	s.AddProtocol(declared)
	assert.False(t, declared.IsSynthetic())

	synthetic := s.SyntheticProtocol()
	assert.NotSame(t, declared, synthetic)
	assert.False(t, Equal(declared, synthetic))

	s.PruneSyntheticProtocols()
	assert.Equal(t, []*Protocol{declared}, s.Protocols, "an unused declared protocol is kept")
}

func TestLinkProcessesFirstLinkWins(t *testing.T) {
	a, b, c := NewProcess(nil), NewProcess(nil), NewProcess(nil)
	assert.True(t, LinkProcesses(a, b))
	assert.True(t, LinkProcesses(a, b))
	assert.False(t, LinkProcesses(a, c))
	assert.Same(t, b, a.NextProcess)
	assert.Same(t, a, c.PreviousProcess)
}

func TestComments(t *testing.T) {
	src := NewSource("s")
	src.AddComment("note", "one")
	src.AddComment("other", "x")
	src.AddComment("note", "two")
	c, ok := src.GetComment("note")
	require.True(t, ok)
	assert.Equal(t, "one", c.Value)
	assert.Len(t, src.YieldComments("note"), 2)
	assert.Len(t, src.YieldComments(""), 3)
	assert.Equal(t, []string{"note", "other"}, src.CommentNames())
}

func buildStudy(unit string) *Investigation {
	inv := NewInvestigation("I1")
	uo, _ := inv.AddOntologySource(NewOntologySource("UO", "http://purl.obolibrary.org/obo/uo.owl", "", ""))
	s, _ := inv.AddStudy(NewStudy("S1", "s_S1.txt"))
	mass := s.CharacteristicCategory("mass")
	src, _ := s.AddSource(NewSource("src1"))
	src.AddCharacteristic(&Characteristic{Category: mass, Value: NumberValue(70), Unit: s.UnitCategory(NewOntologyAnnotation(unit, uo, ""))})
	smp, _ := s.AddSample(NewSample("sam1"))
	smp.AddDerivesFrom(src)
	p := NewProcess(s.SyntheticProtocol())
	p.AddInput(src)
	p.AddOutput(smp)
	s.Processes = append(s.Processes, p)
	return inv
}

func TestStructuralEqualityAndHash(t *testing.T) {
	a, b := buildStudy("kg"), buildStudy("kg")
	assert.NotSame(t, a, b)
	assert.True(t, Equal(a, b))
	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	c := buildStudy("g")
	assert.False(t, Equal(a, c))
	hc, err := Hash(c)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)

	b.Studies[0].Sources[0].AddComment("note", "x")
	assert.False(t, Equal(a, b))

	assert.False(t, Equal(a, 42))
	_, err = Hash(42)
	assert.ErrorIs(t, err, ErrAttribute)
}

func TestErrorsMatchSentinels(t *testing.T) {
	pe := &ParseError{File: "s_S1.txt", Line: 3, Column: 2, Msg: "bad cell"}
	assert.ErrorIs(t, pe, ErrParse)
	assert.Equal(t, "parse error: s_S1.txt:3:2: bad cell", pe.Error())

	re := &ReferenceError{Kind: RefFactor, Name: "dose", File: "s_S1.txt", Line: 2}
	assert.ErrorIs(t, re, ErrReference)
	assert.Contains(t, re.Error(), `undeclared factor "dose"`)
}
