package isajson

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Kind names the entity family an identifier is minted for.
type Kind string

// Identifier kinds.
const (
	KindStudy     Kind = "study"
	KindAssay     Kind = "assay"
	KindProtocol  Kind = "protocol"
	KindParameter Kind = "parameter"
	KindFactor    Kind = "factor"
	KindCategory  Kind = "characteristic_category"
	KindUnit      Kind = "unit"
	KindSource    Kind = "source"
	KindSample    Kind = "sample"
	KindMaterial  Kind = "material"
	KindDataFile  Kind = "data"
	KindProcess   Kind = "process"
)

// IDStrategy mints document identifiers. seq is the 1-based ordinal of the
// entity within its kind in writing order, so strategies stay deterministic
// without holding state. The writer resolves collisions.
type IDStrategy interface {
	ID(kind Kind, name string, seq int) string
}

// CounterIDs numbers entities per kind: "#sample/3".
type CounterIDs struct{}

func (CounterIDs) ID(kind Kind, _ string, seq int) string {
	return "#" + string(kind) + "/" + strconv.Itoa(seq)
}

// UUIDIDs derives name-based (version 5) UUIDs under Namespace, which
// defaults to the URL namespace.
type UUIDIDs struct {
	Namespace uuid.UUID
}

func (u UUIDIDs) ID(kind Kind, name string, seq int) string {
	ns := u.Namespace
	if ns == uuid.Nil {
		ns = uuid.NameSpaceURL
	}
	return "urn:uuid:" + uuid.NewSHA1(ns, []byte(string(kind)+"/"+strconv.Itoa(seq)+"/"+name)).String()
}

// SlugIDs derives identifiers from names: "#sample/liver-biopsy-1".
type SlugIDs struct{}

func (SlugIDs) ID(kind Kind, name string, seq int) string {
	s := Slug(name)
	if s == "" {
		s = strconv.Itoa(seq)
	}
	return "#" + string(kind) + "/" + s
}

// Slug lowercases name and collapses every run of non-alphanumerics into a
// single dash.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// idTable assigns identifiers to entities, keeping them unique.
type idTable struct {
	strategy IDStrategy
	ids      map[any]string
	used     map[string]struct{}
	seq      map[Kind]int
}

func newIDTable(s IDStrategy) *idTable {
	if s == nil {
		s = CounterIDs{}
	}
	return &idTable{
		strategy: s,
		ids:      make(map[any]string),
		used:     make(map[string]struct{}),
		seq:      make(map[Kind]int),
	}
}

func (t *idTable) assign(entity any, kind Kind, name string) string {
	if id, ok := t.ids[entity]; ok {
		return id
	}
	t.seq[kind]++
	id := t.strategy.ID(kind, name, t.seq[kind])
	base := id
	for n := 2; ; n++ {
		if _, taken := t.used[id]; !taken {
			break
		}
		id = base + "-" + strconv.Itoa(n)
	}
	t.used[id] = struct{}{}
	t.ids[entity] = id
	return id
}

func (t *idTable) lookup(entity any) (string, bool) {
	id, ok := t.ids[entity]
	return id, ok
}
