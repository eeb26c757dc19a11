package job

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is one rendered T-SQL parameter value.
type Value interface {
	SQL() string
}

// String renders as an N'' literal.
type String string

func (s String) SQL() string {
	return "N'" + strings.ReplaceAll(string(s), "'", "''") + "'"
}

// Int renders bare.
type Int int64

func (i Int) SQL() string {
	return strconv.FormatInt(int64(i), 10)
}

// Raw renders verbatim; used for NULL and for values already written as T-SQL literals.
type Raw string

func (r Raw) SQL() string {
	return string(r)
}

// Param is a named procedure argument.
type Param struct {
	Key   string
	Value Value
}

// Params is an ordered parameter list. Rendering follows insertion order,
// which keeps generated scripts byte-identical across runs.
type Params struct {
	items []Param
}

// NewParams builds a list in the given order.
func NewParams(pairs ...Param) Params {
	var p Params
	for _, kv := range pairs {
		p.Set(kv.Key, kv.Value)
	}
	return p
}

// Set replaces the value of key in place, or appends it.
func (p *Params) Set(key string, v Value) {
	for i := range p.items {
		if p.items[i].Key == key {
			p.items[i].Value = v
			return
		}
	}
	p.items = append(p.items, Param{Key: key, Value: v})
}

func (p Params) Get(key string) (Value, bool) {
	for _, kv := range p.items {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

func (p Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

func (p Params) Len() int {
	return len(p.items)
}

// Items returns a copy of the parameters in order.
func (p Params) Items() []Param {
	return append([]Param(nil), p.items...)
}

// Clone returns an independent copy.
func (p Params) Clone() Params {
	return Params{items: p.Items()}
}

// Validator checks or transforms the value of one key.
type Validator struct {
	Key string
	Fn  func(Value) (Value, error)
}

// BuildExec renders an EXEC statement for executable. Keys missing from
// params are filled from defaults (in the defaults' order), then every
// validator whose key is present runs in order.
func BuildExec(executable string, params, defaults Params, validators []Validator) (string, error) {
	p := params.Clone()
	for _, kv := range defaults.items {
		if !p.Has(kv.Key) {
			p.Set(kv.Key, kv.Value)
		}
	}

	for _, v := range validators {
		val, ok := p.Get(v.Key)
		if !ok {
			continue
		}
		out, err := v.Fn(val)
		if err != nil {
			return "", fmt.Errorf("%s @%s: %w", executable, v.Key, err)
		}
		p.Set(v.Key, out)
	}

	var b strings.Builder
	b.WriteString("EXEC ")
	b.WriteString(executable)
	delim := "\n"
	for _, kv := range p.items {
		fmt.Fprintf(&b, "%s\t@%s = %s", delim, kv.Key, kv.Value.SQL())
		delim = ",\n"
	}
	b.WriteString(";\n\n")
	return b.String(), nil
}
