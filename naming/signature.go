package naming

import (
	"strings"

	"github.com/broady/classgen/ir"
)

// Param is a named, typed parameter of a target method.
type Param struct {
	Name string
	Type *ir.Type
}

// Signature is the target-level signature of a method.
type Signature struct {
	// Name is the mapped target name.
	Name string

	Params []Param
	Return *ir.Type

	// Descriptor is the erased JVM-style descriptor "(params)return".
	// It is computed for every target and used to compare signatures.
	Descriptor string

	Static bool
}

// Key identifies the signature by name and erased parameter types.
func (s Signature) Key() string {
	params := s.Descriptor
	if i := strings.IndexByte(params, ')'); i >= 0 {
		params = params[:i+1]
	}
	return s.Name + params
}

// ParamTypes returns the parameter types in order.
func (s Signature) ParamTypes() []*ir.Type {
	types := make([]*ir.Type, len(s.Params))
	for i, p := range s.Params {
		types[i] = p.Type
	}
	return types
}

// Method builds a signature with a computed descriptor.
func (m *Mapper) Method(name string, params []Param, ret *ir.Type, static bool) Signature {
	if ret == nil {
		ret = ir.Unit()
	}
	s := Signature{Name: name, Params: params, Return: ret, Static: static}
	s.Descriptor = m.MethodDescriptor(s.ParamTypes(), ret)
	return s
}

// FunctionSignature returns the signature of f.
func (m *Mapper) FunctionSignature(f *ir.Function) Signature {
	params := make([]Param, len(f.Params))
	for i, p := range f.Params {
		params[i] = Param{Name: m.Identifier(p.Name), Type: p.Type}
	}
	return m.Method(m.FunctionName(f), params, f.Return, false)
}

// GetterSignature returns the signature of p's getter.
func (m *Mapper) GetterSignature(p *ir.Property) Signature {
	return m.Method(m.GetterName(p), nil, p.Type, false)
}

// SetterSignature returns the signature of p's setter.
func (m *Mapper) SetterSignature(p *ir.Property) Signature {
	return m.Method(m.SetterName(p), []Param{{Name: "value", Type: p.Type}}, ir.Unit(), false)
}

// SourceKey identifies a function by source name and erased parameter
// types, independent of overload suffixes.
func (m *Mapper) SourceKey(name string, params []*ir.Type) string {
	return name + strings.TrimSuffix(m.MethodDescriptor(params, ir.Unit()), "V")
}
