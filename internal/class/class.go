// Package class implements Nebula's class table: field/method/parent
// metadata keyed by qualified name, and depth-first method resolution
// across a class's parent list.
package class

import (
	"fmt"

	"github.com/nebula-lang/nebula/internal/value"
)

// FieldDecl is one declared field of a class, with an optional default
// expression evaluated (in the scope of the constructor call) when that
// call omits it.
type FieldDecl struct {
	Name    string
	Default any // ast.Expression; any to avoid an import cycle with package ast
}

// Record is one class's metadata: its own fields, its parent names
// (resolved in declaration order), its own methods, and the qualified
// names of any classes nested inside it.
type Record struct {
	Name            string
	Fields          []FieldDecl
	Parents         []string
	Methods         map[string]*value.Function
	NestedQualified map[string]string // bare nested name -> qualified name
}

// Table is the registry of all known classes, keyed by qualified name
// ("Outer.Inner" for nested classes).
type Table struct {
	records map[string]*Record
}

// New returns an empty class table.
func New() *Table {
	return &Table{records: map[string]*Record{}}
}

// Declare registers an empty record for qualifiedName, or returns the
// existing one if already present (a method definition `def Class.m(...)`
// on an as-yet-undeclared class creates the class record implicitly).
func (t *Table) Declare(qualifiedName string) *Record {
	if r, ok := t.records[qualifiedName]; ok {
		return r
	}
	r := &Record{
		Name:            qualifiedName,
		Methods:         map[string]*value.Function{},
		NestedQualified: map[string]string{},
	}
	t.records[qualifiedName] = r
	return r
}

// Lookup returns the record for qualifiedName, if any.
func (t *Table) Lookup(qualifiedName string) (*Record, bool) {
	r, ok := t.records[qualifiedName]
	return r, ok
}

// AddMethod binds fn as a method of the named class, declaring the class
// if it doesn't exist yet.
func (t *Table) AddMethod(className, methodName string, fn *value.Function) {
	t.Declare(className).Methods[methodName] = fn
}

// ResolveMethod searches className's own methods, then each parent
// depth-first in declaration order, tracking a visited set so cyclic or
// diamond parent lists are not walked twice. It returns only the method
// and whether one was found, not the class that defines it.
func (t *Table) ResolveMethod(className, methodName string) (*value.Function, bool) {
	visited := map[string]bool{}
	return t.resolveMethod(className, methodName, visited)
}

func (t *Table) resolveMethod(className, methodName string, visited map[string]bool) (*value.Function, bool) {
	if visited[className] {
		return nil, false
	}
	visited[className] = true

	rec, ok := t.records[className]
	if !ok {
		return nil, false
	}
	if fn, ok := rec.Methods[methodName]; ok {
		return fn, true
	}
	for _, parent := range rec.Parents {
		if fn, ok := t.resolveMethod(parent, methodName, visited); ok {
			return fn, true
		}
	}
	return nil, false
}

// ResolveField reports whether fieldName is declared on className or any
// ancestor, returning the FieldDecl that would supply its default.
func (t *Table) ResolveField(className, fieldName string) (FieldDecl, bool) {
	visited := map[string]bool{}
	return t.resolveField(className, fieldName, visited)
}

func (t *Table) resolveField(className, fieldName string, visited map[string]bool) (FieldDecl, bool) {
	if visited[className] {
		return FieldDecl{}, false
	}
	visited[className] = true

	rec, ok := t.records[className]
	if !ok {
		return FieldDecl{}, false
	}
	for _, f := range rec.Fields {
		if f.Name == fieldName {
			return f, true
		}
	}
	for _, parent := range rec.Parents {
		if f, ok := t.resolveField(parent, fieldName, visited); ok {
			return f, true
		}
	}
	return FieldDecl{}, false
}

// AvailableNames returns the union of className's own and inherited field
// and method names, class by class (own, then parents depth-first), with
// duplicates removed by first occurrence. Within a class, fields come in
// declaration order followed by its methods in no defined order. Used to
// build the AttributeError "available names" list.
func (t *Table) AvailableNames(className string) []string {
	visited := map[string]bool{}
	seen := map[string]bool{}
	var names []string
	t.collectNames(className, visited, seen, &names)
	return names
}

func (t *Table) collectNames(className string, visited, seen map[string]bool, names *[]string) {
	if visited[className] {
		return
	}
	visited[className] = true

	rec, ok := t.records[className]
	if !ok {
		return
	}
	for _, f := range rec.Fields {
		if !seen[f.Name] {
			seen[f.Name] = true
			*names = append(*names, f.Name)
		}
	}
	for name := range rec.Methods {
		if !seen[name] {
			seen[name] = true
			*names = append(*names, name)
		}
	}
	for _, parent := range rec.Parents {
		t.collectNames(parent, visited, seen, names)
	}
}

// AllFields returns className's own fields followed by each ancestor's
// fields not already named, depth-first in parent declaration order. Used
// by constructor evaluation to bind positional/keyword arguments and
// evaluate defaults for a full instance, own fields taking precedence over
// a same-named inherited one.
func (t *Table) AllFields(className string) []FieldDecl {
	visited := map[string]bool{}
	seen := map[string]bool{}
	var fields []FieldDecl
	t.collectFields(className, visited, seen, &fields)
	return fields
}

func (t *Table) collectFields(className string, visited, seen map[string]bool, fields *[]FieldDecl) {
	if visited[className] {
		return
	}
	visited[className] = true

	rec, ok := t.records[className]
	if !ok {
		return
	}
	for _, f := range rec.Fields {
		if !seen[f.Name] {
			seen[f.Name] = true
			*fields = append(*fields, f)
		}
	}
	for _, parent := range rec.Parents {
		t.collectFields(parent, visited, seen, fields)
	}
}

// QualifiedName builds the dotted name for a class nested inside an outer
// qualified name ("Outer.Inner"), or returns nested unchanged when outer is
// empty. It only builds the name; recording it in the outer record's
// NestedQualified map is left to the caller.
func QualifiedName(outer, nested string) string {
	if outer == "" {
		return nested
	}
	return fmt.Sprintf("%s.%s", outer, nested)
}
