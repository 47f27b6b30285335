package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

var difficulties = map[string]struct{}{
	"easy":         {},
	"basic":        {},
	"intermediate": {},
	"advanced":     {},
}

// newValidator returns a validator that reports JSON field names and knows
// the difficulty enumeration.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		_, ok := difficulties[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
		return ok
	})
	return v
}

// violations collects field violations without duplicates, in the order
// they were found.
type violations struct {
	seen map[string]struct{}
	list []domain.FieldViolation
}

func (vs *violations) add(field, rule string) {
	if field == "" {
		field = "$"
	}
	key := field + "\x00" + rule
	if vs.seen == nil {
		vs.seen = make(map[string]struct{})
	}
	if _, ok := vs.seen[key]; ok {
		return
	}
	vs.seen[key] = struct{}{}
	vs.list = append(vs.list, domain.FieldViolation{Field: field, Rule: rule})
}

func (vs *violations) err(schema domain.SchemaID) error {
	if len(vs.list) == 0 {
		return nil
	}
	return &domain.SchemaValidationError{Schema: schema, Fields: vs.list}
}

// checkRequired walks every required path over the generic parse result.
// Paths are dotted; a "[]" suffix (or a bare "[]" segment) visits every
// array element, and reported names carry the concrete index.
func checkRequired(v any, paths []string, vs *violations) {
	for _, p := range paths {
		walkPath(v, strings.Split(p, "."), "", vs)
	}
}

func walkPath(v any, segs []string, at string, vs *violations) {
	if len(segs) == 0 {
		return
	}
	key, iter := strings.CutSuffix(segs[0], "[]")
	cur, name := v, at
	if key != "" {
		m, ok := v.(map[string]any)
		if !ok {
			vs.add(at, "object")
			return
		}
		name = joinPath(at, key)
		val, ok := m[key]
		if !ok || val == nil {
			vs.add(name, "required")
			return
		}
		cur = val
	}
	if !iter {
		walkPath(cur, segs[1:], name, vs)
		return
	}
	arr, ok := cur.([]any)
	if !ok {
		vs.add(name, "array")
		return
	}
	for i, el := range arr {
		walkPath(el, segs[1:], fmt.Sprintf("%s[%d]", name, i), vs)
	}
}

func joinPath(at, key string) string {
	if at == "" {
		return key
	}
	return at + "." + key
}

// checkExactKeys requires the object at each path to carry exactly the
// listed keys.
func checkExactKeys(v any, exact map[string][]string, vs *violations) {
	paths := make([]string, 0, len(exact))
	for p := range exact {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		obj, ok := lookup(v, p).(map[string]any)
		if !ok {
			continue
		}
		allowed := make(map[string]struct{}, len(exact[p]))
		for _, k := range exact[p] {
			allowed[k] = struct{}{}
		}
		extra := make([]string, 0)
		for k := range obj {
			if _, ok := allowed[k]; !ok {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		for _, k := range extra {
			vs.add(joinPath(p, k), "unexpected")
		}
	}
}

func lookup(v any, path string) any {
	for _, seg := range strings.Split(path, ".") {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[seg]
	}
	return v
}

// decodeInto converts the generic parse result into a typed value. Type
// mismatches are reported as violations on the offending field.
func decodeInto(v any, dst any, vs *violations) bool {
	b, err := json.Marshal(v)
	if err != nil {
		vs.add("$", "encode")
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		var te *json.UnmarshalTypeError
		if errors.As(err, &te) {
			vs.add(te.Field, "type")
			return false
		}
		vs.add("$", "decode")
		return false
	}
	return true
}

// checkStruct runs tag validation and records failures under prefix.
func (p *Pipeline) checkStruct(prefix string, s any, vs *violations) {
	err := p.validate.Struct(s)
	if err == nil {
		return
	}
	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		vs.add(prefix, "invalid")
		return
	}
	for _, fe := range fes {
		_, rel, _ := strings.Cut(fe.Namespace(), ".")
		field := rel
		if prefix != "" {
			field = prefix + "." + rel
		}
		vs.add(field, fe.Tag())
	}
}
