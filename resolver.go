package shroud

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register the field declaration tag with sentinel
	sentinel.Tag(TagName)
}

var (
	sensitiveType = reflect.TypeFor[Sensitive]()
	listerType    = reflect.TypeFor[FieldLister]()
)

// FieldDescriptor locates one sensitive string field within a participant type.
type FieldDescriptor struct {
	Name  string // field name, dotted through embedded structs
	Index []int  // reflect.Value.FieldByIndex access path

	ptrIndices []int // positions in Index where a pointer dereference is needed
}

// typePlan is the cached metadata for one type.
type typePlan struct {
	typeName    string
	participant bool
	lister      bool
	fields      []FieldDescriptor
}

var (
	plans   = make(map[reflect.Type]*typePlan)
	plansMu sync.RWMutex
)

// IsParticipant reports whether t carries the Sensitivity Declaration,
// directly or through an embedded type. Pointer types are dereferenced.
func IsParticipant(t reflect.Type) bool {
	if t == nil {
		return false
	}
	t = indirectType(t)
	return t.Implements(sensitiveType) || reflect.PointerTo(t).Implements(sensitiveType)
}

// SensitiveFieldsOf returns the tag-declared sensitive string fields of t in
// declaration order. Non-participants have none. The result is cached per type.
func SensitiveFieldsOf(t reflect.Type) ([]FieldDescriptor, error) {
	if t == nil {
		return nil, nil
	}

	plan, err := planFor(t)
	if err != nil {
		return nil, err
	}

	out := make([]FieldDescriptor, len(plan.fields))
	copy(out, plan.fields)
	return out, nil
}

// Register scans T eagerly and caches its plan, so tag errors surface at
// startup instead of on the first write. Registration is optional.
func Register[T any]() error {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s is not a struct", ErrInvalidTag, rt)
	}

	meta := sentinel.Scan[T]()
	if !describes(meta, rt) {
		var err error
		if meta, err = scanType(rt); err != nil {
			return err
		}
	}

	plan, err := buildPlan(rt, meta)
	if err != nil {
		return err
	}

	plansMu.Lock()
	defer plansMu.Unlock()
	plans[rt] = plan
	return nil
}

// Reset clears the plan cache.
// This is primarily useful for test isolation.
func Reset() {
	plansMu.Lock()
	defer plansMu.Unlock()
	plans = make(map[reflect.Type]*typePlan)
}

// planFor returns a cached plan or builds a new one.
func planFor(t reflect.Type) (*typePlan, error) {
	rt := indirectType(t)

	// Fast path: read-lock cache check
	plansMu.RLock()
	if cached, ok := plans[rt]; ok {
		plansMu.RUnlock()
		return cached, nil
	}
	plansMu.RUnlock()

	// Slow path: build and cache with write-lock
	plansMu.Lock()
	defer plansMu.Unlock()

	// Double-check pattern
	if cached, ok := plans[rt]; ok {
		return cached, nil
	}

	var meta sentinel.Metadata
	if rt.Kind() == reflect.Struct && IsParticipant(rt) {
		var err error
		meta, err = metadataFor(rt)
		if err != nil {
			return nil, err
		}
	}

	plan, err := buildPlan(rt, meta)
	if err != nil {
		return nil, err
	}

	plans[rt] = plan
	return plan, nil
}

// buildPlan creates the plan for rt from its sentinel metadata.
func buildPlan(rt reflect.Type, meta sentinel.Metadata) (*typePlan, error) {
	plan := &typePlan{
		typeName:    rt.String(),
		participant: IsParticipant(rt),
		lister:      rt.Implements(listerType) || reflect.PointerTo(rt).Implements(listerType),
	}

	if !plan.participant || rt.Kind() != reflect.Struct {
		return plan, nil
	}

	seen := map[reflect.Type]bool{rt: true}
	if err := buildFieldsRecursive(plan, rt, meta, nil, nil, "", seen); err != nil {
		return nil, err
	}

	return plan, nil
}

// buildFieldsRecursive collects tagged string fields, descending into
// embedded structs whose fields are promoted into the participant.
func buildFieldsRecursive(plan *typePlan, rt reflect.Type, meta sentinel.Metadata, parentIndex, ptrIndices []int, namePrefix string, seen map[reflect.Type]bool) error {
	for _, field := range meta.Fields {
		fullIndex := append(append([]int{}, parentIndex...), field.Index...)
		fullName := field.Name
		if namePrefix != "" {
			fullName = namePrefix + "." + field.Name
		}

		if sf := rt.FieldByIndex(field.Index); sf.Anonymous {
			embedded, newPtrIndices := field.ReflectType, ptrIndices
			if field.Kind == sentinel.KindPointer {
				embedded = embedded.Elem()
				newPtrIndices = append(append([]int{}, ptrIndices...), len(fullIndex)-1)
			}
			if embedded.Kind() != reflect.Struct || seen[embedded] {
				continue
			}

			nested, err := metadataFor(embedded)
			if err != nil {
				return err
			}
			seen[embedded] = true
			if err := buildFieldsRecursive(plan, embedded, nested, fullIndex, newPtrIndices, fullName, seen); err != nil {
				return err
			}
			continue
		}

		val, ok := field.Tags[TagName]
		if !ok {
			continue
		}
		if val != TagSensitive {
			return newTagError(val, plan.typeName+"."+fullName)
		}

		// Only string fields are transformable
		if field.ReflectType.Kind() != reflect.String {
			continue
		}

		plan.fields = append(plan.fields, FieldDescriptor{
			Name:       fullName,
			Index:      fullIndex,
			ptrIndices: ptrIndices,
		})
	}

	return nil
}

// metadataFor returns sentinel metadata for a struct type, scanning it
// directly when sentinel has not seen it or holds another type of that name.
func metadataFor(rt reflect.Type) (sentinel.Metadata, error) {
	if meta, ok := sentinel.Lookup(rt.Name()); ok && describes(meta, rt) {
		return meta, nil
	}
	return scanType(rt)
}

// describes reports whether meta was built from rt. Sentinel keys its cache
// by bare type name, so same-named types from other packages collide.
func describes(meta sentinel.Metadata, rt reflect.Type) bool {
	if meta.PackageName != rt.PkgPath() || meta.TypeName != rt.Name() {
		return false
	}
	for _, field := range meta.Fields {
		if len(field.Index) == 0 {
			return false
		}
		t := rt
		for i, idx := range field.Index {
			if t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			if t.Kind() != reflect.Struct || idx >= t.NumField() {
				return false
			}
			sf := t.Field(idx)
			if i == len(field.Index)-1 && (sf.Name != field.Name || sf.Type != field.ReflectType) {
				return false
			}
			t = sf.Type
		}
	}
	return true
}

// scanType builds metadata for rt from its struct fields.
func scanType(rt reflect.Type) (sentinel.Metadata, error) {
	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			if _, tagged := sf.Tag.Lookup(TagName); tagged {
				return sentinel.Metadata{}, fmt.Errorf("%w: field %s.%s is unexported", ErrInvalidTag, rt, sf.Name)
			}
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        make(map[string]string),
		}
		if val, ok := sf.Tag.Lookup(TagName); ok {
			fm.Tags[TagName] = val
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		meta.Fields = append(meta.Fields, fm)
	}

	return meta, nil
}

// getField navigates a field path, dereferencing pointers as needed.
func getField(rv reflect.Value, fd FieldDescriptor) (reflect.Value, bool) {
	if len(fd.ptrIndices) == 0 {
		return rv.FieldByIndex(fd.Index), true
	}

	current := rv
	ptrSet := make(map[int]bool, len(fd.ptrIndices))
	for _, idx := range fd.ptrIndices {
		ptrSet[idx] = true
	}

	for i, idx := range fd.Index {
		current = current.Field(idx)

		if ptrSet[i] {
			if current.IsNil() {
				return reflect.Value{}, false
			}
			current = current.Elem()
		}
	}

	return current, true
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
