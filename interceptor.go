package shroud

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Params carries the named arguments of a multi-parameter write, such as
// an id alongside the entity being updated. Each top-level value is a
// candidate; a top-level slice or array contributes its elements.
type Params map[string]any

// Interceptor encrypts sensitive fields on their way to storage and decrypts
// them on their way back.
//
// An Interceptor is immutable after New and safe for concurrent use. Each
// call only touches the object graph it is handed.
type Interceptor struct {
	cfg Config
	key SecretKey
}

// slot is a read/write lens on one sensitive string value.
type slot struct {
	name string
	get  func() string
	set  func(string)
}

// pendingWrite is a computed value waiting to be committed.
type pendingWrite struct {
	slot  slot
	value string
}

// New creates an Interceptor for cfg.
//
// When cfg is enabled the key is derived once here and checked against the
// cipher algorithm, so configuration errors (ErrInvalidConfiguration,
// ErrUnsupportedAlgorithm, ErrCipherFailure) surface before any value is touched.
func New(cfg Config) (*Interceptor, error) {
	i := &Interceptor{cfg: cfg}

	if cfg.Enabled {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		key, err := DeriveKey(cfg.Key, cfg.KeyAlgorithm)
		if err != nil {
			return nil, err
		}

		if err := ValidateCipher(key, cfg.CipherAlgorithm); err != nil {
			return nil, err
		}

		i.key = key
	}

	emitInterceptorCreated(context.Background(), cfg.Enabled, cfg.CipherAlgorithm)
	return i, nil
}

// Enabled reports whether the interceptor transforms values.
func (i *Interceptor) Enabled() bool {
	return i.cfg.Enabled
}

// Config returns a copy of the configuration the interceptor was built with.
func (i *Interceptor) Config() Config {
	return i.cfg
}

// BeforeWrite encrypts the sensitive fields of the outgoing parameters in place
// and returns params.
//
// params may be a pointer to an entity, a slice of entities, or a Params (any
// map with string keys) whose values are entities or slices of entities.
// Non-participants are skipped. Values that already carry the marker are left
// alone, so writing a previously loaded entity never encrypts twice.
//
// Every new value is computed before any field is assigned: on error the
// object graph is left exactly as it was passed in.
func (i *Interceptor) BeforeWrite(ctx context.Context, params any) (any, error) {
	if !i.cfg.Enabled || params == nil {
		return params, nil
	}

	typeName := reflect.TypeOf(params).String()
	start := time.Now()
	emitWriteStart(ctx, typeName)

	var objects, encrypted, skipped int
	var retErr error
	defer func() {
		emitWriteComplete(ctx, typeName, time.Since(start), objects, encrypted, skipped, retErr)
	}()

	var writes []pendingWrite
	for _, candidate := range writeCandidates(reflect.ValueOf(params)) {
		slots, ok, err := slotsOf(candidate)
		if err != nil {
			retErr = err
			return nil, retErr
		}
		if !ok {
			continue
		}
		objects++

		for _, s := range slots {
			value := s.get()
			if IsMarked(value) {
				skipped++
				continue
			}

			ciphertext, err := Encrypt(value, i.key, i.cfg.CipherAlgorithm)
			if err != nil {
				retErr = newTransformError(ErrEncrypt, "encrypt", s.name, err)
				return nil, retErr
			}
			writes = append(writes, pendingWrite{slot: s, value: AddMarker(ciphertext)})
		}
	}

	commit(writes)
	encrypted = len(writes)
	return params, nil
}

// AfterRead decrypts the sensitive fields of a read result in place and
// returns the same reference.
//
// results may be a single entity or a slice of entities. For slices the
// participant check is made once against the first element; a homogeneous
// result is assumed. Values without the marker are legacy plaintext and pass
// through unchanged.
//
// As with BeforeWrite, nothing is assigned unless every value decrypts.
func (i *Interceptor) AfterRead(ctx context.Context, results any) (any, error) {
	if !i.cfg.Enabled || results == nil {
		return results, nil
	}

	rv := indirectCollection(unwrap(reflect.ValueOf(results)))
	var items []reflect.Value
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return results, nil
		}
		first := unwrap(rv.Index(0))
		if !first.IsValid() || !IsParticipant(first.Type()) {
			return results, nil
		}
		items = make([]reflect.Value, rv.Len())
		for j := range items {
			items[j] = rv.Index(j)
		}
	default:
		items = []reflect.Value{rv}
	}

	typeName := reflect.TypeOf(results).String()
	start := time.Now()
	emitReadStart(ctx, typeName)

	var objects, decrypted, skipped int
	var retErr error
	defer func() {
		emitReadComplete(ctx, typeName, time.Since(start), objects, decrypted, skipped, retErr)
	}()

	var writes []pendingWrite
	for _, item := range items {
		slots, ok, err := slotsOf(item)
		if err != nil {
			retErr = err
			return nil, retErr
		}
		if !ok {
			continue
		}
		objects++

		for _, s := range slots {
			value := s.get()
			if !IsMarked(value) {
				skipped++
				continue
			}

			ciphertext, err := StripMarker(value)
			if err != nil {
				retErr = newTransformError(ErrDecrypt, "decrypt", s.name, err)
				return nil, retErr
			}

			plaintext, err := Decrypt(ciphertext, i.key, i.cfg.CipherAlgorithm)
			if err != nil {
				retErr = newTransformError(ErrDecrypt, "decrypt", s.name, err)
				return nil, retErr
			}
			writes = append(writes, pendingWrite{slot: s, value: plaintext})
		}
	}

	commit(writes)
	decrypted = len(writes)
	return results, nil
}

func commit(writes []pendingWrite) {
	for _, w := range writes {
		w.slot.set(w.value)
	}
}

// writeCandidates flattens the accepted parameter shapes into candidate objects.
// Only top-level map values and the elements of top-level collections are
// visited; nothing deeper.
func writeCandidates(rv reflect.Value) []reflect.Value {
	rv = indirectCollection(unwrap(rv))
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return []reflect.Value{rv}
		}
		var out []reflect.Value
		iter := rv.MapRange()
		for iter.Next() {
			v := unwrap(iter.Value())
			if !v.IsValid() {
				continue
			}
			if isEntityCollection(v) {
				out = append(out, elements(v)...)
				continue
			}
			out = append(out, v)
		}
		return out
	case reflect.Slice, reflect.Array:
		if !isEntityCollection(rv) {
			return nil
		}
		return elements(rv)
	default:
		return []reflect.Value{rv}
	}
}

// isEntityCollection reports whether v is a slice or array that can hold entities.
func isEntityCollection(v reflect.Value) bool {
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return false
	}
	switch v.Type().Elem().Kind() {
	case reflect.Struct, reflect.Pointer, reflect.Interface:
		return true
	default:
		return false
	}
}

func elements(v reflect.Value) []reflect.Value {
	out := make([]reflect.Value, v.Len())
	for j := range out {
		out[j] = v.Index(j)
	}
	return out
}

// slotsOf returns lenses on the sensitive string fields of v.
// The bool is false when v is nil or not a participant.
func slotsOf(v reflect.Value) ([]slot, bool, error) {
	v = unwrap(v)
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil, false, nil
	}

	plan, err := planFor(v.Type())
	if err != nil {
		return nil, false, err
	}
	if !plan.participant {
		return nil, false, nil
	}

	if !plan.lister && len(plan.fields) == 0 {
		return nil, true, nil
	}

	if !v.CanAddr() {
		return nil, false, fmt.Errorf("%w: %s passed by value", ErrUnaddressable, plan.typeName)
	}

	var slots []slot
	covered := make(map[uintptr]bool)

	if plan.lister {
		lister, ok := v.Addr().Interface().(FieldLister)
		if !ok {
			return nil, false, fmt.Errorf("%w: %s", ErrUnaddressable, plan.typeName)
		}
		for _, ref := range lister.SensitiveFields() {
			if ref.Value == nil {
				continue
			}
			p := ref.Value
			addr := reflect.ValueOf(p).Pointer()
			if covered[addr] {
				continue
			}
			covered[addr] = true
			slots = append(slots, slot{
				name: plan.typeName + "." + ref.Name,
				get:  func() string { return *p },
				set:  func(s string) { *p = s },
			})
		}
	}

	// Tagged fields apply even when a lister is promoted from an embedded type.
	for _, fd := range plan.fields {
		field, ok := getField(v, fd)
		if !ok || !field.CanSet() {
			continue
		}
		addr := field.Addr().Pointer()
		if covered[addr] {
			continue
		}
		covered[addr] = true
		slots = append(slots, slot{
			name: plan.typeName + "." + fd.Name,
			get:  field.String,
			set:  field.SetString,
		})
	}
	return slots, true, nil
}

// indirectCollection follows a non-nil pointer to a slice or array.
func indirectCollection(v reflect.Value) reflect.Value {
	if v.IsValid() && v.Kind() == reflect.Pointer && !v.IsNil() {
		switch v.Elem().Kind() {
		case reflect.Slice, reflect.Array:
			return v.Elem()
		}
	}
	return v
}

// unwrap strips interface wrappers. It returns the zero Value for nil interfaces.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
