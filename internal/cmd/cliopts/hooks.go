package cliopts

import (
	"reflect"
)

type flagValueSlice interface {
	GetSlice() []string
}

// hookFlagValueSlice decodes a pflag.SliceValue into a slice in the target.
func hookFlagValueSlice(from reflect.Value, _ reflect.Value) (interface{}, error) {
	source := from.Interface()
	v, ok := source.(flagValueSlice)
	if !ok {
		return source, nil
	}
	return v.GetSlice(), nil
}

// FromString is implemented by types, like timer.TimeOfDay, that parse their
// value from a string. pflag.Value uses the same method, so one type works
// for flags, environment variables, and the config file.
type FromString interface {
	Set(string) error
}

func hookSetFromString(from reflect.Value, to reflect.Value) (interface{}, error) {
	source := from.Interface()
	v, ok := source.(string)
	if !ok {
		return source, nil
	}

	fromString, ok := to.Interface().(FromString)
	if !ok {
		if to.CanAddr() {
			fromString, ok = to.Addr().Interface().(FromString)
		}
		if !ok {
			return source, nil
		}
	}

	err := fromString.Set(v)
	return to.Interface(), err
}
