// Package errors derives stable tag values from Go errors.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"
)

// Classify reduces an error to a lowercase type label usable as a metric tag.
// The innermost wrapped error carries the most signal, so the chain is
// unwrapped first.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	for {
		inner := goerrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	label := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	label = strings.ReplaceAll(label, ".", "_")
	if label == "" {
		return "unknown"
	}
	return label
}
