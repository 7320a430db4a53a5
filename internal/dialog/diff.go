// Package dialog implements the create, update and delete flows behind the
// console's dialogs.
package dialog

import (
	"reflect"
)

// ComputeDiff returns the fields of edited whose values differ from original.
// Fields absent from original count as changed. Neither input is modified.
func ComputeDiff(original, edited map[string]any) map[string]any {
	diff := make(map[string]any)
	for key, value := range edited {
		prev, ok := original[key]
		if !ok || !reflect.DeepEqual(prev, value) {
			diff[key] = value
		}
	}
	return diff
}

func copyFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
